package modelconv

import "strconv"

// A Var is a boolean variable, identified by its index into a Model.
type Var int32

// VarUndef is a reserved non-variable value.
const VarUndef Var = -1

// A Lit represents an instance of a variable or its negation in a clause.
// The value is 2 times the variable value (index) or 2x+1 for negation.
type Lit uint32

// LitNone is a reserved literal carrying no variable. It terminates each
// clause inside a flattened justification.
const LitNone Lit = 1<<32 - 1

// MkLit makes the literal for v, negated if sign is true.
func MkLit(v Var, sign bool) Lit {
	l := Lit(v) << 1
	if sign {
		l |= 1
	}
	return l
}

func (l Lit) Var() Var   { return Var(l >> 1) }
func (l Lit) Sign() bool { return l&1 == 1 }

// Neg returns the negation of l.
func (l Lit) Neg() Lit { return l ^ 1 }

// assn is the value l's variable must hold for l to be true.
func (l Lit) assn() LBool {
	return LBool(l&1) + 1
}

func (l Lit) String() string {
	if l == LitNone {
		return "#"
	}
	if l.Sign() {
		return "-" + strconv.Itoa(int(l.Var()))
	}
	return strconv.Itoa(int(l.Var()))
}

// An LBool is a three-valued truth assignment.
type LBool uint8

const (
	Undef LBool = 0
	True  LBool = 1
	False LBool = 2
)

func (b LBool) String() string {
	switch b {
	case Undef:
		return "undef"
	case True:
		return "true"
	case False:
		return "false"
	default:
		panic("unreached")
	}
}

// A Model maps each variable index to a truth value. It is owned by the
// caller; Apply mutates it in place.
type Model []LBool

// Value evaluates l under m: True when the variable's value matches l's
// polarity, False when it matches the opposite, Undef when unassigned.
func (m Model) Value(l Lit) LBool {
	v := m[l.Var()]
	if v == Undef {
		return Undef
	}
	if v == l.assn() {
		return True
	}
	return False
}

// A ClauseView gives the construction API indexed access to a clause without
// fixing its storage representation.
type ClauseView interface {
	Len() int
	Lit(i int) Lit
}

// A Clause is a plain slice-backed ClauseView.
type Clause []Lit

func (c Clause) Len() int      { return len(c) }
func (c Clause) Lit(i int) Lit { return c[i] }
