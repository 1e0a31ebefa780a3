// Package modelconv reconstructs a total satisfying assignment after
// preprocessing has removed variables from a boolean formula.
//
// A preprocessor that eliminates a variable (by resolution, or by deleting
// clauses blocked on one of its literals) records an entry here holding the
// variable and the clauses that justified removing it. Once the search engine
// has assigned the surviving variables, Apply walks the recorded entries in
// reverse and patches the model so that every justification clause is
// satisfied, producing a model for the original formula.
package modelconv

import (
	"fmt"
	"io"
	"strings"

	"github.com/kr/pretty"
)

// Verify enables the internal consistency checks: attach preconditions and
// Apply's per-entry re-verification. Violations panic. It is meant for tests
// and debugging; the checks are linear in the ledger size but sit on paths
// that are otherwise branch-free.
var Verify = false

// A Kind says why an entry's variable was removed from the formula.
type Kind uint8

const (
	// Eliminated marks a variable fully removed by resolution. Its model
	// value must still be Undef when Apply runs.
	Eliminated Kind = iota
	// Blocked marks a variable whose clauses were removed by blocked-literal
	// elimination. It may still occur in remaining clauses, so it can reach
	// Apply already assigned; Apply may overwrite that value.
	Blocked
)

func (k Kind) String() string {
	if k == Eliminated {
		return "elim"
	}
	return "blocked"
}

// An entry records one removed variable together with its justification: the
// removed clauses, flattened into a single slice with LitNone terminating
// each clause.
type entry struct {
	kind    Kind
	v       Var
	clauses []Lit
}

// A Converter is an append-only ledger of elimination entries, in
// chronological order. Entries are recorded during preprocessing via
// BeginEntry/AttachClause and consumed read-only afterwards.
//
// Ordering invariant (validated by CheckInvariant): once a variable is
// recorded as Eliminated, no later entry's justification may mention it.
// Apply's single reverse pass is correct only under this invariant.
//
// The zero value is an empty converter ready for use.
type Converter struct {
	// Diag, if non-nil, receives a description of the first offending
	// clause or variable when CheckModel or CheckInvariant fails.
	Diag io.Writer

	entries []entry
}

// Len reports the number of recorded entries.
func (c *Converter) Len() int { return len(c.entries) }

// BeginEntry appends an empty entry for v and returns its index. Attach the
// entry's justification clauses with AttachClause or AttachBinary before
// beginning the next entry: entries must be recorded in elimination order.
func (c *Converter) BeginEntry(k Kind, v Var) int {
	c.entries = append(c.entries, entry{kind: k, v: v})
	return len(c.entries) - 1
}

// AttachClause appends cl to entry e's justification. cl must contain a
// literal over the entry's variable (checked when Verify is set).
func (c *Converter) AttachClause(e int, cl ClauseView) {
	ent := &c.entries[e]
	if Verify {
		found := false
		for i := 0; i < cl.Len(); i++ {
			if cl.Lit(i).Var() == ent.v {
				found = true
				break
			}
		}
		if !found {
			panic(fmt.Sprintf("modelconv: clause does not mention entry var %d", ent.v))
		}
	}
	for i := 0; i < cl.Len(); i++ {
		ent.clauses = append(ent.clauses, cl.Lit(i))
	}
	ent.clauses = append(ent.clauses, LitNone)
}

// AttachBinary appends the two-literal clause (l1 ∨ l2) to entry e's
// justification. One of the literals must be over the entry's variable
// (checked when Verify is set).
func (c *Converter) AttachBinary(e int, l1, l2 Lit) {
	ent := &c.entries[e]
	if Verify && l1.Var() != ent.v && l2.Var() != ent.v {
		panic(fmt.Sprintf("modelconv: binary clause does not mention entry var %d", ent.v))
	}
	ent.clauses = append(ent.clauses, l1, l2, LitNone)
}

// Apply extends m to the removed variables. m must already assign every
// variable that does not appear in the ledger; Apply mutates it in place so
// that every justification clause of every entry is satisfied and every
// entry's variable ends up with a defined value.
//
// Entries are replayed in reverse recording order. Within an entry, the first
// clause that is not otherwise satisfied fixes the entry variable's value;
// other unassigned variables encountered along the way are assigned whatever
// value satisfies their literal. An entry whose every clause is already
// satisfied leaves nothing to force a choice; its variable defaults to True
// if still unassigned.
func (c *Converter) Apply(m Model) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := &c.entries[i]
		if Verify && e.kind == Eliminated && m[e.v] != Undef {
			panic(fmt.Sprintf("modelconv: eliminated var %d already assigned before Apply", e.v))
		}
		sat := false
		varSign := false
		for _, l := range e.clauses {
			if l == LitNone {
				// End of clause. An unsatisfied clause is satisfiable only
				// through the entry's own variable.
				if !sat {
					if varSign {
						m[e.v] = False
					} else {
						m[e.v] = True
					}
					break
				}
				sat = false
				continue
			}
			if sat {
				continue
			}
			if l.Var() == e.v {
				// Its current value is not trustworthy yet.
				varSign = l.Sign()
				continue
			}
			if m.Value(l) == True {
				sat = true
			} else if m[l.Var()] == Undef {
				// Clause can be satisfied by assigning l's variable.
				m[l.Var()] = l.assn()
				sat = true
			}
		}
		if m[e.v] == Undef {
			// Every clause was pre-satisfied, so no occurrence forced a
			// value. Pick one; the entry's clauses hold either way.
			m[e.v] = True
		}
		if Verify {
			c.verifyEntry(e, m)
		}
	}
}

// verifyEntry re-scans e's justification under m and faults if any clause is
// unsatisfied. A failure means the ledger recorded an elimination step that
// cannot be consistently replayed, i.e. a bug in the preprocessor that built
// it.
func (c *Converter) verifyEntry(e *entry, m Model) {
	sat := false
	for _, l := range e.clauses {
		if l == LitNone {
			if !sat {
				panic(fmt.Sprintf("modelconv: replay left var %d entry unsatisfied: %s",
					e.v, pretty.Sprint(*e)))
			}
			sat = false
			continue
		}
		if !sat && m.Value(l) == True {
			sat = true
		}
	}
}

// CheckModel reports whether every justification clause of every entry is
// satisfied under m. It never assigns a variable, so it can validate Apply's
// output (or a ledger) independently. On failure the first unsatisfied
// clause is written to Diag.
func (c *Converter) CheckModel(m Model) bool {
	ok := true
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := &c.entries[i]
		sat := false
		start := 0
		for j, l := range e.clauses {
			if l == LitNone {
				if !sat {
					if ok && c.Diag != nil {
						fmt.Fprintf(c.Diag, "modelconv: unsatisfied clause (%s) in %s entry for var %d\n",
							litsString(e.clauses[start:j]), e.kind, e.v)
					}
					ok = false
				}
				sat = false
				start = j + 1
				continue
			}
			if sat {
				continue
			}
			if m.Value(l) == True {
				sat = true
			}
		}
	}
	return ok
}

// CheckInvariant validates the structural preconditions Apply relies on:
// every variable in the ledger is below numVars, no two entries own the same
// variable, and once a variable is recorded as Eliminated no later entry's
// justification mentions it. It reports the first violation to Diag and
// returns false. Intended as a test-time assertion, not a hot-path guard.
func (c *Converter) CheckInvariant(numVars int) bool {
	seen := make(map[Var]struct{}, len(c.entries))
	for i := range c.entries {
		e := &c.entries[i]
		if int(e.v) >= numVars || e.v < 0 {
			c.diagf("modelconv: entry var %d out of range [0, %d)\n", e.v, numVars)
			return false
		}
		if _, dup := seen[e.v]; dup {
			c.diagf("modelconv: var %d owned by more than one entry\n", e.v)
			return false
		}
		seen[e.v] = struct{}{}
		for _, l := range e.clauses {
			if l != LitNone && int(l.Var()) >= numVars {
				c.diagf("modelconv: justification var %d out of range [0, %d)\n", l.Var(), numVars)
				return false
			}
		}
	}
	for i := range c.entries {
		e := &c.entries[i]
		if e.kind != Eliminated {
			continue
		}
		for j := i + 1; j < len(c.entries); j++ {
			for _, l := range c.entries[j].clauses {
				if l != LitNone && l.Var() == e.v {
					c.diagf("modelconv: var %d eliminated at entry %d but referenced by entry %d\n",
						e.v, i, j)
					return false
				}
			}
		}
	}
	return true
}

func (c *Converter) diagf(format string, args ...interface{}) {
	if c.Diag != nil {
		fmt.Fprintf(c.Diag, format, args...)
	}
}

// Vars inserts each entry-owning variable into s.
func (c *Converter) Vars(s map[Var]struct{}) {
	for i := range c.entries {
		s[c.entries[i].v] = struct{}{}
	}
}

// MaxVar returns the largest variable index appearing in any entry's
// justification, or min if that is larger. Callers use it to size arrays
// before Apply.
func (c *Converter) MaxVar(min Var) Var {
	max := min
	for i := range c.entries {
		for _, l := range c.entries[i].clauses {
			if l != LitNone && l.Var() > max {
				max = l.Var()
			}
		}
	}
	return max
}

// String renders the ledger as nested parenthesized groups, one per entry
// with one subgroup per clause. The output is deterministic but purely
// diagnostic; there is no parser for it.
func (c *Converter) String() string {
	var b strings.Builder
	b.WriteString("(modelconv")
	for i := range c.entries {
		e := &c.entries[i]
		fmt.Fprintf(&b, "\n  (%s %d", e.kind, e.v)
		start := true
		for _, l := range e.clauses {
			if start {
				b.WriteString("\n    (")
				start = false
			} else if l != LitNone {
				b.WriteByte(' ')
			}
			if l == LitNone {
				b.WriteByte(')')
				start = true
				continue
			}
			b.WriteString(l.String())
		}
		b.WriteByte(')')
	}
	b.WriteString(")\n")
	return b.String()
}

// Copy replaces c's contents with a deep copy of src's. The two converters
// share no storage afterwards.
func (c *Converter) Copy(src *Converter) {
	c.Reset()
	if len(src.entries) == 0 {
		return
	}
	c.entries = make([]entry, len(src.entries))
	for i := range src.entries {
		e := src.entries[i]
		e.clauses = append([]Lit(nil), e.clauses...)
		c.entries[i] = e
	}
}

// Reset discards all entries and their storage.
func (c *Converter) Reset() {
	c.entries = nil
}

func litsString(lits []Lit) string {
	var b strings.Builder
	for i, l := range lits {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.String())
	}
	return b.String()
}
