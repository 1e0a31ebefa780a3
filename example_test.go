package modelconv_test

import (
	"fmt"

	"github.com/mwelsh/modelconv"
)

func ExampleConverter_Apply() {
	// Suppose preprocessing eliminated variable 2 from a formula containing
	// (x0 ∨ x2) ∧ (x1 ∨ ¬x2), recording the two removed clauses.
	var c modelconv.Converter
	e := c.BeginEntry(modelconv.Eliminated, 2)
	c.AttachBinary(e, modelconv.MkLit(0, false), modelconv.MkLit(2, false))
	c.AttachBinary(e, modelconv.MkLit(1, false), modelconv.MkLit(2, true))

	// The search engine then solved the reduced formula, assigning
	// x0 = false and x1 = true.
	m := modelconv.Model{modelconv.False, modelconv.True, modelconv.Undef}

	// Apply derives x2's value from the recorded clauses.
	c.Apply(m)
	fmt.Println("x2 =", m[2])
	fmt.Println("model ok:", c.CheckModel(m))
	// Output:
	// x2 = true
	// model ok: true
}
