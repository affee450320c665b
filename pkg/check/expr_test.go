package check

import (
	"testing"

	"github.com/snuggle-lang/snugglec/pkg/types"
)

func newTestChecker() *Checker {
	arena := types.NewArena[*types.TypeDef]()
	builtins := types.RegisterBuiltins(arena)
	return NewChecker(nil, arena, builtins, nil, nil)
}

func TestTypeAssignableExactMatch(t *testing.T) {
	c := newTestChecker()
	if !c.typeAssignable(c.Builtins.I32, c.Builtins.I32) {
		t.Fatal("a type must be assignable to itself")
	}
}

func TestTypeAssignableIntLiteralNarrows(t *testing.T) {
	c := newTestChecker()
	for _, width := range []types.Index{c.Builtins.I8, c.Builtins.I16, c.Builtins.I32, c.Builtins.I64, c.Builtins.F32, c.Builtins.F64} {
		if !c.typeAssignable(c.Builtins.IntLiteral, width) {
			t.Errorf("expected the polymorphic int-literal type to narrow to width %v", width)
		}
	}
}

func TestTypeAssignableRejectsUnrelatedBasics(t *testing.T) {
	c := newTestChecker()
	if c.typeAssignable(c.Builtins.Bool, c.Builtins.I32) {
		t.Fatal("bool must not be assignable to i32")
	}
	if c.typeAssignable(c.Builtins.String, c.Builtins.Bool) {
		t.Fatal("string must not be assignable to bool")
	}
}

func TestTypeAssignableWalksSupertypeChain(t *testing.T) {
	c := newTestChecker()
	base := c.Arena.Add(&types.TypeDef{Kind: types.KindClass, Name: "Base", Supertype: c.Builtins.Object})
	derived := c.Arena.Add(&types.TypeDef{Kind: types.KindClass, Name: "Derived", Supertype: base})
	if !c.typeAssignable(derived, base) {
		t.Error("Derived must be assignable to Base through the supertype chain")
	}
	if !c.typeAssignable(derived, c.Builtins.Object) {
		t.Error("Derived must be assignable to Object transitively")
	}
	if c.typeAssignable(base, derived) {
		t.Error("a supertype must not be assignable to its subtype")
	}
}

// Spec §8 scenario 6: among same-named, same-arity overloads, the one
// whose parameter types match the call's argument types is chosen.
func TestPickOverloadByArgumentType(t *testing.T) {
	c := newTestChecker()
	intParam := &types.MethodDef{Name: "f", Signature: types.Signature{Params: []types.Field{{Name: "x", Type: c.Builtins.I32}}}}
	boolParam := &types.MethodDef{Name: "f", Signature: types.Signature{Params: []types.Field{{Name: "x", Type: c.Builtins.Bool}}}}
	def := &types.TypeDef{Methods: []*types.MethodDef{intParam, boolParam}}

	boolArg := []TypedExpr{&Literal{base: base{Ty: c.Builtins.Bool}}}
	got := c.pickOverload(def, "f", boolArg)
	if got != boolParam {
		t.Fatalf("expected the bool-parameter overload to be picked for a bool argument, got %+v", got)
	}

	intArg := []TypedExpr{&Literal{base: base{Ty: c.Builtins.I32}}}
	got = c.pickOverload(def, "f", intArg)
	if got != intParam {
		t.Fatalf("expected the i32-parameter overload to be picked for an i32 argument, got %+v", got)
	}
}
