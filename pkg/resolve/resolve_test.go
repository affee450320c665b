package resolve

import (
	"testing"

	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/parser"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

type memLoader map[string][]byte

func (m memLoader) Load(path string) ([]byte, bool) {
	src, ok := m[path]
	return src, ok
}

func resolveSource(t *testing.T, src string) (*File, *Resolver, *diagnostics.Bag) {
	t.Helper()
	bag := &diagnostics.Bag{}
	r := NewResolver(memLoader{}, parser.Parse, bag)
	f := parser.Parse("main.sn", []byte(src), bag)
	if !bag.Empty() {
		t.Fatalf("parse errors: %s", bag.Error())
	}
	resolved := r.ResolveFile(f)
	return resolved, r, bag
}

func TestResolveForwardReference(t *testing.T) {
	// B is declared after A but A's field references it: Phase A must
	// pre-declare both before Phase B resolves either body.
	src := `
class A {
    b: B
}
class B {
    a: A
}
`
	_, r, bag := resolveSource(t, src)
	if !bag.Empty() {
		t.Fatalf("unexpected errors: %s", bag.Error())
	}
	if !r.Arena.AllFulfilled() {
		t.Fatal("expected every indirection to be fulfilled")
	}
}

func TestResolveUnknownType(t *testing.T) {
	src := `
class A {
    b: Nonexistent
}
`
	_, _, bag := resolveSource(t, src)
	if bag.Empty() {
		t.Fatal("expected an unknown-type error")
	}
}

func TestResolveStaticVsVirtualAccess(t *testing.T) {
	src := `
class Counter {
    static fn zero(): Counter { new Counter() }
    fn use_it() {
        let c = Counter.zero()
        c.zero()
    }
}
`
	resolved, _, bag := resolveSource(t, src)
	if !bag.Empty() {
		t.Fatalf("unexpected errors: %s", bag.Error())
	}

	td, ok := resolved.Top.Elements[0].(*TypeDef)
	if !ok {
		t.Fatalf("expected a resolved TypeDef, got %T", resolved.Top.Elements[0])
	}
	var useIt *Method
	for i := range td.Methods {
		if td.Methods[i].Name == "use_it" {
			useIt = &td.Methods[i]
		}
	}
	if useIt == nil {
		t.Fatal("use_it method not found")
	}

	var sawStatic, sawVirtual bool
	walkExpr(useIt.Body, &sawStatic, &sawVirtual)
	if !sawStatic {
		t.Error("expected Counter.zero() to resolve to a StaticMethodCall")
	}
	if !sawVirtual {
		t.Error("expected c.zero() to resolve to a virtual MethodCall")
	}
}

func walkExpr(e Expr, sawStatic, sawVirtual *bool) {
	switch n := e.(type) {
	case *Block:
		for _, el := range n.Elements {
			if ex, ok := el.(Expr); ok {
				walkExpr(ex, sawStatic, sawVirtual)
			}
		}
	case *Declaration:
		walkExpr(n.Value, sawStatic, sawVirtual)
	case *StaticMethodCall:
		*sawStatic = true
	case *MethodCall:
		*sawVirtual = true
		walkExpr(n.Receiver, sawStatic, sawVirtual)
	}
}

func TestResolveBareSuperIsError(t *testing.T) {
	src := `
class Base {
}
class A : Base {
    fn f() {
        super
    }
}
`
	_, _, bag := resolveSource(t, src)
	if bag.Empty() {
		t.Fatal("expected bare `super` to be a resolve error")
	}
}

func TestResolveSuperCallIsLegal(t *testing.T) {
	src := `
class Base {
    fn f() { }
}
class A : Base {
    fn f() {
        super.f()
    }
}
`
	_, _, bag := resolveSource(t, src)
	if !bag.Empty() {
		t.Fatalf("unexpected errors: %s", bag.Error())
	}
}

func TestResolveImportExposesLaterSiblingsOnly(t *testing.T) {
	loader := memLoader{
		"lib.sn": []byte(`pub class Widget { }`),
	}
	bag := &diagnostics.Bag{}
	r := NewResolver(loader, parser.Parse, bag)

	src := `
class Before {
    w: Widget
}
import "lib.sn"
class After {
    w: Widget
}
`
	f := parser.Parse("main.sn", []byte(src), bag)
	if !bag.Empty() {
		t.Fatalf("parse errors: %s", bag.Error())
	}
	r.ResolveFile(f)
	if bag.Empty() {
		t.Fatal("expected Before to fail resolving Widget, since the import comes after it")
	}
}

func TestKeyOfDistinguishesArgumentTuples(t *testing.T) {
	a := types.KeyOf([]types.Index{1, 2})
	b := types.KeyOf([]types.Index{2, 1})
	if a == b {
		t.Fatal("expected different argument order to produce different keys")
	}
}
