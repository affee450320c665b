package lower

import (
	"github.com/snuggle-lang/snugglec/pkg/check"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// frame tracks one method activation's local-slot allocation during
// lowering. Parameter/declaration slots were already assigned by the
// checker's Env (spec §4.2); frame only hands out scratch slots beyond
// that high-water mark, for stashing a plural-field receiver chain that
// must be reloaded once per leaf (spec §4.3 "the receiver is stashed in a
// local (maxVariable slot) and reloaded per leaf").
type frame struct {
	arena    *types.Arena[*types.TypeDef]
	nextFree int
}

func newFrame(arena *types.Arena[*types.TypeDef], body check.TypedExpr, paramSlots int) *frame {
	fr := &frame{arena: arena, nextFree: paramSlots}
	fr.scan(body)
	return fr
}

// scan walks body once to find the checker's own high-water local-slot
// mark, so scratch allocation never collides with a declared local (spec
// §3 "Local-slot indices are dense and non-overlapping within a single
// method's activation").
func (fr *frame) scan(e check.TypedExpr) {
	if e == nil {
		return
	}
	bump := func(slot int, ty types.Index) {
		end := slot + stackSlots(fr.arena, ty)
		if end > fr.nextFree {
			fr.nextFree = end
		}
	}
	switch n := e.(type) {
	case *check.Block:
		for _, el := range n.Elements {
			fr.scan(el)
		}
	case *check.Variable:
		bump(n.Slot, n.Type())
	case *check.Declaration:
		bump(n.Slot, n.VarType)
		fr.scan(n.Value)
	case *check.Assignment:
		fr.scan(n.Target)
		fr.scan(n.Value)
	case *check.FieldAccess:
		fr.scan(n.Receiver)
	case *check.StaticFieldAccess:
	case *check.StaticMethodCall:
		for _, a := range n.Args {
			fr.scan(a)
		}
	case *check.MethodCall:
		fr.scan(n.Receiver)
		for _, a := range n.Args {
			fr.scan(a)
		}
	case *check.SuperCall:
		for _, a := range n.Args {
			fr.scan(a)
		}
	case *check.ConstructorCall:
		for _, a := range n.Args {
			fr.scan(a)
		}
	case *check.RawStructConstructor:
		for _, f := range n.Fields {
			fr.scan(f)
		}
	case *check.TupleExpr:
		for _, el := range n.Elems {
			fr.scan(el)
		}
	case *check.Lambda:
		for _, p := range n.Params {
			bump(p.Slot, p.Type)
		}
		fr.scan(n.Body)
	case *check.Return:
		fr.scan(n.Value)
	case *check.If:
		fr.scan(n.Cond)
		fr.scan(n.Then)
		fr.scan(n.Else)
	case *check.While:
		fr.scan(n.Cond)
		fr.scan(n.Body)
	case *check.Paren:
		fr.scan(n.Inner)
	}
}

// stash allocates a scratch local wide enough for ty, for reloading a
// plural-field receiver chain once per selected leaf.
func (fr *frame) stash(ty types.Index) int {
	slot := fr.nextFree
	fr.nextFree += stackSlots(fr.arena, ty)
	return slot
}
