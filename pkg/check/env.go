package check

import "github.com/snuggle-lang/snugglec/pkg/types"

// binding is one name's slot/type pair in an Env layer.
type binding struct {
	slot int
	typ  types.Index
}

// Env is an immutable, chained binding environment, accumulated one
// pattern at a time (spec §4.2 "Bindings are accumulated into an
// immutable environment keyed by name"). nextSlot advances monotonically
// as patterns are typed so every binding in a method body gets a unique
// stack slot.
type Env struct {
	parent   *Env
	names    map[string]binding
	nextSlot int
}

func NewEnv() *Env {
	return &Env{names: map[string]binding{}}
}

// Bind returns a new Env with name bound at the next free slot, occupying
// slots according to typ's stack-slot count.
func (e *Env) Bind(name string, typ types.Index, slots int) *Env {
	child := &Env{parent: e, names: map[string]binding{name: {slot: e.nextSlot, typ: typ}}, nextSlot: e.nextSlot + slots}
	return child
}

func (e *Env) Lookup(name string) (binding, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (e *Env) NextSlot() int {
	return e.nextSlot
}
