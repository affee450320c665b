package resolve

import "github.com/snuggle-lang/snugglec/pkg/types"

// Scope is a chained, persistent lookup table from type name to
// Indirection. Each block gets a child scope so siblings see each
// other's forward declarations (Phase A) without leaking into the
// parent, and later-import exposure (Phase B) extends the chain one link
// at a time so only *later* siblings see it (spec §4.1.1/.2).
type Scope struct {
	parent *Scope
	names  map[string]types.Indirection
}

func NewRootScope() *Scope {
	return &Scope{names: make(map[string]types.Indirection)}
}

// Child creates a new scope layer bound to extra, with s as parent.
func (s *Scope) Child(extra map[string]types.Indirection) *Scope {
	return &Scope{parent: s, names: extra}
}

// Lookup searches this scope and its ancestors.
func (s *Scope) Lookup(name string) (types.Indirection, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if ind, ok := cur.names[name]; ok {
			return ind, true
		}
	}
	return types.Indirection(0), false
}
