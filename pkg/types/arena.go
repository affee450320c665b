// Package types implements the resolved/typed data model of spec §3: the
// TypeDef sum type, method-def sum type, and the generic arena that owns
// every value produced during a compile pass.
//
// Design Notes §9 ("Cyclic type graph via indirections") prescribes this
// exact shape for a systems-language port: a typing arena owns all
// type-defs; a reference is a stable Index into the arena, and an
// Indirection is a cell containing an optional Index, resolved exactly
// once. We implement that literally: Alloc reserves the slot (and hands
// back an Indirection naming it) before the value itself is known;
// Fulfill fills the slot exactly once. Because the slot number is fixed
// at Alloc time, two type-defs can reference each other — A's field can
// hold B's Indirection before B's own body has been resolved — with no
// cyclic ownership and no promise/future machinery.
//
// Arena is generic because two passes each own one: the name resolver
// arenas *resolve.TypeDef (structurally resolved, not yet typed), and the
// type checker separately arenas *types.TypeDef (fully specialized). Each
// pass's arena is independent, matching spec §3's "each pass's AST owned
// by its own output".
package types

import "fmt"

// Index is a stable reference to a value stored in an Arena, safe to
// dereference once the arena confirms the slot is filled. Indices are
// never reused and never invalidated for the lifetime of a compile.
type Index int

const InvalidIndex Index = -1

// Indirection is a one-shot, write-once handle to a to-be-resolved value
// (spec glossary: "enables cyclic references during resolution"). It
// shares Index's numeric identity (the arena slot is reserved immediately
// on Alloc). Arena.Resolve converts it to an Index and panics if the slot
// is still empty; the passes convert it directly and check IsFulfilled
// first wherever the slot may not be filled yet.
type Indirection Index

// Arena owns every value of type T produced during a single pass. It
// never shrinks; passes only append.
type Arena[T any] struct {
	defs   []T
	filled []bool
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Alloc reserves a slot and returns its Indirection before the value
// itself is known — spec §4.1 Phase A: "For every ParsedTypeDef create an
// unfulfilled indirection; bind its name in the scope visible to all
// elements of this block".
func (a *Arena[T]) Alloc() Indirection {
	var zero T
	a.defs = append(a.defs, zero)
	a.filled = append(a.filled, false)
	return Indirection(len(a.defs) - 1)
}

// Fulfill fills a previously-allocated slot exactly once. A second call
// on the same Indirection is the compiler bug spec §4.1 calls out
// ("duplicate fulfillment of an indirection").
func (a *Arena[T]) Fulfill(ind Indirection, val T) {
	i := int(ind)
	if a.filled[i] {
		panic(fmt.Sprintf("types: indirection %d fulfilled twice", i))
	}
	a.defs[i] = val
	a.filled[i] = true
}

// Add allocates and fulfills a slot in one step, for values that never
// need a forward-reference placeholder (builtins, generic
// specializations produced after their arguments are already resolved).
func (a *Arena[T]) Add(val T) Index {
	ind := a.Alloc()
	a.Fulfill(ind, val)
	return Index(ind)
}

// IsFulfilled reports whether ind's slot has been filled yet. An
// Indirection naming no slot (InvalidIndex) is never fulfilled.
func (a *Arena[T]) IsFulfilled(ind Indirection) bool {
	i := int(ind)
	if i < 0 || i >= len(a.filled) {
		return false
	}
	return a.filled[i]
}

// Resolve converts a fulfilled Indirection into a plain Index. Panics if
// the slot was never filled — per spec §3's invariant, every indirection
// is fulfilled before any typing pass reads it, so an unfulfilled read
// here is a compiler bug, not a recoverable user error.
func (a *Arena[T]) Resolve(ind Indirection) Index {
	i := int(ind)
	if !a.filled[i] {
		panic(fmt.Sprintf("types: indirection %d read before being fulfilled", i))
	}
	return Index(i)
}

// Get dereferences an already-resolved Index.
func (a *Arena[T]) Get(i Index) T {
	if !a.filled[i] {
		panic(fmt.Sprintf("types: arena slot %d read before being filled", i))
	}
	return a.defs[i]
}

// Len reports how many slots have been allocated.
func (a *Arena[T]) Len() int {
	return len(a.defs)
}

// AllFulfilled reports whether every allocated slot has been filled,
// letting a pass assert spec §8's "resolution totality" property at the
// end of a compile.
func (a *Arena[T]) AllFulfilled() bool {
	for _, f := range a.filled {
		if !f {
			return false
		}
	}
	return true
}
