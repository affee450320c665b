package types

// Factory and MethodFactory implement spec §4.2's "generic factory": a
// map from argument-tuple to specialization entry, not a captured closure
// (Design Notes §9: "Separating the keying data from the computation
// function avoids carrying hidden mutable state in closures"). This file
// is the shared memoization-by-equality abstraction used by both
// type-level and method-level generics.

// Builder computes a fresh specialization given concrete type arguments.
// It must not itself perform body-typing work beyond the signature —
// that's the caller's job once it stores the returned entry, enforcing
// the "lazy bodies" invariant at the one place new entries are minted.
type Builder func(args []Index) *TypeDef

// Factory is a generic type-def's specialization cache.
type Factory struct {
	build   Builder
	entries map[ArgKey]Index
}

func NewFactory(build Builder) *Factory {
	return &Factory{build: build, entries: make(map[ArgKey]Index)}
}

// Specialize returns the Index of the specialization for args, creating
// and caching it via arena if this is the first request for this exact
// argument tuple. Equal argument tuples always return the same Index
// (spec §3 "Specialization canonicity" invariant).
func (f *Factory) Specialize(arena *Arena[*TypeDef], args []Index) Index {
	key := KeyOf(args)
	if idx, ok := f.entries[key]; ok {
		return idx
	}
	def := f.build(args)
	idx := arena.Add(def)
	f.entries[key] = idx
	return idx
}

// Has reports whether args was already specialized, without triggering a
// new build — used during reentrant specialization (spec §5
// "Reentrancy") to detect a self-referential specialization request.
func (f *Factory) Has(args []Index) (Index, bool) {
	idx, ok := f.entries[KeyOf(args)]
	return idx, ok
}

// MethodBuilder computes a fresh method specialization (signature only;
// the body is wired up separately as a deferred computation per spec
// §4.2).
type MethodBuilder func(args []Index) *MethodDef

// MethodFactory is a generic method's specialization cache, structurally
// identical to Factory but keyed/stored against *MethodDef directly
// (methods are not arena-owned: they live inside their owner TypeDef's
// Methods slice, appended once per specialization).
type MethodFactory struct {
	build   MethodBuilder
	entries map[ArgKey]*MethodDef
	order   []ArgKey
}

func NewMethodFactory(build MethodBuilder) *MethodFactory {
	return &MethodFactory{build: build, entries: make(map[ArgKey]*MethodDef)}
}

// Specialize returns the *MethodDef for args, building (and appending to
// owner.Methods) the first time this exact tuple is requested. Only
// generic methods have a MethodFactory; non-generic methods never pass
// through here.
func (mf *MethodFactory) Specialize(owner *TypeDef, args []Index) *MethodDef {
	key := KeyOf(args)
	if m, ok := mf.entries[key]; ok {
		return m
	}
	m := mf.build(args)
	mf.entries[key] = m
	mf.order = append(mf.order, key)
	if owner != nil {
		owner.Methods = append(owner.Methods, m)
	}
	return m
}

func (mf *MethodFactory) Has(args []Index) (*MethodDef, bool) {
	m, ok := mf.entries[KeyOf(args)]
	return m, ok
}
