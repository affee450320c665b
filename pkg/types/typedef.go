package types

import "github.com/snuggle-lang/snugglec/pkg/source"

// Kind discriminates the TypeDef sum type (spec §3). Spec §3 lists
// "indirection (resolved exactly once)" as one more case of this sum; in
// this arena-based port that case is structural rather than a TypeDef
// variant — see the Arena doc comment — because an Index naming an
// unfilled arena slot already *is* the indirection. No KindIndirection
// value is ever observable past the resolver: Arena.Get panics on an
// unfilled slot, so callers check Arena.IsFulfilled first wherever the
// slot may still be empty.
type Kind int

const (
	KindBasicBuiltin Kind = iota
	KindReflectedBuiltin
	KindClass
	KindStruct // "plural" value type
	KindFunc
	KindGenericInstance
)

// Field is a resolved field: name, type, whether it is a static
// (class-level) field.
type Field struct {
	Name     string
	Type     Index
	IsStatic bool
	Loc      source.Location
}

// TypeDef is the resolved/typed representation of a type (spec §3). Every
// TypeDef exposes name, runtime name, a JVM-style descriptor list, a
// stack-slot count, isPlural/isReferenceType flags, fields, methods, and
// a primary supertype.
type TypeDef struct {
	Kind Kind

	Name        string // Snuggle source name
	RuntimeName string // mangled name used by the writer/bridge

	// Descriptor is the ordered list of JVM-style descriptor fragments
	// making up this type's on-stack representation, length 1 where set.
	// Builtins and bridged classes set it; types built by pkg/check leave
	// it empty, and pkg/lower then derives a descriptor from RuntimeName.
	Descriptor []string

	StackSlots int
	IsPlural   bool // true => laid out as concatenated fields, never a single stack word
	// IsReferenceType mirrors !IsPlural for basic/class/func types; kept as
	// an explicit flag (not derived) because reflected builtins can be
	// non-plural reference types with their own descriptor peculiarities.
	IsReferenceType bool

	Fields  []Field
	Methods []*MethodDef

	// Supertype is the primary supertype's Index, or InvalidIndex if none.
	Supertype Index

	// GenericArgs holds the concrete argument Indices this TypeDef was
	// specialized at, for KindGenericInstance; nil otherwise. Two
	// specializations with equal GenericArgs (spec §3 invariant) must be
	// the same *TypeDef instance — enforced by the specialization cache
	// (Factory, generic.go), not by this struct.
	GenericArgs []Index

	// ReflectedClass carries host-bridge metadata for KindReflectedBuiltin.
	ReflectedClass *ReflectedClass
}

// ReflectedClass is attached to a TypeDef bridging a host (JVM-family)
// class into Snuggle (spec §4.4). It is populated by pkg/hostbridge.
type ReflectedClass struct {
	RuntimeName  string
	StaticField  string // non-empty for SnuggleStatic singleton mode
	IsSingleton  bool
	AcknowledgedGenerics bool
}

// MethodKind discriminates the MethodDef sum type (spec §3).
type MethodKind int

const (
	MethodSnuggle MethodKind = iota
	MethodBytecode
	MethodConst
	MethodStaticConst
	MethodInterface
	MethodGeneric
)

// BodyState models the lazy-body lifecycle of spec §4.2 / Design Notes §9:
// a method's signature is always eager; its body transitions
// Pending -> Resolving -> Resolved. Re-entering Resolving for the same
// method (a self-reference during body typing) is valid and simply
// observes the signature, never forces the body.
type BodyState int

const (
	BodyPending BodyState = iota
	BodyResolving
	BodyResolved
)

// Signature is eagerly computed when a type/method is specialized (spec
// §4.2 "Lazy bodies — critical invariant").
type Signature struct {
	RuntimeName string // after $N disambiguation / `new` renaming
	Params      []Field
	Ret         Index
}

// MethodDef is the resolved/typed representation of a method (spec §3).
type MethodDef struct {
	Kind      MethodKind
	Name      string
	Owner     Index // owning TypeDef's Index
	Signature Signature

	BodyState BodyState
	// Body is filled once BodyState reaches BodyResolved. Its concrete
	// type is a check.TypedExpr, but pkg/types cannot import pkg/check
	// (pkg/check depends on pkg/types), so it is carried as interface{}
	// and type-asserted back by check.ForceBody. This mirrors the host-independent
	// "closure captures only {owner indirection, cache, arg tuples}"
	// restriction: nothing else may leak into the deferred computation.
	Body interface{}

	// BytecodeEmit is set for MethodBytecode: an inline emitter used by
	// builtins, bypassing invocation (spec §4.3 "Method calls").
	BytecodeEmit BytecodeEmitter

	// Generics holds a factory for MethodGeneric; nil otherwise. A
	// non-generic method has no factory and is called directly, without
	// going through Specialize.
	Generics *MethodFactory
}

// BytecodeEmitter emits a fixed instruction cost/sequence for a builtin
// method. Defined here (not in pkg/ir) because pkg/types must not depend
// on pkg/ir; pkg/lower supplies concrete emitters that close over ir types
// via the InstrSink abstraction.
type BytecodeEmitter func(sink InstrSink)

// InstrSink receives opaque instruction values during emission. pkg/ir
// defines the concrete instruction type and adapts it to this interface,
// keeping pkg/types free of an import on pkg/ir (spec §3's IR is a
// downstream, not upstream, concern of the type system).
type InstrSink interface {
	Emit(instr interface{})
}

// ArgKey is a comparable key for a tuple of generic argument Indices,
// used by the specialization cache (spec §3 invariant: "specialized
// twice at equal argument tuples returns the same specialized TypeDef").
type ArgKey string

func KeyOf(args []Index) ArgKey {
	b := make([]byte, 0, len(args)*4)
	for _, a := range args {
		b = append(b, byte(a>>24), byte(a>>16), byte(a>>8), byte(a))
	}
	return ArgKey(b)
}
