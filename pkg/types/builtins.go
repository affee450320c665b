package types

// Builtins holds the Index of every built-in type, per spec §6's "built-in
// type list must be provided at resolution entry": bool, int widths, float
// widths, object, string, option, print, int-literal, plus anything the
// reflected-type bridge registers on top.
type Builtins struct {
	Bool   Index
	I8     Index
	I16    Index
	I32    Index
	I64    Index
	F32    Index
	F64    Index
	Object Index
	String Index
	// Option is a generic factory: Option<T> specializes per T, like any
	// other generic class (spec §4.2).
	Option *Factory
	// IntLiteral is the polymorphic literal type assigned to an integer
	// literal before context narrows it to a concrete width.
	IntLiteral Index
	// Print names the builtin print method's owning pseudo-type, so the
	// checker can resolve a bare `print(x)` call without a receiver.
	Print Index

	// names maps a builtin's source name to its Index for lookups during
	// name resolution and bridge wiring.
	names map[string]Index
}

// installBoolOperators attaches bool's builtin add/mul/not methods (spec §8
// scenario 2). They are declared here, during RegisterBuiltins, because
// the checker must see them in owner.Methods before any `true.add(false)`
// call-site is type-checked — but their BytecodeEmit closures are left
// nil: pkg/types must not import pkg/ir, so pkg/lower patches them in
// (lower.InstallBuiltinOperators) right before lowering begins, matching
// spec §4.3's "Builtin BytecodeMethodDef inlines a pre-supplied bytecode
// emitter, bypassing invocation".
func installBoolOperators(arena *Arena[*TypeDef], boolIdx Index) {
	def := arena.Get(boolIdx)
	mk := func(name string, arity int) *MethodDef {
		md := &MethodDef{Kind: MethodBytecode, Name: name, Owner: boolIdx, BodyState: BodyResolved}
		md.Signature.RuntimeName = name
		for i := 0; i < arity; i++ {
			md.Signature.Params = append(md.Signature.Params, Field{Name: "x", Type: boolIdx})
		}
		md.Signature.Ret = boolIdx
		return md
	}
	def.Methods = append(def.Methods, mk("add", 1), mk("mul", 1), mk("not", 0))
}

func basic(arena *Arena[*TypeDef], name, runtimeName string, slots int, descriptor string) Index {
	return arena.Add(&TypeDef{
		Kind:            KindBasicBuiltin,
		Name:            name,
		RuntimeName:     runtimeName,
		Descriptor:      []string{descriptor},
		StackSlots:      slots,
		IsReferenceType: false,
		Supertype:       InvalidIndex,
	})
}

// RegisterBuiltins populates arena with every built-in basic type and
// returns the handle set the resolver/checker consult by name.
func RegisterBuiltins(arena *Arena[*TypeDef]) *Builtins {
	b := &Builtins{names: make(map[string]Index)}

	b.Bool = basic(arena, "bool", "Z", 1, "Z")
	installBoolOperators(arena, b.Bool)
	b.I8 = basic(arena, "i8", "B", 1, "B")
	b.I16 = basic(arena, "i16", "S", 1, "S")
	b.I32 = basic(arena, "i32", "I", 1, "I")
	b.I64 = basic(arena, "i64", "J", 2, "J")
	b.F32 = basic(arena, "f32", "F", 1, "F")
	b.F64 = basic(arena, "f64", "D", 2, "D")
	b.IntLiteral = basic(arena, "<int-literal>", "I", 1, "I")

	b.Object = arena.Add(&TypeDef{
		Kind:            KindReflectedBuiltin,
		Name:            "object",
		RuntimeName:     "java/lang/Object",
		Descriptor:      []string{"Ljava/lang/Object;"},
		StackSlots:      1,
		IsReferenceType: true,
		Supertype:       InvalidIndex,
	})
	b.String = arena.Add(&TypeDef{
		Kind:            KindReflectedBuiltin,
		Name:            "string",
		RuntimeName:     "java/lang/String",
		Descriptor:      []string{"Ljava/lang/String;"},
		StackSlots:      1,
		IsReferenceType: true,
		Supertype:       b.Object,
	})

	b.Print = arena.Add(&TypeDef{
		Kind:        KindBasicBuiltin,
		Name:        "<print>",
		RuntimeName: "",
		Supertype:   InvalidIndex,
	})

	b.Option = NewFactory(func(args []Index) *TypeDef {
		inner := args[0]
		return &TypeDef{
			Kind:            KindGenericInstance,
			Name:            "Option",
			RuntimeName:     "Option",
			StackSlots:      1,
			IsReferenceType: true,
			Supertype:       b.Object,
			GenericArgs:     []Index{inner},
		}
	})

	for name, idx := range map[string]Index{
		"bool": b.Bool, "i8": b.I8, "i16": b.I16, "i32": b.I32, "i64": b.I64,
		"f32": b.F32, "f64": b.F64, "object": b.Object, "string": b.String,
		"print": b.Print,
	} {
		b.names[name] = idx
	}
	// "option" has no single Index (it's a generic factory, specialized
	// per type argument); it's listed separately so resolver stubs still
	// mint a scope entry for the bare name, and Run special-cases it.
	b.names["option"] = InvalidIndex

	return b
}

// Lookup returns the Index of the named built-in, if any. "option" always
// reports InvalidIndex with ok=true; callers that need Option's factory
// use Builtins.Option directly.
func (b *Builtins) Lookup(name string) (Index, bool) {
	idx, ok := b.names[name]
	return idx, ok
}

// Register adds a name->Index entry minted after RegisterBuiltins ran,
// for pkg/hostbridge to expose a bridged class under its Snuggle name the
// same way a basic builtin is looked up: the checker's DefBuiltin case in
// (*Checker).Run calls Lookup uniformly for both.
func (b *Builtins) Register(name string, idx Index) {
	b.names[name] = idx
}

// Names lists every builtin registered by name, for pkg/resolve to mint
// matching stub entries in its own (differently-typed) arena — see
// (*resolve.Resolver).RegisterBuiltins.
func (b *Builtins) Names() []string {
	out := make([]string, 0, len(b.names))
	for name := range b.names {
		out = append(out, name)
	}
	return out
}
