package hostbridge

import "github.com/snuggle-lang/snugglec/pkg/types"

// DefaultClasses lists the bridged host classes snugglec ships out of the
// box: a couple of JVM standard-library classes useful from almost any
// Snuggle program, covering both bridge modes named in spec §4.4 — an
// ordinary instance class (StringBuilder) and a SnuggleStatic singleton
// (Console, standing in for System.out). Authored by hand, as spec §4.4
// requires ("a table ... manually authored per bridged class, not
// discovered via reflect").
func DefaultClasses(b *types.Builtins) []ClassSpec {
	str := b.String
	return []ClassSpec{
		{
			SnuggleName: "StringBuilder",
			RuntimeName: "java/lang/StringBuilder",
			Methods: []MethodSpec{
				{SnuggleName: "append", HostName: "append", Params: []types.Index{str}, Ret: types.InvalidIndex, HostDescriptor: "(Ljava/lang/String;)Ljava/lang/StringBuilder;"},
				{SnuggleName: "toString", HostName: "toString", Ret: str, HostDescriptor: "()Ljava/lang/String;"},
			},
		},
		{
			SnuggleName: "Console",
			RuntimeName: "java/io/PrintStream",
			IsStatic:    true,
			StaticField: "out", // java.lang.System.out, by convention of this bridge
			Methods: []MethodSpec{
				{SnuggleName: "println", HostName: "println", Params: []types.Index{str}, Ret: types.InvalidIndex, HostDescriptor: "(Ljava/lang/String;)V"},
			},
		},
	}
}

// DefaultClassNames lists the Snuggle names DefaultClasses will register,
// without requiring a *types.Builtins to already exist. A driver needs
// these names before the type checker's arena (and therefore a
// *types.Builtins) is built at all, to mint matching resolver stubs in
// the same pass that mints "bool", "string", and the rest (spec §6:
// "Built-in type list must be provided at resolution entry ... and any
// reflected types").
func DefaultClassNames() []string {
	return []string{"StringBuilder", "Console"}
}

// RegisterDefaults installs DefaultClasses into br and exposes each under
// its Snuggle name in builtins, returning the names it registered. It runs
// inside the type checker, after resolution; the resolver's matching
// DefBuiltin stubs are minted from DefaultClassNames instead.
func RegisterDefaults(br *Bridge, builtins *types.Builtins) ([]string, error) {
	names := make([]string, 0, 2)
	for _, spec := range DefaultClasses(builtins) {
		idx, err := br.Register(spec)
		if err != nil {
			return nil, err
		}
		builtins.Register(spec.SnuggleName, idx)
		names = append(names, spec.SnuggleName)
	}
	return names, nil
}
