package driver

import (
	"strings"
	"testing"

	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/ir"
)

func compileSrc(t *testing.T, src string) *Result {
	t.Helper()
	res := Compile("main.sn", []byte(src), MapLoader{}, config.Default())
	if !res.Bag.Empty() {
		t.Fatalf("unexpected errors: %s", res.Bag.Error())
	}
	return res
}

func findMethod(t *testing.T, prog *ir.Program, typeName, methodName string) *ir.GeneratedMethod {
	t.Helper()
	for _, gt := range prog.Types {
		if gt.RuntimeName != typeName {
			continue
		}
		for i := range gt.Methods {
			if gt.Methods[i].RuntimeName == methodName {
				return &gt.Methods[i]
			}
		}
	}
	t.Fatalf("method %s.%s not found in %d types", typeName, methodName, len(prog.Types))
	return nil
}

// Spec §8 scenario 2: boolean builtins lower to the inlined bytecode
// sequences installed by lower.InstallBuiltinOperators.
func TestBooleanBuiltinsLowerToInlineBytecode(t *testing.T) {
	res := compileSrc(t, `
class Main {
    static fn run() {
        let a = true.add(false)
        let b = true.mul(false)
        let c = true.not()
    }
}
`)
	m := findMethod(t, res.Program, "Main", "run")
	if m.BodyKind != ir.BodyInstructions {
		t.Fatalf("expected run to have an instruction body, got %v", m.BodyKind)
	}

	var sawIOR, sawIAND, sawIXOR bool
	for _, instr := range m.Body.Instrs() {
		if instr.Op != ir.OpBytecodes || instr.Emit == nil {
			continue
		}
		b := ir.NewBuilder()
		instr.Emit(b)
		for _, inner := range b.Instrs() {
			switch inner.PushValue {
			case "IOR":
				sawIOR = true
			case "IAND":
				sawIAND = true
			case "IXOR":
				sawIXOR = true
			}
		}
	}
	if !sawIOR {
		t.Error("expected true.add(false) to emit IOR")
	}
	if !sawIAND {
		t.Error("expected true.mul(false) to emit IAND")
	}
	if !sawIXOR {
		t.Error("expected true.not() to emit IXOR")
	}
}

// Spec §8 scenario 3: a 3-field struct return stores the trailing two
// leaves to static return channels and returns the first leaf normally.
func TestPluralReturnUsesStaticChannels(t *testing.T) {
	res := compileSrc(t, `
struct Triple {
    a: i32
    b: i32
    c: i32
}
class Main {
    static fn make(): Triple {
        return Triple(1, 2, 3)
    }
}
`)
	m := findMethod(t, res.Program, "Main", "make")
	var putStatics []string
	var sawReturn bool
	for _, instr := range m.Body.Instrs() {
		switch instr.Op {
		case ir.OpPutStaticField:
			putStatics = append(putStatics, instr.Field.RuntimeName)
		case ir.OpReturn:
			sawReturn = true
		}
	}
	if len(putStatics) != 2 {
		t.Fatalf("expected 2 PutStaticField instructions for the trailing leaves, got %d (%v)", len(putStatics), putStatics)
	}
	for _, name := range putStatics {
		if !strings.HasPrefix(name, "RETURN! ") {
			t.Errorf("expected return-channel field name to start with %q, got %q", "RETURN! ", name)
		}
	}
	if !sawReturn {
		t.Error("expected a single Return instruction for the first leaf")
	}

	var triple *ir.GeneratedType
	for _, gt := range res.Program.Types {
		if gt.RuntimeName == "Triple" {
			triple = gt
		}
	}
	if triple == nil {
		t.Fatal("Triple value-type not emitted")
	}
	if len(triple.ReturningFields) != 2 {
		t.Fatalf("expected Triple to declare 2 returning fields, got %d", len(triple.ReturningFields))
	}
}

// Spec §8 scenario 4: two classes with fields referencing each other in
// the same file must both resolve and type-check without overflow.
func TestCyclicFieldReferencesResolveAndCheck(t *testing.T) {
	res := compileSrc(t, `
class A {
    b: B
}
class B {
    a: A
}
`)
	if res.Program == nil {
		t.Fatal("expected a compiled program")
	}
	names := map[string]bool{}
	for _, gt := range res.Program.Types {
		names[gt.RuntimeName] = true
	}
	if !names["A"] || !names["B"] {
		t.Fatalf("expected both A and B to be emitted, got %v", names)
	}
}

// Spec §8 scenario 6: overloaded methods are disambiguated by a
// zero-based `$N` suffix in source order.
func TestMethodNameDisambiguation(t *testing.T) {
	res := compileSrc(t, `
class C {
    fn f(x: i32) { }
    fn f(x: bool) { }
}
`)
	var c *ir.GeneratedType
	for _, gt := range res.Program.Types {
		if gt.RuntimeName == "C" {
			c = gt
		}
	}
	if c == nil {
		t.Fatal("C not emitted")
	}
	var names []string
	for _, m := range c.Methods {
		names = append(names, m.RuntimeName)
	}
	hasF, hasF1 := false, false
	for _, n := range names {
		if n == "f" {
			hasF = true
		}
		if n == "f$1" {
			hasF1 = true
		}
	}
	if !hasF || !hasF1 {
		t.Fatalf("expected runtime names f and f$1 in source order, got %v", names)
	}
}

// Spec §8 scenario 1 + generic-specialization canonicity: a generic
// static method specialized at the same argument twice reuses the cached
// specialization rather than re-emitting a distinct method body.
func TestGenericStaticMethodSpecializesOnce(t *testing.T) {
	res := compileSrc(t, `
class C {
    static fn id<T>(x: T): T { x }
}
class Main {
    static fn run(): i32 {
        let a = C.id::<i32>(7)
        let b = C.id::<i32>(9)
        a
    }
}
`)
	var c *ir.GeneratedType
	for _, gt := range res.Program.Types {
		if gt.RuntimeName == "C" {
			c = gt
		}
	}
	if c == nil {
		t.Fatal("C not emitted")
	}
	count := 0
	for _, m := range c.Methods {
		if m.RuntimeName == "id" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one emitted specialization of id<i32>, got %d", count)
	}
}

// Reports a type error through the Bag instead of panicking.
func TestTypeMismatchIsReportedNotPanicked(t *testing.T) {
	bag := Compile("main.sn", []byte(`
class Main {
    static fn run(): i32 {
        true
    }
}
`), MapLoader{}, config.Default()).Bag
	if bag.Empty() {
		t.Fatal("expected a type mismatch error")
	}
}
