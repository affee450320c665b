// Package hostbridge implements spec §4.4: the reflected-type bridge that
// surfaces a host-language class as a Snuggle TypeDef and synthesizes
// method-emission thunks.
//
// Design Notes §9 resolves the host mismatch this port faces: the
// original targets a JVM-family VM from a JVM-family host language, where
// "reflection" means walking live annotations on a loaded class. Here the
// implementation host (Go) has no relationship to the target VM host at
// all, so "reflection" becomes a build-time registry: ClassSpec/MethodSpec
// are manually authored tables, not discovered via the reflect package.
// Annotation semantics (SnuggleAllow, SnuggleDeny, SnuggleRename,
// SnuggleStatic, SnuggleAcknowledgeGenerics) are represented as struct
// fields on ClassSpec/MethodSpec rather than read off live reflection.
package hostbridge

import (
	"fmt"

	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/source"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// Visibility mirrors the SnuggleAllow/SnuggleDeny annotation pair.
type Visibility int

const (
	Allow Visibility = iota
	Deny
)

// MethodSpec describes one bridged method (spec §4.4 "Method synthesis").
type MethodSpec struct {
	// SnuggleName is the name Snuggle source sees; Rename implements
	// SnuggleRename when non-empty, otherwise HostName is reused.
	SnuggleName string
	Rename      string
	HostName    string
	Visibility  Visibility

	IsStatic bool
	Params   []types.Index
	Ret      types.Index

	// HostDescriptor is the JVM-style descriptor used when emitting the
	// INVOKESTATIC/INVOKEVIRTUAL instruction (owner.HostName + descriptor).
	HostDescriptor string
}

func (m MethodSpec) name() string {
	if m.Rename != "" {
		return m.Rename
	}
	return m.SnuggleName
}

// ClassSpec describes one bridged host class.
type ClassSpec struct {
	SnuggleName string
	RuntimeName string // host-qualified class name, e.g. "java/util/ArrayList"
	Visibility  Visibility
	Rename      string

	// TypeParams > 0 requires AcknowledgeGenerics (spec §4.4 invariant "A
	// class with type parameters must be SnuggleAcknowledgeGenerics or the
	// bridge refuses it"); erased on specialization regardless (spec §1
	// Non-goals: "language-level generics over the host type system").
	TypeParams        int
	AcknowledgeGenerics bool

	// IsStatic/StaticField implement SnuggleStatic singleton mode: a
	// process-wide instance lives in a well-known static field of the
	// runtime class.
	IsStatic    bool
	StaticField string

	Supertype types.Index

	Methods []MethodSpec
}

func (c ClassSpec) name() string {
	if c.Rename != "" {
		return c.Rename
	}
	return c.SnuggleName
}

// Bridge owns every class registered into one compile's arena.
type Bridge struct {
	arena *types.Arena[*types.TypeDef]
	cfg   AcknowledgeGenericsDefault
	bag   *diagnostics.Bag
	byIdx map[string]types.Index
}

// AcknowledgeGenericsDefault mirrors config.BridgeConfig.AcknowledgeGenericsDefault,
// named locally so pkg/hostbridge does not need to import pkg/config for a
// single bool.
type AcknowledgeGenericsDefault bool

func New(arena *types.Arena[*types.TypeDef], acknowledgeGenericsDefault bool, bag *diagnostics.Bag) *Bridge {
	return &Bridge{arena: arena, cfg: AcknowledgeGenericsDefault(acknowledgeGenericsDefault), bag: bag, byIdx: map[string]types.Index{}}
}

// Register validates spec's invariants and installs spec as a
// KindReflectedBuiltin TypeDef. Validation failures are fatal at
// bridge-construction time, never per-expression (spec §7 "Host-reflection
// validation errors at bridge-construction time are fatal at compiler
// start-up, not per-expression").
func (br *Bridge) Register(spec ClassSpec) (types.Index, error) {
	if spec.TypeParams > 0 && !spec.AcknowledgeGenerics && !bool(br.cfg) {
		return types.InvalidIndex, fmt.Errorf("hostbridge: class %q has %d type parameter(s) but is not SnuggleAcknowledgeGenerics", spec.SnuggleName, spec.TypeParams)
	}
	if spec.IsStatic && spec.StaticField == "" {
		return types.InvalidIndex, fmt.Errorf("hostbridge: class %q is SnuggleStatic but names no static instance field", spec.SnuggleName)
	}
	if !spec.IsStatic && spec.StaticField != "" {
		return types.InvalidIndex, fmt.Errorf("hostbridge: class %q names a static instance field without SnuggleStatic", spec.SnuggleName)
	}
	if spec.TypeParams > 0 && !spec.AcknowledgeGenerics && br.bag != nil {
		br.bag.Add(diagnostics.New(diagnostics.TypeError, source.Location{}, "hostbridge: class %q has %d type parameter(s) without SnuggleAcknowledgeGenerics; accepted and erased", spec.SnuggleName, spec.TypeParams).AsWarning())
	}

	def := &types.TypeDef{
		Kind:            types.KindReflectedBuiltin,
		Name:            spec.name(),
		RuntimeName:     spec.RuntimeName,
		Descriptor:      []string{"L" + spec.RuntimeName + ";"},
		StackSlots:      1,
		IsReferenceType: true,
		Supertype:       spec.Supertype,
		ReflectedClass: &types.ReflectedClass{
			RuntimeName:          spec.RuntimeName,
			StaticField:          spec.StaticField,
			IsSingleton:          spec.IsStatic,
			AcknowledgedGenerics: spec.AcknowledgeGenerics,
		},
	}

	// "Fields are not exposed for static classes (current restriction)" —
	// spec §4.4 invariant; non-static fields aren't modeled in ClassSpec at
	// all yet (no bridged class in this repo's registry needs instance
	// field access), so there is nothing to filter here beyond documenting
	// the restriction.

	for _, ms := range spec.Methods {
		if ms.Visibility == Deny {
			continue
		}
		def.Methods = append(def.Methods, br.synthesizeMethod(spec, ms))
	}

	idx := br.arena.Add(def)
	br.byIdx[spec.SnuggleName] = idx
	return idx, nil
}

// synthesizeMethod builds a BytecodeMethodDef per spec §4.4's "Method
// synthesis": a pre-body GETSTATIC of the singleton instance field (when
// in singleton mode and the method is non-static) followed by the
// INVOKESTATIC/INVOKEVIRTUAL the host descriptor calls for.
func (br *Bridge) synthesizeMethod(cls ClassSpec, ms MethodSpec) *types.MethodDef {
	md := &types.MethodDef{Kind: types.MethodBytecode, Name: ms.name(), BodyState: types.BodyResolved}
	md.Signature.RuntimeName = ms.HostName
	for i, p := range ms.Params {
		md.Signature.Params = append(md.Signature.Params, types.Field{Name: fmt.Sprintf("a%d", i), Type: p})
	}
	md.Signature.Ret = ms.Ret

	invoke := ir.OpCallStatic
	if !ms.IsStatic {
		invoke = ir.OpCallVirtual
	}
	singleton := cls.IsStatic && !ms.IsStatic
	md.BytecodeEmit = func(sink types.InstrSink) {
		if singleton {
			sink.Emit(ir.Instr{Op: ir.OpGetStaticField, Field: ir.FieldRef{
				Owner: cls.RuntimeName, Descriptor: "L" + cls.RuntimeName + ";", RuntimeName: cls.StaticField,
			}})
		}
		sink.Emit(ir.Instr{Op: invoke, MethodOwner: cls.RuntimeName, MethodName: ms.HostName, MethodDesc: ms.HostDescriptor})
	}
	return md
}

// Lookup returns the Index a previously registered class was installed
// at, for wiring the checker's resolver-builtin table.
func (br *Bridge) Lookup(snuggleName string) (types.Index, bool) {
	idx, ok := br.byIdx[snuggleName]
	return idx, ok
}

// validationError is a convenience constructor matching the Error shape
// spec §7 requires for every compiler error, for rendering a Register
// failure the same way as any other diagnostics.Error even though bridge
// validation has no source location. Nothing calls it at present; the
// driver wraps Register failures with diagnostics.Internal instead.
func validationError(msg string) *diagnostics.Error {
	return diagnostics.New(diagnostics.InternalError, source.Location{}, "%s", msg)
}
