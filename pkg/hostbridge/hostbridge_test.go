package hostbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

func TestRegister_InstanceClass(t *testing.T) {
	arena := types.NewArena[*types.TypeDef]()
	bag := &diagnostics.Bag{}
	br := New(arena, false, bag)

	str := arena.Add(&types.TypeDef{Kind: types.KindReflectedBuiltin, Name: "string", RuntimeName: "java/lang/String"})

	idx, err := br.Register(ClassSpec{
		SnuggleName: "StringBuilder",
		RuntimeName: "java/lang/StringBuilder",
		Methods: []MethodSpec{
			{SnuggleName: "append", HostName: "append", Params: []types.Index{str}, Ret: types.InvalidIndex, HostDescriptor: "(Ljava/lang/String;)Ljava/lang/StringBuilder;"},
			{SnuggleName: "toString", HostName: "toString", Ret: str, HostDescriptor: "()Ljava/lang/String;"},
			{SnuggleName: "hidden", HostName: "hashCode", Visibility: Deny, Ret: types.InvalidIndex},
		},
	})
	require.NoError(t, err)

	def := arena.Get(idx)
	assert.Equal(t, types.KindReflectedBuiltin, def.Kind)
	assert.True(t, def.IsReferenceType)
	assert.NotNil(t, def.ReflectedClass)
	assert.False(t, def.ReflectedClass.IsSingleton)
	assert.Len(t, def.Methods, 2, "denied method must not be synthesized")

	lookedUp, ok := br.Lookup("StringBuilder")
	assert.True(t, ok)
	assert.Equal(t, idx, lookedUp)

	var appendMD *types.MethodDef
	for _, m := range def.Methods {
		if m.Name == "append" {
			appendMD = m
		}
	}
	require.NotNil(t, appendMD)

	var got []ir.Instr
	sink := sinkFunc(func(i interface{}) { got = append(got, i.(ir.Instr)) })
	appendMD.BytecodeEmit(sink)
	require.Len(t, got, 1)
	assert.Equal(t, ir.OpCallVirtual, got[0].Op)
	assert.Equal(t, "append", got[0].MethodName)
}

func TestRegister_SingletonClass(t *testing.T) {
	arena := types.NewArena[*types.TypeDef]()
	br := New(arena, false, &diagnostics.Bag{})

	idx, err := br.Register(ClassSpec{
		SnuggleName: "Console",
		RuntimeName: "java/lang/System$out$Console",
		IsStatic:    true,
		StaticField: "out",
		Methods: []MethodSpec{
			{SnuggleName: "println", HostName: "println", HostDescriptor: "()V"},
		},
	})
	require.NoError(t, err)

	def := arena.Get(idx)
	require.Len(t, def.Methods, 1)

	var got []ir.Instr
	sink := sinkFunc(func(i interface{}) { got = append(got, i.(ir.Instr)) })
	def.Methods[0].BytecodeEmit(sink)

	require.Len(t, got, 2, "singleton instance method must GETSTATIC before invoking")
	assert.Equal(t, ir.OpGetStaticField, got[0].Op)
	assert.Equal(t, "out", got[0].Field.RuntimeName)
	assert.Equal(t, ir.OpCallVirtual, got[1].Op)
}

func TestRegister_RejectsUnacknowledgedGenerics(t *testing.T) {
	arena := types.NewArena[*types.TypeDef]()
	br := New(arena, false, &diagnostics.Bag{})

	_, err := br.Register(ClassSpec{
		SnuggleName: "Box",
		RuntimeName: "some/generic/Box",
		TypeParams:  1,
	})
	assert.Error(t, err)
}

func TestRegister_StaticFieldPairingInvariants(t *testing.T) {
	arena := types.NewArena[*types.TypeDef]()
	br := New(arena, false, &diagnostics.Bag{})

	_, err := br.Register(ClassSpec{SnuggleName: "A", RuntimeName: "a/A", IsStatic: true})
	assert.Error(t, err, "SnuggleStatic without a static field must be refused")

	_, err = br.Register(ClassSpec{SnuggleName: "B", RuntimeName: "b/B", StaticField: "INSTANCE"})
	assert.Error(t, err, "a non-static class must not carry a static instance field")
}

type sinkFunc func(interface{})

func (f sinkFunc) Emit(i interface{}) { f(i) }
