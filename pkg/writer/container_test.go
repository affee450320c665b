package writer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snuggle-lang/snugglec/pkg/ir"
)

func sampleProgram() *ir.Program {
	prog := ir.NewProgram()

	b := ir.NewBuilder()
	b.Append(ir.Instr{Op: ir.OpPush, PushValue: int64(7), PushType: "I"})
	b.Append(ir.Instr{Op: ir.OpReturn, RetDescriptor: "I"})

	prog.AddType(&ir.GeneratedType{
		Kind:        ir.GenClass,
		RuntimeName: "C",
		Fields:      []ir.GeneratedField{{RuntimeName: "x", Descriptor: "I"}},
		Methods: []ir.GeneratedMethod{
			{RuntimeName: "id", Descriptor: "(I)I", IsStatic: true, BodyKind: ir.BodyInstructions, Body: b},
			{RuntimeName: "raw", Descriptor: "(I)I", BodyKind: ir.BodyCustom},
		},
	})
	prog.SetTopLevel("main", b)
	return prog
}

func TestWrite_RoundTripsMagicAndCounts(t *testing.T) {
	prog := sampleProgram()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, prog))

	data := buf.Bytes()
	require.GreaterOrEqual(t, len(data), 6)
	assert.Equal(t, []byte{0x53, 0x57, 0x4c, 0x31}, data[:4], "container must start with the SWL1 magic")
}

func TestWrite_Deterministic(t *testing.T) {
	prog := sampleProgram()
	var a, b bytes.Buffer
	require.NoError(t, Write(&a, prog))
	require.NoError(t, Write(&b, sampleProgram()))
	assert.Equal(t, a.Bytes(), b.Bytes(), "identical programs must serialize to identical bytes")
}

func TestSortedTypeNames(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddType(&ir.GeneratedType{RuntimeName: "Zebra"})
	prog.AddType(&ir.GeneratedType{RuntimeName: "Apple"})
	assert.Equal(t, []string{"Apple", "Zebra"}, SortedTypeNames(prog))
}

func TestDumpGoStub_ContainsTypeAndMethodNames(t *testing.T) {
	prog := sampleProgram()
	out, err := DumpGoStub(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "package snugglestub")
	assert.Contains(t, out, "C")
	assert.Contains(t, out, "id")
}
