package lower

import (
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// opcode builds a single Bytecodes(cost, emitter) instruction (spec §6)
// wrapping a fixed opcode-name sequence, for inlining into a caller's
// builder in place of a real invocation (spec §4.3 "Builtin
// BytecodeMethodDef inlines a pre-supplied bytecode emitter, bypassing
// invocation").
func opcode(names ...string) func(sink types.InstrSink) {
	return func(sink types.InstrSink) {
		sink.Emit(ir.Instr{
			Op:   ir.OpBytecodes,
			Cost: len(names),
			Emit: func(b *ir.Builder) {
				for _, n := range names {
					b.Append(ir.Instr{Op: ir.OpPush, PushValue: n, PushType: "opcode"})
				}
			},
		})
	}
}

// InstallBuiltinOperators patches the BytecodeEmit closures for bool's
// add/mul/not methods (declared signature-only in types.RegisterBuiltins,
// spec §8 scenario 2) now that the lowerer is free to construct ir.Instr
// values. Must run once, before any method body is lowered.
func InstallBuiltinOperators(arena *types.Arena[*types.TypeDef], b *types.Builtins) {
	def := arena.Get(b.Bool)
	for _, m := range def.Methods {
		switch m.Name {
		case "add":
			m.BytecodeEmit = opcode("IOR")
		case "mul":
			m.BytecodeEmit = opcode("IAND")
		case "not":
			m.BytecodeEmit = opcode("ICONST_1", "IXOR")
		}
	}
}
