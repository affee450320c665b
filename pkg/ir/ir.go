// Package ir implements spec §3's "IR" and §6's instruction vocabulary: a
// stack-machine instruction stream plus the generated-type/Program shapes
// the writer serializes. Grounded additionally on the other example repo
// Hassandahiru-Compiler-in-Go's internal/ir package for the
// closed-instruction-enum-plus-builder idiom (a single Instr struct
// discriminated by Op, appended through a Builder) — that repo's IR is a three-address
// SSA form, ours is the stack-machine form spec §6 actually names, so only
// the *shape* of "closed enum of instruction structs" is borrowed, not its
// operand model.
package ir

import "fmt"

// Op is the closed instruction vocabulary named in spec §6.
type Op int

const (
	OpCodeBlock Op = iota
	OpBytecodes
	OpRunImport
	OpCallVirtual
	OpCallStatic
	OpCallSpecial
	OpCallInterface
	OpReturn
	OpLabel
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse
	OpPush
	OpPop
	OpSwapBasic
	OpNewRefAndDup
	OpDupRef
	OpLoadRefType
	OpStoreLocal
	OpLoadLocal
	OpGetReferenceTypeField
	OpPutReferenceTypeField
	OpGetStaticField
	OpPutStaticField
)

func (op Op) String() string {
	switch op {
	case OpCodeBlock:
		return "CodeBlock"
	case OpBytecodes:
		return "Bytecodes"
	case OpRunImport:
		return "RunImport"
	case OpCallVirtual:
		return "MethodCall.Virtual"
	case OpCallStatic:
		return "MethodCall.Static"
	case OpCallSpecial:
		return "MethodCall.Special"
	case OpCallInterface:
		return "MethodCall.Interface"
	case OpReturn:
		return "Return"
	case OpLabel:
		return "Label"
	case OpJump:
		return "Jump"
	case OpJumpIfTrue:
		return "JumpIfTrue"
	case OpJumpIfFalse:
		return "JumpIfFalse"
	case OpPush:
		return "Push"
	case OpPop:
		return "Pop"
	case OpSwapBasic:
		return "SwapBasic"
	case OpNewRefAndDup:
		return "NewRefAndDup"
	case OpDupRef:
		return "DupRef"
	case OpLoadRefType:
		return "LoadRefType"
	case OpStoreLocal:
		return "StoreLocal"
	case OpLoadLocal:
		return "LoadLocal"
	case OpGetReferenceTypeField:
		return "GetReferenceTypeField"
	case OpPutReferenceTypeField:
		return "PutReferenceTypeField"
	case OpGetStaticField:
		return "GetStaticField"
	case OpPutStaticField:
		return "PutStaticField"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// FieldRef names a field for Get/PutReferenceTypeField and the static
// channel opcodes: an owner runtime name, the JVM-style descriptor of the
// field's value, and the mangled runtime field name (spec §4.3 "field
// access on a reference receiver ... reads every leaf by name-mangled
// field name").
type FieldRef struct {
	Owner       string
	Descriptor  string
	RuntimeName string
}

// Instr is one instruction. Not every field applies to every Op; unused
// fields are left zero. A single struct (rather than one type per opcode)
// keeps the lowerer's emission code terse, matching spec §6's flat
// vocabulary listing and the streaming/pull-based emission model (Design
// Notes §9) where the consumer only switches on Op.
type Instr struct {
	Op Op

	// CodeBlock / RunImport
	File string

	// Bytecodes: Cost is instruction-count bookkeeping only (spec never
	// prescribes real JVM stack-depth accounting for this rewrite); Emit
	// is the inline emitter closure itself, set by hostbridge/builtins.
	Cost int
	Emit func(sink *Builder)

	// MethodCall.*
	MethodOwner  string
	MethodName   string
	MethodDesc   string // "(descriptors)ret"
	IsCtor       bool

	// Return
	RetDescriptor string // "" for bare return

	// Label / Jump / JumpIfTrue / JumpIfFalse
	Target string

	// Push
	PushValue interface{}
	PushType  string // descriptor fragment

	// Pop
	PopType string

	// SwapBasic
	SwapTop    string
	SwapSecond string

	// NewRefAndDup / LoadRefType
	RefType string

	// StoreLocal / LoadLocal
	LocalIndex int
	LocalType  string

	// GetReferenceTypeField / PutReferenceTypeField / GetStaticField / PutStaticField
	Field FieldRef
}

func (i Instr) String() string {
	switch i.Op {
	case OpLabel, OpJump, OpJumpIfTrue, OpJumpIfFalse:
		return fmt.Sprintf("%s %s", i.Op, i.Target)
	case OpPush:
		return fmt.Sprintf("Push(%v: %s)", i.PushValue, i.PushType)
	case OpStoreLocal, OpLoadLocal:
		return fmt.Sprintf("%s(#%d: %s)", i.Op, i.LocalIndex, i.LocalType)
	case OpGetReferenceTypeField, OpPutReferenceTypeField, OpGetStaticField, OpPutStaticField:
		return fmt.Sprintf("%s(%s.%s)", i.Op, i.Field.Owner, i.Field.RuntimeName)
	case OpCallVirtual, OpCallStatic, OpCallSpecial, OpCallInterface:
		return fmt.Sprintf("%s(%s.%s%s)", i.Op, i.MethodOwner, i.MethodName, i.MethodDesc)
	default:
		return i.Op.String()
	}
}
