// Package writer serializes a lowered ir.Program into the on-disk form
// spec §2 (SPEC_FULL §4.5) calls a "minimal deterministic versioned binary
// container ... standing in for class files". It is not a real JVM
// `.class` encoder — no pack example targets JVM class files, so this part
// is grounded loosely on the shape of a linker/object writer (a magic
// header, a version word, then one length-prefixed record per generated
// type) rather than on any one example repo, and is stdlib-only
// (encoding/binary, bufio) because nothing in the corpus does binary
// container writing; see DESIGN.md.
package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/snuggle-lang/snugglec/pkg/ir"
)

const (
	magic   uint32 = 0x53574c31 // "SWL1"
	version uint16 = 1
)

// Write serializes prog deterministically: types in the order
// prog.Types holds them (the lowerer always walks the arena
// front-to-back, so that order is itself stable across runs of the same
// source), and top-level file blocks in prog.FileOrder().
func Write(w io.Writer, prog *ir.Program) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, version); err != nil {
		return err
	}

	if err := writeUvarint(bw, uint64(len(prog.Types))); err != nil {
		return err
	}
	for _, t := range prog.Types {
		if err := writeType(bw, t); err != nil {
			return fmt.Errorf("writer: type %s: %w", t.RuntimeName, err)
		}
	}

	files := prog.FileOrder()
	if err := writeUvarint(bw, uint64(len(files))); err != nil {
		return err
	}
	for _, name := range files {
		b := prog.TopLevel[name]
		if err := writeString(bw, name); err != nil {
			return err
		}
		instrs := b.Instrs()
		if err := writeUvarint(bw, uint64(len(instrs))); err != nil {
			return err
		}
		for _, in := range instrs {
			if err := writeInstr(bw, in); err != nil {
				return fmt.Errorf("writer: top-level %s: %w", name, err)
			}
		}
	}

	return bw.Flush()
}

func writeType(w *bufio.Writer, t *ir.GeneratedType) error {
	if err := writeUvarint(w, uint64(t.Kind)); err != nil {
		return err
	}
	if err := writeString(w, t.RuntimeName); err != nil {
		return err
	}
	if err := writeString(w, t.SupertypeName); err != nil {
		return err
	}
	if err := writeBool(w, t.IsInterface); err != nil {
		return err
	}

	if err := writeFields(w, t.Fields); err != nil {
		return err
	}
	if err := writeFields(w, t.ReturningFields); err != nil {
		return err
	}

	if err := writeUvarint(w, uint64(len(t.Methods))); err != nil {
		return err
	}
	for _, m := range t.Methods {
		if err := writeMethod(w, m); err != nil {
			return err
		}
	}
	return nil
}

func writeFields(w *bufio.Writer, fs []ir.GeneratedField) error {
	if err := writeUvarint(w, uint64(len(fs))); err != nil {
		return err
	}
	for _, f := range fs {
		if err := writeString(w, f.RuntimeName); err != nil {
			return err
		}
		if err := writeString(w, f.Descriptor); err != nil {
			return err
		}
		if err := writeBool(w, f.RuntimeStatic); err != nil {
			return err
		}
	}
	return nil
}

func writeMethod(w *bufio.Writer, m ir.GeneratedMethod) error {
	if err := writeString(w, m.RuntimeName); err != nil {
		return err
	}
	if err := writeString(w, m.Descriptor); err != nil {
		return err
	}
	if err := writeBool(w, m.IsStatic); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(m.BodyKind)); err != nil {
		return err
	}
	if m.BodyKind != ir.BodyInstructions || m.Body == nil {
		return writeUvarint(w, 0)
	}
	instrs := m.Body.Instrs()
	if err := writeUvarint(w, uint64(len(instrs))); err != nil {
		return err
	}
	for _, in := range instrs {
		if err := writeInstr(w, in); err != nil {
			return err
		}
	}
	return nil
}

// writeInstr serializes the handful of fields an instruction actually
// uses, dispatching on Op. The Emit closure on OpBytecodes instructions is
// never serialized itself: the writer runs it into a scratch builder and
// writes the instructions it produces (the opcode names lower.opcode
// threads through as Push instructions).
func writeInstr(w *bufio.Writer, in ir.Instr) error {
	if err := writeUvarint(w, uint64(in.Op)); err != nil {
		return err
	}
	switch in.Op {
	case ir.OpCodeBlock, ir.OpRunImport:
		return writeString(w, in.File)
	case ir.OpBytecodes:
		inner := ir.NewBuilder()
		if in.Emit != nil {
			in.Emit(inner)
		}
		if err := writeUvarint(w, uint64(inner.Len())); err != nil {
			return err
		}
		for _, sub := range inner.Instrs() {
			if err := writeInstr(w, sub); err != nil {
				return err
			}
		}
		return nil
	case ir.OpCallVirtual, ir.OpCallStatic, ir.OpCallSpecial, ir.OpCallInterface:
		if err := writeString(w, in.MethodOwner); err != nil {
			return err
		}
		if err := writeString(w, in.MethodName); err != nil {
			return err
		}
		if err := writeString(w, in.MethodDesc); err != nil {
			return err
		}
		return writeBool(w, in.IsCtor)
	case ir.OpReturn:
		return writeString(w, in.RetDescriptor)
	case ir.OpLabel, ir.OpJump, ir.OpJumpIfTrue, ir.OpJumpIfFalse:
		return writeString(w, in.Target)
	case ir.OpPush:
		if err := writeString(w, fmt.Sprint(in.PushValue)); err != nil {
			return err
		}
		return writeString(w, in.PushType)
	case ir.OpPop:
		return writeString(w, in.PopType)
	case ir.OpSwapBasic:
		if err := writeString(w, in.SwapTop); err != nil {
			return err
		}
		return writeString(w, in.SwapSecond)
	case ir.OpNewRefAndDup, ir.OpLoadRefType:
		return writeString(w, in.RefType)
	case ir.OpStoreLocal, ir.OpLoadLocal:
		if err := writeUvarint(w, uint64(in.LocalIndex)); err != nil {
			return err
		}
		return writeString(w, in.LocalType)
	case ir.OpGetReferenceTypeField, ir.OpPutReferenceTypeField, ir.OpGetStaticField, ir.OpPutStaticField:
		if err := writeString(w, in.Field.Owner); err != nil {
			return err
		}
		if err := writeString(w, in.Field.Descriptor); err != nil {
			return err
		}
		return writeString(w, in.Field.RuntimeName)
	default:
		return nil
	}
}

func writeUvarint(w *bufio.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func writeString(w *bufio.Writer, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func writeBool(w *bufio.Writer, b bool) error {
	v := byte(0)
	if b {
		v = 1
	}
	return w.WriteByte(v)
}

// SortedTypeNames is a small helper the CLI uses to print a build summary
// in a stable order independent of Program.Types' arena-derived order.
func SortedTypeNames(prog *ir.Program) []string {
	names := make([]string, 0, len(prog.Types))
	for _, t := range prog.Types {
		names = append(names, t.RuntimeName)
	}
	sort.Strings(names)
	return names
}
