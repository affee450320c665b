package ir

// Builder accumulates instructions for one method body or top-level block.
// It implements types.InstrSink so a pkg/types BytecodeEmitter (declared
// in pkg/types, which cannot import pkg/ir, and supplied by hostbridge and
// pkg/lower) can emit into a concrete builder through the opaque interface
// boundary.
//
// Emission is exposed as a pull-based sequence via Seq, a Go 1.23
// range-over-func iterator — Design Notes §9's "pull-based instruction
// sequence ... corresponds to an iterator/coroutine that the writer
// drains" modeled literally instead of metaphorically. The writer can stop
// iterating early (e.g. counting instructions without materializing all of
// them) by returning false from its yield, same as dropping an iterator.
type Builder struct {
	instrs []Instr
}

func NewBuilder() *Builder { return &Builder{} }

// Emit implements types.InstrSink.
func (b *Builder) Emit(instr interface{}) {
	b.instrs = append(b.instrs, instr.(Instr))
}

// Append is the concretely-typed counterpart used throughout pkg/lower.
func (b *Builder) Append(i Instr) {
	b.instrs = append(b.instrs, i)
}

// Len reports the instruction count emitted so far — cheap because
// emission is streaming into a plain slice, not a tree needing traversal
// (spec §4.3 "downstream filtering/counting is cheap").
func (b *Builder) Len() int {
	return len(b.instrs)
}

// Instrs returns the accumulated instructions. Prefer Seq for a consumer
// that wants to process them one at a time without materializing a full
// copy; Instrs is for callers (tests, the writer's debug dump) that want
// random access.
func (b *Builder) Instrs() []Instr {
	return b.instrs
}

// Seq drains the builder as a pull-based sequence, per Design Notes §9.
func (b *Builder) Seq() func(yield func(Instr) bool) {
	return func(yield func(Instr) bool) {
		for _, i := range b.instrs {
			if !yield(i) {
				return
			}
		}
	}
}
