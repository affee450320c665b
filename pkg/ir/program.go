package ir

// GeneratedKind discriminates the "generated types" sum type (spec §3
// "A Program holds a list of generated types ... class, value-type ...,
// func-type (interface), and func-impl (closure body)").
type GeneratedKind int

const (
	GenClass GeneratedKind = iota
	GenValueType
	GenFuncType
	GenFuncImpl
)

// GeneratedField is one emitted field (spec §6 "generated fields — each
// with a runtimeStatic flag and runtimeName distinct from the Snuggle
// source name").
type GeneratedField struct {
	RuntimeName  string
	Descriptor   string
	RuntimeStatic bool
}

// MethodBodyKind discriminates how a generated method's body is carried.
type MethodBodyKind int

const (
	BodyInstructions MethodBodyKind = iota // ordinary Snuggle method
	BodyCustom                              // emitted inline (BytecodeMethodDef), marker only
	BodyInterface                           // abstract slot, no body
)

// GeneratedMethod is one emitted method (spec §3 "each generated method
// carries either a user body ... or a marker for custom/interface
// methods").
type GeneratedMethod struct {
	RuntimeName string
	Descriptor  string // "(params)ret"
	IsStatic    bool
	BodyKind    MethodBodyKind
	Body        *Builder // non-nil only for BodyInstructions
}

// GeneratedType is one emitted class/value-type/func-type/func-impl.
type GeneratedType struct {
	Kind GeneratedKind

	RuntimeName    string
	SupertypeName  string // "" if none
	Fields         []GeneratedField
	Methods        []GeneratedMethod

	// ReturningFields enumerates the static return channels used to carry
	// plural returns for this value-type (spec §6 "for value types, an
	// additional returning fields list"); empty for non-value-types.
	ReturningFields []GeneratedField

	// IsInterface marks a GenFuncType (closure interface); its single
	// method is an abstract slot implemented by every GenFuncImpl that
	// targets it.
	IsInterface bool
}

// Program is the lowerer's full output (spec §3 "A Program holds a list of
// generated types and a mapping from file-name to its top-level
// instruction block").
type Program struct {
	Types     []*GeneratedType
	TopLevel  map[string]*Builder // file name -> top-level instruction block
	fileOrder []string
}

func NewProgram() *Program {
	return &Program{TopLevel: make(map[string]*Builder)}
}

func (p *Program) AddType(t *GeneratedType) {
	p.Types = append(p.Types, t)
}

func (p *Program) SetTopLevel(file string, b *Builder) {
	if _, exists := p.TopLevel[file]; !exists {
		p.fileOrder = append(p.fileOrder, file)
	}
	p.TopLevel[file] = b
}

// FileOrder returns file names in the order their top-level blocks were
// first registered, so the writer emits a deterministic container.
func (p *Program) FileOrder() []string {
	return p.fileOrder
}
