// Package resolve implements spec §4.1: the two-phase name resolver that
// turns a parsed ast.File into a resolved AST where every type
// identifier has become a direct handle (types.Indirection) to a
// to-be-typed TypeDef.
package resolve

import (
	"github.com/snuggle-lang/snugglec/pkg/source"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// TypeRef is a resolved type reference: spec §4.1.5's resolveType result,
// recursive for generics/tuples/functions, preserving parameter indices
// for type- and method-generics.
type TypeRef interface {
	typeRefNode()
}

// NamedRef points directly at a (possibly still-unfulfilled) Indirection,
// for a plain type name with no generic arguments of its own.
type NamedRef struct {
	Ind  types.Indirection
	Name string
}

func (NamedRef) typeRefNode() {}

// GenericParamRef names a type- or method-level generic parameter by its
// declared position, not by Indirection — generic parameters aren't
// resolved to a TypeDef until specialization (pkg/check).
type GenericParamRef struct {
	Name     string
	Index    int
	IsMethod bool // true if this is one of the enclosing method's own generics
}

func (GenericParamRef) typeRefNode() {}

// InstantiationRef is Base<Args...>.
type InstantiationRef struct {
	Base TypeRef
	Args []TypeRef
}

func (InstantiationRef) typeRefNode() {}

type TupleRef struct {
	Elems []TypeRef
}

func (TupleRef) typeRefNode() {}

type FuncRef struct {
	Params []TypeRef
	Ret    TypeRef
}

func (FuncRef) typeRefNode() {}

// ---------------------------------------------------------------------
// Resolved expressions
// ---------------------------------------------------------------------

type Expr interface {
	Loc() source.Location
	resolvedExprNode()
}

type Block struct {
	Location source.Location
	Elements []Node // Expr or *TypeDef
}

func (b *Block) Loc() source.Location { return b.Location }
func (*Block) resolvedExprNode()      {}

// Node is either a resolved Expr or a resolved *TypeDef, preserving the
// parsed AST's interleaving of expressions and type-defs within a block.
type Node interface {
	Loc() source.Location
}

type ImportExpr struct {
	Location source.Location
	Path     string
	Exposed  map[string]types.Indirection
}

func (i *ImportExpr) Loc() source.Location { return i.Location }
func (*ImportExpr) resolvedExprNode()      {}

type Literal struct {
	Location source.Location
	Kind     int // mirrors ast.LiteralKind
	Text     string
}

func (l *Literal) Loc() source.Location { return l.Location }
func (*Literal) resolvedExprNode()       {}

// Variable is an as-yet-unresolved value identifier: local-binding
// resolution happens during type checking (pattern environments live
// there, not in the name resolver — see spec §4.2).
type Variable struct {
	Location source.Location
	Name     string
}

func (v *Variable) Loc() source.Location { return v.Location }
func (*Variable) resolvedExprNode()      {}

// StaticFieldAccess/StaticMethodCall are produced when the receiver is a
// bare identifier naming a type in scope (spec §4.1.3).
type StaticFieldAccess struct {
	Location source.Location
	Type     TypeRef
	Name     string
}

func (f *StaticFieldAccess) Loc() source.Location { return f.Location }
func (*StaticFieldAccess) resolvedExprNode()       {}

type FieldAccess struct {
	Location source.Location
	Receiver Expr
	Name     string
}

func (f *FieldAccess) Loc() source.Location { return f.Location }
func (*FieldAccess) resolvedExprNode()       {}

type StaticMethodCall struct {
	Location source.Location
	Type     TypeRef
	Name     string
	TypeArgs []TypeRef
	Args     []Expr
}

func (m *StaticMethodCall) Loc() source.Location { return m.Location }
func (*StaticMethodCall) resolvedExprNode()       {}

type MethodCall struct {
	Location source.Location
	Receiver Expr
	Name     string
	TypeArgs []TypeRef
	Args     []Expr
}

func (m *MethodCall) Loc() source.Location { return m.Location }
func (*MethodCall) resolvedExprNode()       {}

type SuperCall struct {
	Location source.Location
	Name     string
	Args     []Expr
}

func (s *SuperCall) Loc() source.Location { return s.Location }
func (*SuperCall) resolvedExprNode()       {}

type ConstructorCall struct {
	Location source.Location
	Type     TypeRef
	Args     []Expr
}

func (c *ConstructorCall) Loc() source.Location { return c.Location }
func (*ConstructorCall) resolvedExprNode()       {}

type RawStructConstructor struct {
	Location source.Location
	Type     TypeRef
	Fields   []Expr
}

func (r *RawStructConstructor) Loc() source.Location { return r.Location }
func (*RawStructConstructor) resolvedExprNode()       {}

type TupleExpr struct {
	Location source.Location
	Elems    []Expr
}

func (t *TupleExpr) Loc() source.Location { return t.Location }
func (*TupleExpr) resolvedExprNode()       {}

type Pattern interface {
	Loc() source.Location
	resolvedPatternNode()
}

type BindingPattern struct {
	Location source.Location
	Name     string
	Type     TypeRef // nil means "infer"
}

func (p *BindingPattern) Loc() source.Location { return p.Location }
func (*BindingPattern) resolvedPatternNode()    {}

type TuplePattern struct {
	Location source.Location
	Elems    []Pattern
}

func (p *TuplePattern) Loc() source.Location { return p.Location }
func (*TuplePattern) resolvedPatternNode()    {}

type FalliblePattern struct {
	Location source.Location
	Variant  string
	Inner    Pattern
}

func (p *FalliblePattern) Loc() source.Location { return p.Location }
func (*FalliblePattern) resolvedPatternNode()    {}

type Lambda struct {
	Location source.Location
	Params   []Pattern
	Body     Expr
}

func (l *Lambda) Loc() source.Location { return l.Location }
func (*Lambda) resolvedExprNode()       {}

type Declaration struct {
	Location source.Location
	Pattern  Pattern
	Value    Expr
}

func (d *Declaration) Loc() source.Location { return d.Location }
func (*Declaration) resolvedExprNode()       {}

type Assignment struct {
	Location source.Location
	Target   Expr
	Value    Expr
}

func (a *Assignment) Loc() source.Location { return a.Location }
func (*Assignment) resolvedExprNode()       {}

type Return struct {
	Location source.Location
	Value    Expr
}

func (r *Return) Loc() source.Location { return r.Location }
func (*Return) resolvedExprNode()       {}

type If struct {
	Location source.Location
	Cond     Expr
	Then     Expr
	Else     Expr
}

func (i *If) Loc() source.Location { return i.Location }
func (*If) resolvedExprNode()       {}

type While struct {
	Location source.Location
	Cond     Expr
	Body     Expr
}

func (w *While) Loc() source.Location { return w.Location }
func (*While) resolvedExprNode()       {}

type Paren struct {
	Location source.Location
	Inner    Expr
}

func (p *Paren) Loc() source.Location { return p.Location }
func (*Paren) resolvedExprNode()       {}

// ---------------------------------------------------------------------
// Resolved type-defs
// ---------------------------------------------------------------------

type TypeDefKind int

const (
	DefClass TypeDefKind = iota
	DefStruct
	DefImpl
	DefEnum
	DefAlias
	// DefBuiltin marks a stub TypeDef standing in for a built-in or
	// reflected type (spec §6's "built-in type list must be provided at
	// resolution entry"). The resolver never looks inside a DefBuiltin's
	// Fields/Methods; the checker resolves it by Name against
	// types.Builtins / the reflected-type bridge instead of specializing
	// it structurally.
	DefBuiltin
)

type Field struct {
	Location source.Location
	Name     string
	Type     TypeRef
	IsStatic bool
}

type Param struct {
	Name string
	Type TypeRef
}

type Method struct {
	Location source.Location
	Name     string
	Generics []string
	Params   []Param
	Ret      TypeRef // nil means "infer from body"
	Body     Expr    // nil for interface/abstract methods
	IsStatic bool
	IsConst  bool
}

type EnumVariant struct {
	Name   string
	Fields []Field
}

// TypeDef is the resolved form of a type-def: body resolved, own
// Indirection fulfilled in the arena by the time resolution returns it.
type TypeDef struct {
	Location     source.Location
	Ind          types.Indirection
	Kind         TypeDefKind
	Name         string
	Public       bool
	Generics     []string
	Supertype    TypeRef
	Fields       []Field
	Methods      []Method
	EnumVariants []EnumVariant
	AliasTarget  TypeRef
	ImplTarget   TypeRef
}

func (t *TypeDef) Loc() source.Location { return t.Location }

// File is one resolved source file: its top-level block plus the set of
// type-defs it exposes publicly (spec §4.1 "Output: ... per file, the set
// of public type-defs it exposes").
type File struct {
	Name    string
	Top     *Block
	Exposed map[string]types.Indirection
}
