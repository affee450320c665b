// Package ast defines Snuggle's parsed (untyped) AST: spec §3 "Source AST".
//
// Every node carries a source.Location. Type-defs and expressions are
// closed sum types; later passes (resolve, check, lower) build their own
// richer node types rather than mutating these in place, keeping each
// pass's AST an independent value as spec §3 requires.
package ast

import "github.com/snuggle-lang/snugglec/pkg/source"

// Node is implemented by every parsed AST node.
type Node interface {
	Loc() source.Location
}

// ---------------------------------------------------------------------
// Types (as written in source, before resolution)
// ---------------------------------------------------------------------

// Type is a parsed type reference: a bare name, a generic instantiation,
// a tuple, or a function type.
type Type interface {
	Node
	typeNode()
}

type NamedType struct {
	Location source.Location
	Name     string
}

func (t *NamedType) Loc() source.Location { return t.Location }
func (*NamedType) typeNode()              {}

type GenericType struct {
	Location source.Location
	Base     string
	Args     []Type
}

func (t *GenericType) Loc() source.Location { return t.Location }
func (*GenericType) typeNode()              {}

type TupleType struct {
	Location source.Location
	Elems    []Type
}

func (t *TupleType) Loc() source.Location { return t.Location }
func (*TupleType) typeNode()              {}

type FuncType struct {
	Location source.Location
	Params   []Type
	Ret      Type
}

func (t *FuncType) Loc() source.Location { return t.Location }
func (*FuncType) typeNode()              {}

// ---------------------------------------------------------------------
// Patterns (parameter binding forms, spec §4.2 "Pattern inference")
// ---------------------------------------------------------------------

type Pattern interface {
	Node
	patternNode()
}

// BindingPattern is a single `name: Type` binding.
type BindingPattern struct {
	Location source.Location
	Name     string
	Type     Type // may be nil, meaning "infer"
}

func (p *BindingPattern) Loc() source.Location { return p.Location }
func (*BindingPattern) patternNode()            {}

// TuplePattern destructures a tuple into sub-patterns.
type TuplePattern struct {
	Location source.Location
	Elems    []Pattern
}

func (p *TuplePattern) Loc() source.Location { return p.Location }
func (*TuplePattern) patternNode()            {}

// FalliblePattern is a pattern that can fail to match (e.g. an enum-variant
// pattern binding). Spec §4.2: unimplemented, always an error to typecheck.
type FalliblePattern struct {
	Location source.Location
	Variant  string
	Inner    Pattern
}

func (p *FalliblePattern) Loc() source.Location { return p.Location }
func (*FalliblePattern) patternNode()            {}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

type Expr interface {
	Node
	exprNode()
}

type Block struct {
	Location source.Location
	// Elements interleaves expressions and type-defs in source order,
	// per spec §3 "blocks are ordered sequences that may interleave
	// expressions and type-definitions".
	Elements []Node
}

func (b *Block) Loc() source.Location { return b.Location }
func (*Block) exprNode()              {}

type Import struct {
	Location source.Location
	Path     string
}

func (i *Import) Loc() source.Location { return i.Location }
func (*Import) exprNode()              {}

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
)

type Literal struct {
	Location source.Location
	Kind     LiteralKind
	Text     string // raw lexeme, parsed lazily by the checker
}

func (l *Literal) Loc() source.Location { return l.Location }
func (*Literal) exprNode()              {}

type Variable struct {
	Location source.Location
	Name     string
}

func (v *Variable) Loc() source.Location { return v.Location }
func (*Variable) exprNode()              {}

// FieldAccess is ambiguous until resolved: Receiver.Name. The resolver
// decides (spec §4.1.3) whether this becomes a static or virtual access
// based on whether Receiver is a bare identifier naming a type in scope.
type FieldAccess struct {
	Location source.Location
	Receiver Expr
	Name     string
}

func (f *FieldAccess) Loc() source.Location { return f.Location }
func (*FieldAccess) exprNode()              {}

// MethodCall is ambiguous the same way as FieldAccess.
type MethodCall struct {
	Location  source.Location
	Receiver  Expr
	Name      string
	TypeArgs  []Type // explicit `::<T>` generic-method arguments
	Args      []Expr
}

func (m *MethodCall) Loc() source.Location { return m.Location }
func (*MethodCall) exprNode()              {}

// SuperCall is `super.method(args)`. Legal only as a method-call receiver
// per spec §4.1.4; any other occurrence of `super` is a resolve error.
type SuperCall struct {
	Location source.Location
	Name     string
	Args     []Expr
}

func (s *SuperCall) Loc() source.Location { return s.Location }
func (*SuperCall) exprNode()              {}

// SuperKeyword is a bare `super` occurring outside a method-call receiver
// position; always a resolve error when it survives to resolution.
type SuperKeyword struct {
	Location source.Location
}

func (s *SuperKeyword) Loc() source.Location { return s.Location }
func (*SuperKeyword) exprNode()              {}

type ConstructorCall struct {
	Location source.Location
	Type     Type
	Args     []Expr
}

func (c *ConstructorCall) Loc() source.Location { return c.Location }
func (*ConstructorCall) exprNode()              {}

// RawStructConstructor builds a plural/struct value directly from its
// field values, in declared-field order: `S(v1, v2, v3)` for a struct
// type that is not a class. The parser reads that syntax as a
// ConstructorCall; pkg/check turns it into a raw struct construction once
// it knows S is a struct.
type RawStructConstructor struct {
	Location source.Location
	Type     Type
	Fields   []Expr
}

func (r *RawStructConstructor) Loc() source.Location { return r.Location }
func (*RawStructConstructor) exprNode()              {}

type TupleExpr struct {
	Location source.Location
	Elems    []Expr
}

func (t *TupleExpr) Loc() source.Location { return t.Location }
func (*TupleExpr) exprNode()              {}

type Lambda struct {
	Location source.Location
	Params   []Pattern
	Body     Expr
}

func (l *Lambda) Loc() source.Location { return l.Location }
func (*Lambda) exprNode()              {}

type Declaration struct {
	Location source.Location
	Pattern  Pattern
	Value    Expr
}

func (d *Declaration) Loc() source.Location { return d.Location }
func (*Declaration) exprNode()              {}

type Assignment struct {
	Location source.Location
	Target   Expr // Variable or FieldAccess
	Value    Expr
}

func (a *Assignment) Loc() source.Location { return a.Location }
func (*Assignment) exprNode()              {}

type Return struct {
	Location source.Location
	Value    Expr // nil for bare `return`
}

func (r *Return) Loc() source.Location { return r.Location }
func (*Return) exprNode()              {}

type If struct {
	Location source.Location
	Cond     Expr
	Then     Expr
	Else     Expr // nil if no else branch
}

func (i *If) Loc() source.Location { return i.Location }
func (*If) exprNode()              {}

type While struct {
	Location source.Location
	Cond     Expr
	Body     Expr
}

func (w *While) Loc() source.Location { return w.Location }
func (*While) exprNode()              {}

type Paren struct {
	Location source.Location
	Inner    Expr
}

func (p *Paren) Loc() source.Location { return p.Location }
func (*Paren) exprNode()              {}

// ---------------------------------------------------------------------
// Type-definitions
// ---------------------------------------------------------------------

type TypeDefKind int

const (
	DefClass TypeDefKind = iota
	DefStruct
	DefImpl
	DefEnum
	DefAlias
)

type Param struct {
	Name string
	Type Type
}

type MethodDecl struct {
	Location source.Location
	Name     string
	Generics []string // method-level generic parameter names
	Params   []Param
	Ret      Type // nil means inferred from body
	Body     Expr // nil for interface/abstract methods
	IsStatic bool
	IsConst  bool
}

type FieldDecl struct {
	Location source.Location
	Name     string
	Type     Type
	IsStatic bool
}

// TypeDef is a parsed type definition: class, struct, impl block, enum,
// or alias (spec §3).
type TypeDef struct {
	Location   source.Location
	Kind       TypeDefKind
	Name       string
	Public     bool
	Generics   []string // type-level generic parameter names
	Supertype  Type     // primary supertype, nil if none
	Fields     []FieldDecl
	Methods    []MethodDecl
	// EnumVariants holds variant names for DefEnum; each variant may carry
	// associated field types (a plural payload), mirroring a struct.
	EnumVariants []EnumVariant
	// AliasTarget holds the aliased type for DefAlias.
	AliasTarget Type
	// ImplTarget holds the type an impl-block attaches methods to.
	ImplTarget Type
}

func (t *TypeDef) Loc() source.Location { return t.Location }

type EnumVariant struct {
	Name   string
	Fields []FieldDecl
}

// File is the result of parsing one Snuggle source file: its top-level
// block.
type File struct {
	Name string
	Top  *Block
}
