// Package parser is a minimal recursive-descent parser for Snuggle
// source, turning a lexer.Token stream into pkg/ast nodes.
//
// Spec §1 puts the parser out of scope for the core compiler; this is a
// deliberately small stand-in, covering exactly the surface spec.md names
// so pkg/resolve, pkg/check and pkg/lower have real input to run on.
package parser

import (
	"github.com/snuggle-lang/snugglec/pkg/ast"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/lexer"
	"github.com/snuggle-lang/snugglec/pkg/source"
)

// Parse lexes and parses a single file's source into its top-level block.
func Parse(filename string, src []byte, bag *diagnostics.Bag) *ast.File {
	toks := lexer.Lex(filename, src, sinkAdapter{bag, filename})
	p := &parser{filename: filename, toks: toks, bag: bag}
	top := p.parseBlock(true)
	return &ast.File{Name: filename, Top: top}
}

type sinkAdapter struct {
	bag      *diagnostics.Bag
	filename string
}

func (s sinkAdapter) Error(loc source.Location, format string, args ...interface{}) {
	s.bag.Add(diagnostics.New(diagnostics.ParseError, loc, format, args...))
}

type parser struct {
	filename string
	toks     []lexer.Token
	pos      int
	bag      *diagnostics.Bag
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) at(kind lexer.Kind, text string) bool {
	t := p.cur()
	return t.Kind == kind && (text == "" || t.Text == text)
}
func (p *parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind lexer.Kind, text string) lexer.Token {
	if !p.at(kind, text) {
		p.errf("expected %q, found %q", text, p.cur().Text)
		return p.cur()
	}
	return p.advance()
}

func (p *parser) errf(format string, args ...interface{}) {
	p.bag.Add(diagnostics.New(diagnostics.ParseError, p.cur().Loc, format, args...))
}

// parseBlock parses `{ elements }`, or — when top is true — a whole file
// with no surrounding braces.
func (p *parser) parseBlock(top bool) *ast.Block {
	start := p.cur().Loc
	var closeTok string
	if !top {
		p.expect(lexer.Op, "{")
	}
	if !top {
		closeTok = "}"
	}
	var elems []ast.Node
	for !p.atEOF() && !(closeTok != "" && p.at(lexer.Op, closeTok)) {
		elems = append(elems, p.parseBlockElement())
	}
	end := p.cur().Loc
	if !top {
		p.expect(lexer.Op, "}")
	}
	return &ast.Block{Location: span(start, end), Elements: elems}
}

func span(a, b source.Location) source.Location {
	return source.Location{File: a.File, Start: a.Start, End: b.End}
}

func (p *parser) parseBlockElement() ast.Node {
	if p.at(lexer.Keyword, "pub") {
		save := p.pos
		p.advance()
		if n := p.tryParseTypeDef(true); n != nil {
			return n
		}
		p.pos = save
	}
	if n := p.tryParseTypeDef(false); n != nil {
		return n
	}
	return p.parseExpr()
}

func (p *parser) tryParseTypeDef(public bool) *ast.TypeDef {
	switch {
	case p.at(lexer.Keyword, "class"):
		return p.parseClassOrStruct(ast.DefClass, public)
	case p.at(lexer.Keyword, "struct"):
		return p.parseClassOrStruct(ast.DefStruct, public)
	case p.at(lexer.Keyword, "enum"):
		return p.parseEnum(public)
	case p.at(lexer.Keyword, "impl"):
		return p.parseImpl()
	case p.at(lexer.Keyword, "type"):
		return p.parseAlias(public)
	}
	return nil
}

func (p *parser) parseGenerics() []string {
	var generics []string
	if p.at(lexer.Op, "<") {
		p.advance()
		for !p.at(lexer.Op, ">") && !p.atEOF() {
			generics = append(generics, p.expect(lexer.Ident, "").Text)
			if p.at(lexer.Op, ",") {
				p.advance()
			}
		}
		p.expect(lexer.Op, ">")
	}
	return generics
}

func (p *parser) parseClassOrStruct(kind ast.TypeDefKind, public bool) *ast.TypeDef {
	start := p.cur().Loc
	p.advance() // class/struct
	name := p.expect(lexer.Ident, "").Text
	generics := p.parseGenerics()

	var super ast.Type
	if p.at(lexer.Op, ":") {
		p.advance()
		super = p.parseType()
	}

	def := &ast.TypeDef{Location: start, Kind: kind, Name: name, Public: public, Generics: generics, Supertype: super}
	p.expect(lexer.Op, "{")
	for !p.at(lexer.Op, "}") && !p.atEOF() {
		p.parseMember(def)
	}
	end := p.cur().Loc
	p.expect(lexer.Op, "}")
	def.Location = span(start, end)
	return def
}

func (p *parser) parseEnum(public bool) *ast.TypeDef {
	start := p.cur().Loc
	p.advance() // enum
	name := p.expect(lexer.Ident, "").Text
	generics := p.parseGenerics()
	def := &ast.TypeDef{Location: start, Kind: ast.DefEnum, Name: name, Public: public, Generics: generics}
	p.expect(lexer.Op, "{")
	for !p.at(lexer.Op, "}") && !p.atEOF() {
		vname := p.expect(lexer.Ident, "").Text
		variant := ast.EnumVariant{Name: vname}
		if p.at(lexer.Op, "(") {
			p.advance()
			for !p.at(lexer.Op, ")") && !p.atEOF() {
				fname := p.expect(lexer.Ident, "").Text
				p.expect(lexer.Op, ":")
				ftype := p.parseType()
				variant.Fields = append(variant.Fields, ast.FieldDecl{Name: fname, Type: ftype})
				if p.at(lexer.Op, ",") {
					p.advance()
				}
			}
			p.expect(lexer.Op, ")")
		}
		def.EnumVariants = append(def.EnumVariants, variant)
		if p.at(lexer.Op, ",") {
			p.advance()
		}
	}
	end := p.cur().Loc
	p.expect(lexer.Op, "}")
	def.Location = span(start, end)
	return def
}

func (p *parser) parseAlias(public bool) *ast.TypeDef {
	start := p.cur().Loc
	p.advance() // type
	name := p.expect(lexer.Ident, "").Text
	p.expect(lexer.Op, "=")
	target := p.parseType()
	return &ast.TypeDef{Location: start, Kind: ast.DefAlias, Name: name, Public: public, AliasTarget: target}
}

func (p *parser) parseImpl() *ast.TypeDef {
	start := p.cur().Loc
	p.advance() // impl
	target := p.parseType()
	def := &ast.TypeDef{Location: start, Kind: ast.DefImpl, ImplTarget: target}
	p.expect(lexer.Op, "{")
	for !p.at(lexer.Op, "}") && !p.atEOF() {
		p.parseMember(def)
	}
	end := p.cur().Loc
	p.expect(lexer.Op, "}")
	def.Location = span(start, end)
	return def
}

func (p *parser) parseMember(def *ast.TypeDef) {
	isStatic := false
	isConst := false
	for {
		if p.at(lexer.Keyword, "static") {
			isStatic = true
			p.advance()
			continue
		}
		if p.at(lexer.Keyword, "const") {
			isConst = true
			p.advance()
			continue
		}
		break
	}

	if p.at(lexer.Keyword, "fn") {
		def.Methods = append(def.Methods, p.parseMethod(isStatic, isConst))
		return
	}

	// field: name : Type
	start := p.cur().Loc
	fname := p.expect(lexer.Ident, "").Text
	p.expect(lexer.Op, ":")
	ftype := p.parseType()
	def.Fields = append(def.Fields, ast.FieldDecl{Location: start, Name: fname, Type: ftype, IsStatic: isStatic})
}

func (p *parser) parseMethod(isStatic, isConst bool) ast.MethodDecl {
	start := p.cur().Loc
	p.advance() // fn
	name := p.expect(lexer.Ident, "").Text
	generics := p.parseGenerics()

	p.expect(lexer.Op, "(")
	var params []ast.Param
	for !p.at(lexer.Op, ")") && !p.atEOF() {
		pname := p.expect(lexer.Ident, "").Text
		p.expect(lexer.Op, ":")
		ptype := p.parseType()
		params = append(params, ast.Param{Name: pname, Type: ptype})
		if p.at(lexer.Op, ",") {
			p.advance()
		}
	}
	p.expect(lexer.Op, ")")

	var ret ast.Type
	if p.at(lexer.Op, ":") {
		p.advance()
		ret = p.parseType()
	}

	var body ast.Expr
	if p.at(lexer.Op, "{") {
		body = p.parseBlock(false)
	} else {
		p.expect(lexer.Op, ";")
	}

	return ast.MethodDecl{Location: start, Name: name, Generics: generics, Params: params, Ret: ret, Body: body, IsStatic: isStatic, IsConst: isConst}
}

// ---------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------

func (p *parser) parseType() ast.Type {
	start := p.cur().Loc
	if p.at(lexer.Op, "(") {
		p.advance()
		var elems []ast.Type
		for !p.at(lexer.Op, ")") && !p.atEOF() {
			elems = append(elems, p.parseType())
			if p.at(lexer.Op, ",") {
				p.advance()
			}
		}
		p.expect(lexer.Op, ")")
		if p.at(lexer.Op, "->") {
			p.advance()
			ret := p.parseType()
			return &ast.FuncType{Location: start, Params: elems, Ret: ret}
		}
		return &ast.TupleType{Location: start, Elems: elems}
	}

	name := p.expect(lexer.Ident, "").Text
	if p.at(lexer.Op, "<") {
		p.advance()
		var args []ast.Type
		for !p.at(lexer.Op, ">") && !p.atEOF() {
			args = append(args, p.parseType())
			if p.at(lexer.Op, ",") {
				p.advance()
			}
		}
		p.expect(lexer.Op, ">")
		return &ast.GenericType{Location: start, Base: name, Args: args}
	}
	return &ast.NamedType{Location: start, Name: name}
}

// ---------------------------------------------------------------------
// Expressions (simple precedence climbing; not a general Pratt parser —
// enough to cover the spec.md expression surface).
// ---------------------------------------------------------------------

func (p *parser) parseExpr() ast.Expr {
	switch {
	case p.at(lexer.Keyword, "import"):
		return p.parseImport()
	case p.at(lexer.Keyword, "let"):
		return p.parseDeclaration()
	case p.at(lexer.Keyword, "return"):
		return p.parseReturn()
	case p.at(lexer.Keyword, "if"):
		return p.parseIf()
	case p.at(lexer.Keyword, "while"):
		return p.parseWhile()
	case p.at(lexer.Op, "{"):
		return p.parseBlock(false)
	}
	return p.parseAssignment()
}

func (p *parser) parseImport() ast.Expr {
	start := p.cur().Loc
	p.advance()
	path := p.expect(lexer.StringLit, "").Text
	return &ast.Import{Location: start, Path: path}
}

func (p *parser) parseDeclaration() ast.Expr {
	start := p.cur().Loc
	p.advance() // let
	pat := p.parsePattern()
	p.expect(lexer.Op, "=")
	val := p.parseExpr()
	return &ast.Declaration{Location: start, Pattern: pat, Value: val}
}

func (p *parser) parsePattern() ast.Pattern {
	start := p.cur().Loc
	if p.at(lexer.Op, "(") {
		p.advance()
		var elems []ast.Pattern
		for !p.at(lexer.Op, ")") && !p.atEOF() {
			elems = append(elems, p.parsePattern())
			if p.at(lexer.Op, ",") {
				p.advance()
			}
		}
		p.expect(lexer.Op, ")")
		return &ast.TuplePattern{Location: start, Elems: elems}
	}
	name := p.expect(lexer.Ident, "").Text
	var typ ast.Type
	if p.at(lexer.Op, ":") {
		p.advance()
		typ = p.parseType()
	}
	return &ast.BindingPattern{Location: start, Name: name, Type: typ}
}

func (p *parser) parseReturn() ast.Expr {
	start := p.cur().Loc
	p.advance()
	var val ast.Expr
	if !p.at(lexer.Op, "}") && !p.atEOF() {
		val = p.parseExpr()
	}
	return &ast.Return{Location: start, Value: val}
}

func (p *parser) parseIf() ast.Expr {
	start := p.cur().Loc
	p.advance()
	cond := p.parseExpr()
	then := p.parseBlock(false)
	var els ast.Expr
	if p.at(lexer.Keyword, "else") {
		p.advance()
		if p.at(lexer.Keyword, "if") {
			els = p.parseIf()
		} else {
			els = p.parseBlock(false)
		}
	}
	return &ast.If{Location: start, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseWhile() ast.Expr {
	start := p.cur().Loc
	p.advance()
	cond := p.parseExpr()
	body := p.parseBlock(false)
	return &ast.While{Location: start, Cond: cond, Body: body}
}

func (p *parser) parseAssignment() ast.Expr {
	lhs := p.parsePostfix(p.parsePrimary())
	if p.at(lexer.Op, "=") {
		start := lhs.Loc()
		p.advance()
		rhs := p.parseExpr()
		return &ast.Assignment{Location: start, Target: lhs, Value: rhs}
	}
	return lhs
}

func (p *parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch {
		case p.at(lexer.Op, "."):
			p.advance()
			if p.at(lexer.Keyword, "super") {
				// handled via MethodCall receiver normally; bare super.x is invalid
			}
			name := p.expect(lexer.Ident, "").Text
			var typeArgs []ast.Type
			if p.at(lexer.Op, "::") {
				p.advance()
				p.expect(lexer.Op, "<")
				for !p.at(lexer.Op, ">") && !p.atEOF() {
					typeArgs = append(typeArgs, p.parseType())
					if p.at(lexer.Op, ",") {
						p.advance()
					}
				}
				p.expect(lexer.Op, ">")
			}
			if p.at(lexer.Op, "(") {
				args := p.parseArgs()
				if sk, ok := e.(*ast.SuperKeyword); ok {
					e = &ast.SuperCall{Location: sk.Location, Name: name, Args: args}
				} else {
					e = &ast.MethodCall{Location: e.Loc(), Receiver: e, Name: name, TypeArgs: typeArgs, Args: args}
				}
			} else {
				e = &ast.FieldAccess{Location: e.Loc(), Receiver: e, Name: name}
			}
		case p.at(lexer.Op, "("):
			if ident, ok := e.(*ast.Variable); ok {
				args := p.parseArgs()
				e = &ast.ConstructorCall{Location: ident.Location, Type: &ast.NamedType{Location: ident.Location, Name: ident.Name}, Args: args}
			} else {
				return e
			}
		default:
			return e
		}
	}
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect(lexer.Op, "(")
	var args []ast.Expr
	for !p.at(lexer.Op, ")") && !p.atEOF() {
		args = append(args, p.parseExpr())
		if p.at(lexer.Op, ",") {
			p.advance()
		}
	}
	p.expect(lexer.Op, ")")
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch {
	case t.Kind == lexer.IntLit:
		p.advance()
		return &ast.Literal{Location: t.Loc, Kind: ast.LitInt, Text: t.Text}
	case t.Kind == lexer.FloatLit:
		p.advance()
		return &ast.Literal{Location: t.Loc, Kind: ast.LitFloat, Text: t.Text}
	case t.Kind == lexer.StringLit:
		p.advance()
		return &ast.Literal{Location: t.Loc, Kind: ast.LitString, Text: t.Text}
	case t.Kind == lexer.Keyword && (t.Text == "true" || t.Text == "false"):
		p.advance()
		return &ast.Literal{Location: t.Loc, Kind: ast.LitBool, Text: t.Text}
	case t.Kind == lexer.Keyword && t.Text == "super":
		p.advance()
		return &ast.SuperKeyword{Location: t.Loc}
	case t.Kind == lexer.Keyword && t.Text == "new":
		p.advance()
		typ := p.parseType()
		args := p.parseArgs()
		return &ast.ConstructorCall{Location: t.Loc, Type: typ, Args: args}
	case t.Kind == lexer.Ident:
		p.advance()
		return &ast.Variable{Location: t.Loc, Name: t.Text}
	case p.at(lexer.Op, "("):
		p.advance()
		first := p.parseExpr()
		if p.at(lexer.Op, ",") {
			elems := []ast.Expr{first}
			for p.at(lexer.Op, ",") {
				p.advance()
				elems = append(elems, p.parseExpr())
			}
			p.expect(lexer.Op, ")")
			return &ast.TupleExpr{Location: t.Loc, Elems: elems}
		}
		p.expect(lexer.Op, ")")
		return &ast.Paren{Location: t.Loc, Inner: first}
	case p.at(lexer.Op, "|"):
		return p.parseLambdaPipe()
	default:
		p.errf("unexpected token %q", t.Text)
		p.advance()
		return &ast.Variable{Location: t.Loc, Name: "<error>"}
	}
}

func (p *parser) parseLambdaPipe() ast.Expr {
	start := p.cur().Loc
	p.advance() // |
	var params []ast.Pattern
	for !p.at(lexer.Op, "|") && !p.atEOF() {
		params = append(params, p.parsePattern())
		if p.at(lexer.Op, ",") {
			p.advance()
		}
	}
	p.expect(lexer.Op, "|")
	body := p.parseExpr()
	return &ast.Lambda{Location: start, Params: params, Body: body}
}
