package resolve

import (
	"github.com/snuggle-lang/snugglec/pkg/ast"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/source"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// TDArena is the resolver's own arena: it owns *TypeDef (structurally
// resolved, not yet semantically typed) values, independent of the type
// checker's later types.Arena[*types.TypeDef].
type TDArena = types.Arena[*TypeDef]

// Loader fetches the raw contents of an imported file by path. Kept as a
// narrow interface so tests can supply an in-memory map and the CLI can
// supply the filesystem, without the resolver depending on either.
type Loader interface {
	Load(path string) ([]byte, bool)
}

// Parser is the narrow surface the resolver needs from pkg/parser. Kept
// as a function value (rather than a direct import of pkg/parser) so
// tests can supply a stub parser and so pkg/parser never needs to import
// pkg/resolve back.
type Parser func(filename string, src []byte, bag *diagnostics.Bag) *ast.File

// Resolver implements spec §4.1: two-phase block resolution, import
// memoization, and type-reference resolution with generic-parameter
// preservation.
type Resolver struct {
	Arena *TDArena

	root   *Scope
	loader Loader
	parse  Parser
	bag    *diagnostics.Bag

	// fileCache memoizes import resolution: "the first import of a file
	// computes that file's public members using an identity-keyed cache;
	// subsequent imports read from the cache" (spec §4.1.2). Keyed by
	// file path, grounded on dingo's pkg/build dependency-graph cache,
	// adapted from package dependencies to Snuggle file imports.
	fileCache map[string]*File

	// importStack records the files currently being resolved, innermost
	// last. Cyclic imports are detected through fileCache instead: an
	// entry whose Top is still nil is a file whose resolution is in
	// progress.
	importStack []string
}

// genCtx threads the enclosing type's and method's generic-parameter
// names through type-reference resolution, so a bare name can be
// recognized as a generic parameter (by position) rather than looked up
// in scope (spec §4.1.5).
type genCtx struct {
	typeGenerics   []string
	methodGenerics []string
}

func (g genCtx) withMethodGenerics(names []string) genCtx {
	return genCtx{typeGenerics: g.typeGenerics, methodGenerics: names}
}

func NewResolver(loader Loader, parse Parser, bag *diagnostics.Bag) *Resolver {
	return &Resolver{
		Arena:     types.NewArena[*TypeDef](),
		root:      NewRootScope(),
		loader:    loader,
		parse:     parse,
		bag:       bag,
		fileCache: make(map[string]*File),
	}
}

// RegisterBuiltins mints one DefBuiltin stub per name into r.Arena and
// binds it in the root scope, so every file resolved afterward sees
// `bool`, `i32`, `string`, any reflected-bridge class, and so on, without
// an explicit import. Must run before the first call to ResolveFile. A
// stub carries only a name: the checker recognizes DefBuiltin and
// resolves it against types.Builtins (or the reflected-type bridge) by
// name rather than walking Fields/Methods, so the resolver never needs to
// know a basic type's stack-slot count or descriptor.
func (r *Resolver) RegisterBuiltins(names []string) map[string]types.Indirection {
	out := make(map[string]types.Indirection, len(names))
	for _, name := range names {
		ind := r.Arena.Alloc()
		r.Arena.Fulfill(ind, &TypeDef{Kind: DefBuiltin, Name: name, Public: true})
		r.root.names[name] = ind
		out[name] = ind
	}
	return out
}

func (r *Resolver) errf(loc source.Location, format string, args ...interface{}) {
	r.bag.Add(diagnostics.New(diagnostics.ResolveError, loc, format, args...))
}

// ResolveFile resolves one already-loaded file into its resolved form,
// entering it fresh against builtins only: an imported file's top-level
// scope never inherits the importing file's local bindings (spec §4.1
// treats resolution as file-scoped, with cross-file visibility only
// through exposed/public type-defs).
func (r *Resolver) ResolveFile(file *ast.File) *File {
	if cached, ok := r.fileCache[file.Name]; ok {
		return cached
	}
	r.importStack = append(r.importStack, file.Name)
	result := &File{Name: file.Name, Exposed: map[string]types.Indirection{}}
	r.fileCache[file.Name] = result // reserve before recursing, for cycle detection
	block, exposed := r.resolveBlock(file.Top, r.root, genCtx{})
	result.Top = block
	result.Exposed = exposed
	r.importStack = r.importStack[:len(r.importStack)-1]
	return result
}

// resolveImport loads, parses, and resolves path, memoized by path.
func (r *Resolver) resolveImport(loc source.Location, path string) *File {
	if cached, ok := r.fileCache[path]; ok {
		if cached.Top == nil {
			r.errf(loc, "cyclic import involving %q", path)
		}
		return cached
	}
	src, ok := r.loader.Load(path)
	if !ok {
		r.errf(loc, "cannot find imported file %q", path)
		empty := &File{Name: path, Exposed: map[string]types.Indirection{}}
		r.fileCache[path] = empty
		return empty
	}
	parsed := r.parse(path, src, r.bag)
	return r.ResolveFile(parsed)
}

// resolveBlock implements spec §4.1's two-phase algorithm over one
// block's elements. Phase A pre-declares every direct type-def child so
// siblings (and the type-defs themselves) can forward-reference each
// other; Phase B walks elements in source order, resolving each one and
// threading import exposure forward to later siblings only.
func (r *Resolver) resolveBlock(block *ast.Block, parent *Scope, gc genCtx) (*Block, map[string]types.Indirection) {
	decls := make(map[string]types.Indirection)
	exposed := make(map[string]types.Indirection)

	for _, el := range block.Elements {
		if td, ok := el.(*ast.TypeDef); ok {
			if _, dup := decls[td.Name]; dup {
				r.errf(td.Location, "duplicate type definition %q in this block", td.Name)
				continue
			}
			ind := r.Arena.Alloc()
			decls[td.Name] = ind
			if td.Public {
				exposed[td.Name] = ind
			}
		}
	}

	scope := parent.Child(decls)
	cur := scope

	out := make([]Node, 0, len(block.Elements))
	for _, el := range block.Elements {
		switch n := el.(type) {
		case *ast.TypeDef:
			ind := decls[n.Name]
			resolved := r.resolveTypeDef(n, ind, cur)
			r.Arena.Fulfill(ind, resolved)
			out = append(out, resolved)
		case ast.Expr:
			if imp, ok := n.(*ast.Import); ok {
				imported := r.resolveImport(imp.Location, imp.Path)
				cur = cur.Child(imported.Exposed)
				out = append(out, &ImportExpr{Location: imp.Location, Path: imp.Path, Exposed: imported.Exposed})
				continue
			}
			out = append(out, r.resolveExpr(n, cur, gc))
		default:
			r.errf(block.Location, "internal: unexpected block element %T", el)
		}
	}

	return &Block{Location: block.Location, Elements: out}, exposed
}

func (r *Resolver) resolveTypeDef(td *ast.TypeDef, ind types.Indirection, scope *Scope) *TypeDef {
	gc := genCtx{typeGenerics: td.Generics}

	out := &TypeDef{
		Location: td.Location,
		Ind:      ind,
		Kind:     TypeDefKind(td.Kind),
		Name:     td.Name,
		Public:   td.Public,
		Generics: td.Generics,
	}
	if td.Supertype != nil {
		out.Supertype = r.resolveType(td.Supertype, scope, gc)
	}
	if td.AliasTarget != nil {
		out.AliasTarget = r.resolveType(td.AliasTarget, scope, gc)
	}
	if td.ImplTarget != nil {
		out.ImplTarget = r.resolveType(td.ImplTarget, scope, gc)
	}
	for _, f := range td.Fields {
		out.Fields = append(out.Fields, Field{
			Location: f.Location,
			Name:     f.Name,
			Type:     r.resolveType(f.Type, scope, gc),
			IsStatic: f.IsStatic,
		})
	}
	for _, v := range td.EnumVariants {
		variant := EnumVariant{Name: v.Name}
		for _, f := range v.Fields {
			variant.Fields = append(variant.Fields, Field{
				Location: f.Location,
				Name:     f.Name,
				Type:     r.resolveType(f.Type, scope, gc),
				IsStatic: f.IsStatic,
			})
		}
		out.EnumVariants = append(out.EnumVariants, variant)
	}

	// Overload disambiguation ($N suffixes for same-named methods) happens
	// during checking, once signatures are known (spec §4.2); the
	// resolver just preserves source order in out.Methods.
	for _, m := range td.Methods {
		mgc := gc.withMethodGenerics(m.Generics)
		method := Method{
			Location: m.Location,
			Name:     m.Name,
			Generics: m.Generics,
			IsStatic: m.IsStatic,
			IsConst:  m.IsConst,
		}
		for _, p := range m.Params {
			method.Params = append(method.Params, Param{Name: p.Name, Type: r.resolveType(p.Type, scope, mgc)})
		}
		if m.Ret != nil {
			method.Ret = r.resolveType(m.Ret, scope, mgc)
		}
		if m.Body != nil {
			bodyScope := scope.Child(r.methodParamScope(td, m))
			method.Body = r.resolveExpr(m.Body, bodyScope, mgc)
		}
		out.Methods = append(out.Methods, method)
	}

	return out
}

// methodParamScope is a no-op placeholder scope layer: parameters are
// value bindings, not type names, so they never populate the type-name
// scope the resolver tracks. Local-variable resolution is the checker's
// job (spec §4.2); this exists only so method bodies get their own child
// scope layer, matching every other block's shape.
func (r *Resolver) methodParamScope(td *ast.TypeDef, m ast.MethodDecl) map[string]types.Indirection {
	return map[string]types.Indirection{}
}

func (r *Resolver) resolveExpr(e ast.Expr, scope *Scope, gc genCtx) Expr {
	switch n := e.(type) {
	case *ast.Block:
		b, _ := r.resolveBlock(n, scope, gc)
		return b
	case *ast.Literal:
		return &Literal{Location: n.Location, Kind: int(n.Kind), Text: n.Text}
	case *ast.Variable:
		return &Variable{Location: n.Location, Name: n.Name}
	case *ast.SuperKeyword:
		r.errf(n.Location, "`super` is only legal as the receiver of a method call")
		return &Variable{Location: n.Location, Name: "super"}
	case *ast.FieldAccess:
		if sk, ok := n.Receiver.(*ast.SuperKeyword); ok {
			r.errf(sk.Location, "`super` is only legal as the receiver of a method call, not a field access")
			return &FieldAccess{Location: n.Location, Receiver: r.resolveExpr(n.Receiver, scope, gc), Name: n.Name}
		}
		if v, ok := n.Receiver.(*ast.Variable); ok {
			if ind, found := scope.Lookup(v.Name); found {
				return &StaticFieldAccess{Location: n.Location, Type: NamedRef{Ind: ind, Name: v.Name}, Name: n.Name}
			}
		}
		return &FieldAccess{Location: n.Location, Receiver: r.resolveExpr(n.Receiver, scope, gc), Name: n.Name}
	case *ast.MethodCall:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = r.resolveExpr(a, scope, gc)
		}
		var typeArgs []TypeRef
		for _, t := range n.TypeArgs {
			typeArgs = append(typeArgs, r.resolveType(t, scope, gc))
		}
		if v, ok := n.Receiver.(*ast.Variable); ok {
			if ind, found := scope.Lookup(v.Name); found {
				return &StaticMethodCall{
					Location: n.Location,
					Type:     NamedRef{Ind: ind, Name: v.Name},
					Name:     n.Name,
					TypeArgs: typeArgs,
					Args:     args,
				}
			}
		}
		return &MethodCall{
			Location: n.Location,
			Receiver: r.resolveExpr(n.Receiver, scope, gc),
			Name:     n.Name,
			TypeArgs: typeArgs,
			Args:     args,
		}
	case *ast.SuperCall:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = r.resolveExpr(a, scope, gc)
		}
		return &SuperCall{Location: n.Location, Name: n.Name, Args: args}
	case *ast.ConstructorCall:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = r.resolveExpr(a, scope, gc)
		}
		return &ConstructorCall{Location: n.Location, Type: r.resolveType(n.Type, scope, gc), Args: args}
	case *ast.RawStructConstructor:
		fields := make([]Expr, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = r.resolveExpr(f, scope, gc)
		}
		return &RawStructConstructor{Location: n.Location, Type: r.resolveType(n.Type, scope, gc), Fields: fields}
	case *ast.TupleExpr:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = r.resolveExpr(el, scope, gc)
		}
		return &TupleExpr{Location: n.Location, Elems: elems}
	case *ast.Lambda:
		params := make([]Pattern, len(n.Params))
		extra := map[string]types.Indirection{}
		for i, p := range n.Params {
			params[i] = r.resolvePattern(p, scope, gc)
		}
		bodyScope := scope.Child(extra)
		return &Lambda{Location: n.Location, Params: params, Body: r.resolveExpr(n.Body, bodyScope, gc)}
	case *ast.Declaration:
		return &Declaration{Location: n.Location, Pattern: r.resolvePattern(n.Pattern, scope, gc), Value: r.resolveExpr(n.Value, scope, gc)}
	case *ast.Assignment:
		return &Assignment{Location: n.Location, Target: r.resolveExpr(n.Target, scope, gc), Value: r.resolveExpr(n.Value, scope, gc)}
	case *ast.Return:
		var v Expr
		if n.Value != nil {
			v = r.resolveExpr(n.Value, scope, gc)
		}
		return &Return{Location: n.Location, Value: v}
	case *ast.If:
		var elseExpr Expr
		if n.Else != nil {
			elseExpr = r.resolveExpr(n.Else, scope, gc)
		}
		return &If{Location: n.Location, Cond: r.resolveExpr(n.Cond, scope, gc), Then: r.resolveExpr(n.Then, scope, gc), Else: elseExpr}
	case *ast.While:
		return &While{Location: n.Location, Cond: r.resolveExpr(n.Cond, scope, gc), Body: r.resolveExpr(n.Body, scope, gc)}
	case *ast.Paren:
		return &Paren{Location: n.Location, Inner: r.resolveExpr(n.Inner, scope, gc)}
	default:
		r.errf(e.Loc(), "internal: unresolved expression node %T", e)
		return &Literal{Location: e.Loc(), Kind: int(ast.LitBool), Text: "false"}
	}
}

func (r *Resolver) resolvePattern(p ast.Pattern, scope *Scope, gc genCtx) Pattern {
	switch n := p.(type) {
	case *ast.BindingPattern:
		var t TypeRef
		if n.Type != nil {
			t = r.resolveType(n.Type, scope, gc)
		}
		return &BindingPattern{Location: n.Location, Name: n.Name, Type: t}
	case *ast.TuplePattern:
		elems := make([]Pattern, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = r.resolvePattern(e, scope, gc)
		}
		return &TuplePattern{Location: n.Location, Elems: elems}
	case *ast.FalliblePattern:
		return &FalliblePattern{Location: n.Location, Variant: n.Variant, Inner: r.resolvePattern(n.Inner, scope, gc)}
	default:
		r.errf(p.Loc(), "internal: unresolved pattern node %T", p)
		return &BindingPattern{Location: p.Loc(), Name: "_"}
	}
}

// resolveType implements spec §4.1.5: recursive over generics/tuples/
// functions, preserving parameter indices for type- and method-generics
// rather than resolving them against the name scope.
func (r *Resolver) resolveType(t ast.Type, scope *Scope, gc genCtx) TypeRef {
	switch n := t.(type) {
	case *ast.NamedType:
		for i, g := range gc.methodGenerics {
			if g == n.Name {
				return GenericParamRef{Name: n.Name, Index: i, IsMethod: true}
			}
		}
		for i, g := range gc.typeGenerics {
			if g == n.Name {
				return GenericParamRef{Name: n.Name, Index: i, IsMethod: false}
			}
		}
		ind, ok := scope.Lookup(n.Name)
		if !ok {
			r.errf(n.Location, "unknown type %q", n.Name)
			return NamedRef{Ind: types.Indirection(types.InvalidIndex), Name: n.Name}
		}
		return NamedRef{Ind: ind, Name: n.Name}
	case *ast.GenericType:
		base := r.resolveType(&ast.NamedType{Location: n.Location, Name: n.Base}, scope, gc)
		args := make([]TypeRef, len(n.Args))
		for i, a := range n.Args {
			args[i] = r.resolveType(a, scope, gc)
		}
		return InstantiationRef{Base: base, Args: args}
	case *ast.TupleType:
		elems := make([]TypeRef, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = r.resolveType(e, scope, gc)
		}
		return TupleRef{Elems: elems}
	case *ast.FuncType:
		params := make([]TypeRef, len(n.Params))
		for i, p := range n.Params {
			params[i] = r.resolveType(p, scope, gc)
		}
		return FuncRef{Params: params, Ret: r.resolveType(n.Ret, scope, gc)}
	default:
		r.errf(t.Loc(), "internal: unresolved type node %T", t)
		return NamedRef{Ind: types.Indirection(types.InvalidIndex), Name: "<error>"}
	}
}
