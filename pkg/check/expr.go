package check

import (
	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/resolve"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// exprCtx bundles the state threaded through expression checking: the
// binding environment, the enclosing type's/method's generic-argument
// tuples (for resolving GenericParamRef), and the enclosing type's
// supertype (for super-call legality and dispatch).
type exprCtx struct {
	env        *Env
	typeArgs   []types.Index
	methodArgs []types.Index
	owner      types.Index
	superType  types.Index
	// expectedReturn is the enclosing method's declared return type
	// (types.InvalidIndex while it's still being inferred from the
	// body), consulted by the Return case below (spec §4.2 "Type
	// mismatch" errors).
	expectedReturn types.Index
}

func (c *Checker) errorAt(loc resolve.Node, format string, args ...interface{}) *diagnostics.Error {
	e := diagnostics.New(diagnostics.TypeError, loc.Loc(), format, args...)
	c.bag.Add(e)
	return e
}

// fallibleError reports a fallible-pattern declaration per
// config.Checker.FalliblePatternPolicy: "reject" (the spec-mandated
// default) makes it a normal fatal type error, "warn" still reports it
// but lets the check pass continue (diagnostics.Bag.Fatal() stays
// false if nothing else failed).
func (c *Checker) fallibleError(loc resolve.Node, format string, args ...interface{}) *diagnostics.Error {
	e := diagnostics.New(diagnostics.TypeError, loc.Loc(), format, args...)
	if c.Config != nil && c.Config.Checker.FalliblePatternPolicy == config.FalliblePatternWarn {
		e.AsWarning()
	}
	c.bag.Add(e)
	return e
}

func (c *Checker) invalid(loc resolve.Node) TypedExpr {
	return &Literal{base: base{Location: loc.Loc(), Ty: types.InvalidIndex}, Kind: 2, Text: "false"}
}

func (c *Checker) checkExpr(e resolve.Expr, ctx exprCtx) TypedExpr {
	switch n := e.(type) {
	case *resolve.Block:
		return c.checkBlock(n, ctx)
	case *resolve.Literal:
		return c.checkLiteral(n)
	case *resolve.Variable:
		if b, ok := ctx.env.Lookup(n.Name); ok {
			return &Variable{base: base{Location: n.Location, Ty: b.typ}, Name: n.Name, Slot: b.slot}
		}
		c.errorAt(n, "undefined variable %q", n.Name)
		return c.invalid(n)
	case *resolve.StaticFieldAccess:
		owner := c.resolveRef(n.Type, ctx.typeArgs, ctx.methodArgs)
		field := c.findField(owner, n.Name)
		if field == nil {
			c.errorAt(n, "type has no static field %q", n.Name)
			return c.invalid(n)
		}
		return &StaticFieldAccess{base: base{Location: n.Location, Ty: field.Type}, Owner: owner, Field: field}
	case *resolve.FieldAccess:
		recv := c.checkExpr(n.Receiver, ctx)
		field := c.findField(recv.Type(), n.Name)
		if field == nil {
			c.errorAt(n, "no field %q on receiver type", n.Name)
			return c.invalid(n)
		}
		return &FieldAccess{base: base{Location: n.Location, Ty: field.Type}, Receiver: recv, Field: field}
	case *resolve.StaticMethodCall:
		owner := c.resolveRef(n.Type, ctx.typeArgs, ctx.methodArgs)
		args := c.checkArgs(n.Args, ctx)
		method := c.resolveCallMethod(owner, n.Name, args, n.TypeArgs, ctx)
		if method == nil {
			c.errorAt(n, "type has no static method %q", n.Name)
			return c.invalid(n)
		}
		return &StaticMethodCall{base: base{Location: n.Location, Ty: method.Signature.Ret}, Owner: owner, Method: method, Args: args}
	case *resolve.MethodCall:
		recv := c.checkExpr(n.Receiver, ctx)
		args := c.checkArgs(n.Args, ctx)
		method := c.resolveCallMethod(recv.Type(), n.Name, args, n.TypeArgs, ctx)
		if method == nil {
			c.errorAt(n, "no method %q on receiver type", n.Name)
			return c.invalid(n)
		}
		return &MethodCall{base: base{Location: n.Location, Ty: method.Signature.Ret}, Receiver: recv, Method: method, Args: args}
	case *resolve.SuperCall:
		args := c.checkArgs(n.Args, ctx)
		if ctx.superType == types.InvalidIndex {
			c.errorAt(n, "`super` used in a type with no supertype")
			return c.invalid(n)
		}
		method := c.resolveCallMethod(ctx.superType, n.Name, args, nil, ctx)
		if method == nil {
			c.errorAt(n, "supertype has no method %q", n.Name)
			return c.invalid(n)
		}
		return &SuperCall{base: base{Location: n.Location, Ty: method.Signature.Ret}, Method: method, Args: args}
	case *resolve.ConstructorCall:
		owner := c.resolveRef(n.Type, ctx.typeArgs, ctx.methodArgs)
		args := c.checkArgs(n.Args, ctx)
		if c.Arena.IsFulfilled(types.Indirection(owner)) && c.Arena.Get(owner).IsPlural {
			// `S(v1, v2, v3)` on a struct builds the value field by field.
			return &RawStructConstructor{base: base{Location: n.Location, Ty: owner}, Fields: args}
		}
		return &ConstructorCall{base: base{Location: n.Location, Ty: owner}, Args: args}
	case *resolve.RawStructConstructor:
		owner := c.resolveRef(n.Type, ctx.typeArgs, ctx.methodArgs)
		fields := c.checkArgs(n.Fields, ctx)
		return &RawStructConstructor{base: base{Location: n.Location, Ty: owner}, Fields: fields}
	case *resolve.TupleExpr:
		elems := c.checkArgs(n.Elems, ctx)
		fields := make([]types.Field, len(elems))
		slots := 0
		for i, el := range elems {
			fields[i] = types.Field{Type: el.Type()}
			if c.Arena.IsFulfilled(types.Indirection(el.Type())) {
				slots += c.Arena.Get(el.Type()).StackSlots
			} else {
				slots++
			}
		}
		ty := c.Arena.Add(&types.TypeDef{Kind: types.KindStruct, Name: "<tuple>", IsPlural: true, StackSlots: slots, Fields: fields, Supertype: types.InvalidIndex})
		return &TupleExpr{base: base{Location: n.Location, Ty: ty}, Elems: elems}
	case *resolve.Lambda:
		env := ctx.env
		params := make([]Param, len(n.Params))
		for i, p := range n.Params {
			bp, ok := p.(*resolve.BindingPattern)
			name, ty := "_", types.Index(c.Builtins.Object)
			if ok {
				name = bp.Name
				if bp.Type != nil {
					ty = c.resolveRef(bp.Type, ctx.typeArgs, ctx.methodArgs)
				}
			}
			slots := 1
			if c.Arena.IsFulfilled(types.Indirection(ty)) {
				slots = c.Arena.Get(ty).StackSlots
			}
			env = env.Bind(name, ty, slots)
			params[i] = Param{Name: name, Type: ty, Slot: env.nextSlot - slots}
		}
		bodyCtx := ctx
		bodyCtx.env = env
		body := c.checkExpr(n.Body, bodyCtx)
		funcTy := c.Arena.Add(&types.TypeDef{Kind: types.KindFunc, Name: "<func>", IsReferenceType: true, StackSlots: 1, Supertype: c.Builtins.Object})
		return &Lambda{base: base{Location: n.Location, Ty: funcTy}, Params: params, Body: body}
	case *resolve.Declaration:
		value := c.checkExpr(n.Value, ctx)
		return c.checkDeclaration(n, value, ctx)
	case *resolve.Assignment:
		target := c.checkExpr(n.Target, ctx)
		value := c.checkExpr(n.Value, ctx)
		if !c.typeAssignable(value.Type(), target.Type()) {
			c.errorAt(n, "cannot assign %s to a target of type %s", c.typeName(value.Type()), c.typeName(target.Type()))
		}
		return &Assignment{base: base{Location: n.Location, Ty: types.InvalidIndex}, Target: target, Value: value}
	case *resolve.Return:
		var v TypedExpr
		if n.Value != nil {
			v = c.checkExpr(n.Value, ctx)
			if ctx.expectedReturn != types.InvalidIndex && !c.typeAssignable(v.Type(), ctx.expectedReturn) {
				c.errorAt(n, "return type mismatch: expected %s, got %s", c.typeName(ctx.expectedReturn), c.typeName(v.Type()))
			}
		}
		return &Return{base: base{Location: n.Location, Ty: types.InvalidIndex}, Value: v}
	case *resolve.If:
		cond := c.checkExpr(n.Cond, ctx)
		then := c.checkExpr(n.Then, ctx)
		var elseExpr TypedExpr
		ty := types.InvalidIndex
		if n.Else != nil {
			elseExpr = c.checkExpr(n.Else, ctx)
			ty = then.Type()
		}
		return &If{base: base{Location: n.Location, Ty: ty}, Cond: cond, Then: then, Else: elseExpr}
	case *resolve.While:
		cond := c.checkExpr(n.Cond, ctx)
		body := c.checkExpr(n.Body, ctx)
		return &While{base: base{Location: n.Location, Ty: types.InvalidIndex}, Cond: cond, Body: body}
	case *resolve.Paren:
		inner := c.checkExpr(n.Inner, ctx)
		return &Paren{base: base{Location: n.Location, Ty: inner.Type()}, Inner: inner}
	case *resolve.ImportExpr:
		return &Literal{base: base{Location: n.Location, Ty: types.InvalidIndex}, Kind: 2, Text: "false"}
	default:
		c.bag.Add(diagnostics.Internal(e.Loc(), "unchecked resolved expression %T", e))
		return c.invalid(e)
	}
}

func (c *Checker) checkBlock(n *resolve.Block, ctx exprCtx) TypedExpr {
	elements := make([]TypedExpr, 0, len(n.Elements))
	env := ctx.env
	for _, el := range n.Elements {
		if _, ok := el.(*resolve.TypeDef); ok {
			continue // nested type-defs are handled by Checker.Run over the flat arena
		}
		expr, ok := el.(resolve.Expr)
		if !ok {
			continue
		}
		subCtx := ctx
		subCtx.env = env
		typed := c.checkExpr(expr, subCtx)
		if decl, ok := typed.(*Declaration); ok {
			slots := 1
			if c.Arena.IsFulfilled(types.Indirection(decl.VarType)) {
				slots = c.Arena.Get(decl.VarType).StackSlots
			}
			env = env.Bind(decl.Name, decl.VarType, slots)
		}
		elements = append(elements, typed)
	}
	ty := types.Index(types.InvalidIndex)
	if len(elements) > 0 {
		ty = elements[len(elements)-1].Type()
	}
	return &Block{base: base{Location: n.Location, Ty: ty}, Elements: elements}
}

func (c *Checker) checkLiteral(n *resolve.Literal) TypedExpr {
	var ty types.Index
	switch n.Kind {
	case 0: // ast.LitInt
		ty = c.Builtins.IntLiteral
	case 1: // ast.LitFloat
		ty = c.Builtins.F64
	case 2: // ast.LitBool
		ty = c.Builtins.Bool
	case 3: // ast.LitString
		ty = c.Builtins.String
	default:
		ty = c.Builtins.Object
	}
	return &Literal{base: base{Location: n.Location, Ty: ty}, Kind: n.Kind, Text: n.Text}
}

func (c *Checker) checkArgs(exprs []resolve.Expr, ctx exprCtx) []TypedExpr {
	out := make([]TypedExpr, len(exprs))
	for i, e := range exprs {
		out[i] = c.checkExpr(e, ctx)
	}
	return out
}

func (c *Checker) checkDeclaration(n *resolve.Declaration, value TypedExpr, ctx exprCtx) TypedExpr {
	if _, fallible := n.Pattern.(*resolve.FalliblePattern); fallible {
		c.fallibleError(n, "fallible patterns are not yet supported")
		return &Declaration{base: base{Location: n.Location, Ty: types.InvalidIndex}, Name: "_", Value: value}
	}
	bp, ok := n.Pattern.(*resolve.BindingPattern)
	if !ok {
		c.errorAt(n, "tuple declaration patterns are not yet supported")
		return &Declaration{base: base{Location: n.Location, Ty: types.InvalidIndex}, Name: "_", Value: value}
	}
	ty := value.Type()
	if bp.Type != nil {
		ty = c.resolveRef(bp.Type, ctx.typeArgs, ctx.methodArgs)
		if !c.typeAssignable(value.Type(), ty) {
			c.errorAt(n, "cannot initialize %q of type %s with a value of type %s", bp.Name, c.typeName(ty), c.typeName(value.Type()))
		}
	}
	return &Declaration{base: base{Location: n.Location, Ty: types.InvalidIndex}, Name: bp.Name, Slot: ctx.env.nextSlot, VarType: ty, Value: value}
}

// findField looks up a field (static or instance) by name on owner's
// type-def, walking the supertype chain for instance fields.
func (c *Checker) findField(owner types.Index, name string) *types.Field {
	if !c.Arena.IsFulfilled(types.Indirection(owner)) {
		return nil
	}
	def := c.Arena.Get(owner)
	for i := range def.Fields {
		if def.Fields[i].Name == name {
			return &def.Fields[i]
		}
	}
	if def.Supertype != types.InvalidIndex && def.Supertype != owner {
		return c.findField(def.Supertype, name)
	}
	return nil
}

// resolveCallMethod picks the best method named name on owner (spec §8
// scenario 6: "resolution picks by argument type" among same-named,
// same-arity overloads), then specializes a generic method via its
// MethodFactory when explicit type arguments are supplied.
func (c *Checker) resolveCallMethod(owner types.Index, name string, args []TypedExpr, typeArgRefs []resolve.TypeRef, ctx exprCtx) *types.MethodDef {
	if !c.Arena.IsFulfilled(types.Indirection(owner)) {
		return nil
	}
	def := c.Arena.Get(owner)
	candidate := c.pickOverload(def, name, args)
	if candidate == nil {
		if def.Supertype != types.InvalidIndex && def.Supertype != owner {
			return c.resolveCallMethod(def.Supertype, name, args, typeArgRefs, ctx)
		}
		return nil
	}
	if candidate.Kind == types.MethodGeneric && candidate.Generics != nil {
		margs := make([]types.Index, len(typeArgRefs))
		for i, t := range typeArgRefs {
			margs[i] = c.resolveRef(t, ctx.typeArgs, ctx.methodArgs)
		}
		return candidate.Generics.Specialize(def, margs)
	}
	return candidate
}

// pickOverload finds the best same-arity method named name on def: one
// whose parameter types all accept the call's argument types wins
// outright; otherwise the first same-arity declaration is returned (e.g.
// when an argument's type is still an in-progress generic parameter,
// where typeAssignable already answers true rather than block the call).
func (c *Checker) pickOverload(def *types.TypeDef, name string, args []TypedExpr) *types.MethodDef {
	var arityMatch *types.MethodDef
	for _, m := range def.Methods {
		if m.Name != name || len(m.Signature.Params) != len(args) {
			continue
		}
		if arityMatch == nil {
			arityMatch = m
		}
		if c.argsAssignable(m, args) {
			return m
		}
	}
	return arityMatch
}

func (c *Checker) argsAssignable(m *types.MethodDef, args []TypedExpr) bool {
	for i, p := range m.Signature.Params {
		if !c.typeAssignable(args[i].Type(), p.Type) {
			return false
		}
	}
	return true
}

// typeAssignable reports whether a value of type from may be used where a
// value of type to is expected: exact match, the polymorphic int-literal
// type narrowing to any concrete numeric width (spec §3 "IntLiteral ...
// before context narrows it to a concrete width"), or upward through a
// reference type's Supertype chain. An unresolved operand (still an
// in-progress generic specialization, or types.InvalidIndex from an
// earlier error) is treated as compatible so one error doesn't cascade
// into unrelated ones.
func (c *Checker) typeAssignable(from, to types.Index) bool {
	if from == types.InvalidIndex || to == types.InvalidIndex {
		return true
	}
	if from == c.Builtins.IntLiteral {
		switch to {
		case c.Builtins.I8, c.Builtins.I16, c.Builtins.I32, c.Builtins.I64, c.Builtins.F32, c.Builtins.F64:
			return true
		}
	}
	cur := from
	for cur != types.InvalidIndex {
		if cur == to {
			return true
		}
		if !c.Arena.IsFulfilled(types.Indirection(cur)) {
			return true
		}
		def := c.Arena.Get(cur)
		if def.Supertype == cur {
			return false
		}
		cur = def.Supertype
	}
	return false
}

// typeName renders a type-def's name for diagnostics, falling back to a
// placeholder for an in-progress specialization or an already-invalid
// operand rather than risk a nil-pointer read mid-error-report.
func (c *Checker) typeName(idx types.Index) string {
	if idx == types.InvalidIndex || !c.Arena.IsFulfilled(types.Indirection(idx)) {
		return "<unknown>"
	}
	return c.Arena.Get(idx).Name
}
