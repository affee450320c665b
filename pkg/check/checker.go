package check

import (
	"fmt"

	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/resolve"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// Checker owns the checking pass's own arena (spec §3 "Typed AST"), a map
// from every resolve-pass Indirection to either a concrete Index
// (non-generic type-defs, specialized eagerly) or a *types.Factory
// (generic type-defs, specialized lazily per argument tuple).
type Checker struct {
	Arena    *types.Arena[*types.TypeDef]
	Builtins *types.Builtins
	Config   *config.Config

	resolveArena *resolve.TDArena
	bag          *diagnostics.Bag

	defIndex map[types.Indirection]types.Index
	factory  map[types.Indirection]*types.Factory

	// pending carries the lazy body thunk for a method until first
	// forced (spec §4.2 "Lazy bodies"): it captures the type/method
	// argument tuples, the unresolved method node and the owner's
	// supertype Index. Its owner field is left unset.
	pending map[*types.MethodDef]bodyThunk
}

type bodyThunk struct {
	owner      types.Index
	typeArgs   []types.Index
	methodArgs []types.Index
	node       resolve.Method
	superType  types.Index
}

func NewChecker(resolveArena *resolve.TDArena, builtinsArena *types.Arena[*types.TypeDef], builtins *types.Builtins, cfg *config.Config, bag *diagnostics.Bag) *Checker {
	return &Checker{
		Arena:        builtinsArena,
		Builtins:     builtins,
		Config:       cfg,
		resolveArena: resolveArena,
		bag:          bag,
		defIndex:     make(map[types.Indirection]types.Index),
		factory:      make(map[types.Indirection]*types.Factory),
		pending:      make(map[*types.MethodDef]bodyThunk),
	}
}

// Run specializes every non-generic type-def in the resolve arena,
// mirroring the resolver's own two-phase shape one level deeper: Phase A
// allocates an Index (or registers a Factory) for every resolve.TypeDef;
// Phase B fills each non-generic entry's fields/methods. Generic
// type-defs stay unspecialized until first referenced (spec §4.2).
func (c *Checker) Run() {
	n := c.resolveArena.Len()

	for i := 0; i < n; i++ {
		ind := types.Indirection(i)
		rtd := c.resolveArena.Get(types.Index(ind))
		if rtd.Kind == resolve.DefBuiltin {
			if idx, ok := c.Builtins.Lookup(rtd.Name); ok {
				c.defIndex[ind] = idx
			} else {
				c.bag.Add(diagnostics.Internal(rtd.Location, "unregistered builtin %q", rtd.Name))
			}
			continue
		}
		if len(rtd.Generics) > 0 {
			rtd := rtd
			c.factory[ind] = types.NewFactory(func(args []types.Index) *types.TypeDef {
				return c.buildTypeDef(rtd, args, nil)
			})
			continue
		}
		slot := c.Arena.Alloc()
		c.defIndex[ind] = types.Index(slot)
	}

	for i := 0; i < n; i++ {
		ind := types.Indirection(i)
		rtd := c.resolveArena.Get(types.Index(ind))
		if rtd.Kind == resolve.DefBuiltin || len(rtd.Generics) > 0 {
			continue
		}
		slot := types.Indirection(c.defIndex[ind])
		def := c.buildTypeDef(rtd, nil, nil)
		for _, m := range def.Methods {
			m.Owner = types.Index(slot)
		}
		c.Arena.Fulfill(slot, def)
	}
}

// resolveRef converts a resolve.TypeRef into a concrete Index, given the
// type/method generic-argument tuples active at the reference site.
func (c *Checker) resolveRef(ref resolve.TypeRef, typeArgs, methodArgs []types.Index) types.Index {
	switch r := ref.(type) {
	case resolve.NamedRef:
		if idx, ok := c.defIndex[r.Ind]; ok {
			return idx
		}
		if f, ok := c.factory[r.Ind]; ok {
			// A bare reference to a generic type-def with no arguments
			// yields InvalidIndex; no diagnostic is reported here, and a
			// self-reference inside the generic is not special-cased.
			_ = f
			return types.InvalidIndex
		}
		return types.InvalidIndex
	case resolve.GenericParamRef:
		if r.IsMethod {
			if r.Index < len(methodArgs) {
				return methodArgs[r.Index]
			}
			return types.InvalidIndex
		}
		if r.Index < len(typeArgs) {
			return typeArgs[r.Index]
		}
		return types.InvalidIndex
	case resolve.InstantiationRef:
		args := make([]types.Index, len(r.Args))
		for i, a := range r.Args {
			args[i] = c.resolveRef(a, typeArgs, methodArgs)
		}
		named, ok := r.Base.(resolve.NamedRef)
		if !ok {
			return types.InvalidIndex
		}
		if named.Name == "option" || named.Name == "Option" {
			return c.Builtins.Option.Specialize(c.Arena, args)
		}
		if f, ok := c.factory[named.Ind]; ok {
			return f.Specialize(c.Arena, args)
		}
		return types.InvalidIndex
	case resolve.TupleRef:
		fields := make([]types.Field, len(r.Elems))
		slots := 0
		for i, e := range r.Elems {
			idx := c.resolveRef(e, typeArgs, methodArgs)
			fields[i] = types.Field{Name: fmt.Sprintf("_%d", i), Type: idx}
			slots += c.Arena.Get(idx).StackSlots
		}
		return c.Arena.Add(&types.TypeDef{
			Kind:       types.KindStruct,
			Name:       "<tuple>",
			IsPlural:   true,
			StackSlots: slots,
			Fields:     fields,
			Supertype:  types.InvalidIndex,
		})
	case resolve.FuncRef:
		return c.Arena.Add(&types.TypeDef{
			Kind:            types.KindFunc,
			Name:            "<func>",
			IsReferenceType: true,
			StackSlots:      1,
			Supertype:       c.Builtins.Object,
		})
	default:
		return types.InvalidIndex
	}
}

// buildTypeDef computes the eager signature portion of a type-def (spec
// §4.2 "Method signatures ... are eagerly computed when a type is
// specialized"): fields and method signatures. Method bodies are left
// Pending and registered in c.pending for on-demand forcing.
func (c *Checker) buildTypeDef(rtd *resolve.TypeDef, typeArgs []types.Index, methodArgs []types.Index) *types.TypeDef {
	kind := types.KindClass
	isPlural := false
	isRef := true
	switch rtd.Kind {
	case resolve.DefStruct:
		kind = types.KindStruct
		isPlural = true
		isRef = false
	case resolve.DefEnum:
		kind = types.KindStruct
		isPlural = true
		isRef = false
	case resolve.DefClass, resolve.DefImpl:
		kind = types.KindClass
	case resolve.DefAlias:
		return c.Arena.Get(c.resolveRef(rtd.AliasTarget, typeArgs, methodArgs))
	}

	super := types.InvalidIndex
	if rtd.Supertype != nil {
		super = c.resolveRef(rtd.Supertype, typeArgs, methodArgs)
	} else if kind == types.KindClass {
		super = c.Builtins.Object
	}

	def := &types.TypeDef{
		Kind:            kind,
		Name:            rtd.Name,
		RuntimeName:     mangleRuntimeName(rtd.Name),
		IsPlural:        isPlural,
		IsReferenceType: isRef,
		Supertype:       super,
		GenericArgs:     typeArgs,
	}

	slots := 0
	for _, f := range rtd.Fields {
		idx := c.resolveRef(f.Type, typeArgs, methodArgs)
		def.Fields = append(def.Fields, types.Field{Name: f.Name, Type: idx, IsStatic: f.IsStatic, Loc: f.Location})
		if !f.IsStatic {
			if c.Arena.IsFulfilled(types.Indirection(idx)) {
				slots += c.Arena.Get(idx).StackSlots
			} else {
				slots++
			}
		}
	}
	if isPlural {
		def.StackSlots = slots
	} else {
		def.StackSlots = 1
	}
	if !isPlural && !isRef {
		def.StackSlots = 1
	}

	// Runtime-name disambiguation, in source order (spec §4.2
	// "Method-name disambiguation").
	counts := map[string]int{}
	for _, m := range rtd.Methods {
		runtimeName := m.Name
		if runtimeName == "new" {
			runtimeName = "<init>"
		}
		n := counts[m.Name]
		counts[m.Name] = n + 1
		if n > 0 {
			runtimeName = fmt.Sprintf("%s$%d", runtimeName, n)
		}

		md := &types.MethodDef{
			Kind:      types.MethodSnuggle,
			Name:      m.Name,
			Owner:     types.InvalidIndex, // patched below once def is interned
			BodyState: types.BodyPending,
		}
		md.Signature.RuntimeName = runtimeName
		for _, p := range m.Params {
			md.Signature.Params = append(md.Signature.Params, types.Field{Name: p.Name, Type: c.resolveRef(p.Type, typeArgs, methodArgs)})
		}
		if m.Ret != nil {
			md.Signature.Ret = c.resolveRef(m.Ret, typeArgs, methodArgs)
		} else {
			md.Signature.Ret = types.InvalidIndex // inferred when the body is forced
		}
		if m.IsConst {
			if m.IsStatic {
				md.Kind = types.MethodStaticConst
			} else {
				md.Kind = types.MethodConst
			}
		}
		if len(m.Generics) > 0 {
			mm := m
			md.Kind = types.MethodGeneric
			md.Generics = types.NewMethodFactory(func(margs []types.Index) *types.MethodDef {
				return c.specializeMethod(mm, def, typeArgs, margs, super)
			})
		} else if m.Body != nil {
			c.pending[md] = bodyThunk{typeArgs: typeArgs, node: m, superType: super}
		}

		def.Methods = append(def.Methods, md)
	}

	return def
}

func (c *Checker) specializeMethod(m resolve.Method, owner *types.TypeDef, typeArgs, methodArgs []types.Index, super types.Index) *types.MethodDef {
	md := &types.MethodDef{Kind: types.MethodSnuggle, Name: m.Name, BodyState: types.BodyPending}
	md.Signature.RuntimeName = m.Name
	for _, p := range m.Params {
		md.Signature.Params = append(md.Signature.Params, types.Field{Name: p.Name, Type: c.resolveRef(p.Type, typeArgs, methodArgs)})
	}
	if m.Ret != nil {
		md.Signature.Ret = c.resolveRef(m.Ret, typeArgs, methodArgs)
	} else {
		md.Signature.Ret = types.InvalidIndex
	}
	if m.Body != nil {
		c.pending[md] = bodyThunk{typeArgs: typeArgs, methodArgs: methodArgs, node: m, superType: super}
	}
	return md
}

// ForceBody resolves a method's body on first demand (spec §4.2 "Lazy
// bodies"). Re-entering for a method already Resolving returns nil — the
// incomplete placeholder the reentrancy invariant (spec §5) permits.
func (c *Checker) ForceBody(md *types.MethodDef) TypedExpr {
	switch md.BodyState {
	case types.BodyResolved:
		return md.Body.(TypedExpr)
	case types.BodyResolving:
		return nil
	}
	thunk, ok := c.pending[md]
	if !ok {
		return nil
	}
	md.BodyState = types.BodyResolving

	env := NewEnv()
	for _, p := range md.Signature.Params {
		slots := 1
		if c.Arena.IsFulfilled(types.Indirection(p.Type)) {
			slots = c.Arena.Get(p.Type).StackSlots
		}
		env = env.Bind(p.Name, p.Type, slots)
	}

	ctx := exprCtx{env: env, typeArgs: thunk.typeArgs, methodArgs: thunk.methodArgs, superType: thunk.superType, expectedReturn: md.Signature.Ret}
	body := c.checkExpr(thunk.node.Body, ctx)
	if md.Signature.Ret == types.InvalidIndex {
		md.Signature.Ret = body.Type()
	} else if !c.typeAssignable(body.Type(), md.Signature.Ret) {
		c.errorAt(thunk.node.Body, "method %q's body produces %s, but its declared return type is %s", thunk.node.Name, c.typeName(body.Type()), c.typeName(md.Signature.Ret))
	}
	md.Body = body
	md.BodyState = types.BodyResolved
	delete(c.pending, md)
	return body
}

func mangleRuntimeName(name string) string {
	return name
}
