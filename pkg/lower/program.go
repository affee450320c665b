package lower

import (
	"github.com/snuggle-lang/snugglec/pkg/check"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// Lower runs spec §4.3 over every type specialized by c and every file's
// top-level block, producing the IR program the writer serializes.
// InstallBuiltinOperators must have already run on c.Arena/c.Builtins.
func Lower(c *check.Checker, files []*check.File, bag *diagnostics.Bag) *ir.Program {
	prog := ir.NewProgram()

	n := c.Arena.Len()
	for i := 0; i < n; i++ {
		idx := types.Index(i)
		if !c.Arena.IsFulfilled(types.Indirection(idx)) {
			continue
		}
		def := c.Arena.Get(idx)
		switch def.Kind {
		case types.KindClass, types.KindStruct, types.KindFunc:
			prog.AddType(lowerType(c, def, bag))
		}
	}

	for _, f := range files {
		b := ir.NewBuilder()
		fr := newFrame(c.Arena, f.Top, 0)
		ml := &methodLower{arena: c.Arena, b: b, fr: fr, bag: bag}
		ml.lower(f.Top, nil)
		prog.SetTopLevel(f.Name, b)
	}

	return prog
}

func lowerType(c *check.Checker, def *types.TypeDef, bag *diagnostics.Bag) *ir.GeneratedType {
	gt := &ir.GeneratedType{RuntimeName: def.RuntimeName}
	switch def.Kind {
	case types.KindStruct:
		gt.Kind = ir.GenValueType
	case types.KindFunc:
		gt.Kind = ir.GenFuncType
		gt.IsInterface = true
	default:
		gt.Kind = ir.GenClass
	}
	if def.Supertype != types.InvalidIndex && c.Arena.IsFulfilled(types.Indirection(def.Supertype)) {
		gt.SupertypeName = c.Arena.Get(def.Supertype).RuntimeName
	}

	for _, f := range def.Fields {
		for _, l := range leaves(c.Arena, f.Type) {
			gt.Fields = append(gt.Fields, ir.GeneratedField{
				RuntimeName:   mangledFieldName(append([]string{f.Name}, l.Path...)),
				Descriptor:    descriptorOf(c.Arena, l.Type),
				RuntimeStatic: f.IsStatic,
			})
		}
	}

	if gt.Kind == ir.GenValueType {
		full := leaves(c.Arena, indexOf(c, def))
		for i := 1; i < len(full); i++ {
			gt.ReturningFields = append(gt.ReturningFields, ir.GeneratedField{
				RuntimeName:   returnChannelName(full[i].Path),
				Descriptor:    descriptorOf(c.Arena, full[i].Type),
				RuntimeStatic: true,
			})
		}
	}

	for _, md := range def.Methods {
		gt.Methods = append(gt.Methods, lowerMethod(c, def, md, bag))
	}
	return gt
}

// indexOf re-derives def's own arena Index by identity scan; the checker
// only hands us *TypeDef pointers, but leaves() needs an Index to recurse
// through field types uniformly (including def's own, for the
// return-channel accounting above).
func indexOf(c *check.Checker, def *types.TypeDef) types.Index {
	n := c.Arena.Len()
	for i := 0; i < n; i++ {
		idx := types.Index(i)
		if c.Arena.IsFulfilled(types.Indirection(idx)) && c.Arena.Get(idx) == def {
			return idx
		}
	}
	return types.InvalidIndex
}

func lowerMethod(c *check.Checker, owner *types.TypeDef, md *types.MethodDef, bag *diagnostics.Bag) ir.GeneratedMethod {
	gm := ir.GeneratedMethod{RuntimeName: md.Signature.RuntimeName, IsStatic: owner.Kind == types.KindStruct}

	retDesc := ""
	if full := leaves(c.Arena, md.Signature.Ret); len(full) > 0 {
		retDesc = descriptorOf(c.Arena, full[0].Type)
	}
	gm.Descriptor = paramDesc(c.Arena, md) + retDesc

	switch md.Kind {
	case types.MethodInterface:
		gm.BodyKind = ir.BodyInterface
		return gm
	case types.MethodBytecode, types.MethodConst, types.MethodStaticConst:
		gm.BodyKind = ir.BodyCustom
		return gm
	}

	body := c.ForceBody(md)
	if body == nil {
		gm.BodyKind = ir.BodyCustom
		return gm
	}

	b := ir.NewBuilder()
	paramSlots := 0
	for _, p := range md.Signature.Params {
		paramSlots += stackSlots(c.Arena, p.Type)
	}
	fr := newFrame(c.Arena, body, paramSlots)
	ml := &methodLower{arena: c.Arena, b: b, fr: fr, bag: bag}
	ml.lower(body, nil)

	gm.BodyKind = ir.BodyInstructions
	gm.Body = b
	return gm
}
