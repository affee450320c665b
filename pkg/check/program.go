package check

import (
	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/resolve"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// File is one file's checked top-level code.
type File struct {
	Name string
	Top  TypedExpr
}

// CheckProgram runs the checker over every resolved file that was
// produced against a shared resolve.TDArena (spec §4.2's contract: "Input:
// resolved AST and the built-in type set. Output: typed AST plus a typing
// cache"). Builtins are registered once, into the checker's own output
// arena, before any type-def is specialized. registerHost, if non-nil,
// runs right after basic builtins are registered and before any
// resolve.TypeDef is specialized, so pkg/hostbridge can add reflected
// classes to both arena and builtins in time for the DefBuiltin case in
// (*Checker).Run to resolve references to them by name.
func CheckProgram(resolveArena *resolve.TDArena, files []*resolve.File, cfg *config.Config, bag *diagnostics.Bag, registerHost func(*types.Arena[*types.TypeDef], *types.Builtins)) (*Checker, []*File) {
	arena := types.NewArena[*types.TypeDef]()
	builtins := types.RegisterBuiltins(arena)
	if registerHost != nil {
		registerHost(arena, builtins)
	}

	c := NewChecker(resolveArena, arena, builtins, cfg, bag)
	c.Run()

	out := make([]*File, 0, len(files))
	for _, f := range files {
		ctx := exprCtx{env: NewEnv(), owner: types.InvalidIndex, superType: types.InvalidIndex, expectedReturn: types.InvalidIndex}
		top := c.checkBlock(f.Top, ctx)
		out = append(out, &File{Name: f.Name, Top: top})
	}
	return c, out
}
