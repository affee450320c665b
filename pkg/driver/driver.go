// Package driver wires the compile pipeline (lex -> parse -> resolve ->
// check -> lower; writing is left to the caller) into the handful of entry points that
// cmd/snugglec and pkg/lspserver both need, the way dingo's pkg/lsp
// wraps pkg/transpiler as a library both its CLI (cmd/dingo) and its LSP
// proxy (cmd/dingo-lsp) call instead of duplicating the sequence.
package driver

import (
	"github.com/snuggle-lang/snugglec/pkg/ast"
	"github.com/snuggle-lang/snugglec/pkg/check"
	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/hostbridge"
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/lower"
	"github.com/snuggle-lang/snugglec/pkg/parser"
	"github.com/snuggle-lang/snugglec/pkg/resolve"
	"github.com/snuggle-lang/snugglec/pkg/source"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// basicBuiltinNames lists the basic builtins the resolver needs stub
// indirections for before any file referencing them is resolved — spec
// §6: "Built-in type list must be provided at resolution entry: bool, int
// widths, float widths, object, string, option, print, int-literal".
// int-literal has no source spelling, so it gets no stub here.
var basicBuiltinNames = []string{
	"bool", "i8", "i16", "i32", "i64", "f32", "f64",
	"object", "string", "option", "print",
}

// MapLoader is an in-memory resolve.Loader, used by the LSP server (whose
// files live in editor buffers, not necessarily flushed to disk) and by
// tests, in place of a filesystem-backed loader.
type MapLoader map[string][]byte

func (m MapLoader) Load(path string) ([]byte, bool) {
	src, ok := m[path]
	return src, ok
}

// Result carries every artifact a driver run can hand back to a caller:
// the CLI wants Program to hand to pkg/writer; the LSP server only ever
// looks at Bag.
type Result struct {
	Bag     *diagnostics.Bag
	FileSet *source.FileSet
	Program *ir.Program
}

// runFrontend shares the lex/parse/resolve portion of the pipeline
// between CheckOnly and Compile: both need an identical resolved entry
// file and its owning arena before they diverge on whether to stop after
// checking or continue into lowering.
func runFrontend(entryFile string, src []byte, loader resolve.Loader, bag *diagnostics.Bag, fset *source.FileSet) (*resolve.TDArena, *resolve.File) {
	fset.AddFile(entryFile, src)
	file := parser.Parse(entryFile, src, bag)
	if bag.Fatal() {
		return nil, nil
	}

	resolver := resolve.NewResolver(loader, trackingParser(fset), bag)
	names := append(append([]string{}, basicBuiltinNames...), hostbridge.DefaultClassNames()...)
	resolver.RegisterBuiltins(names)

	rfile := resolver.ResolveFile(file)
	return resolver.Arena, rfile
}

// trackingParser adapts parser.Parse to resolve.Parser while additionally
// registering every imported file's source with fset, so a diagnostic
// inside an imported file can still render a rustc-style source snippet
// (diagnostics.Error.Render reads fset.Lines by file name).
func trackingParser(fset *source.FileSet) resolve.Parser {
	return func(filename string, src []byte, bag *diagnostics.Bag) *ast.File {
		fset.AddFile(filename, src)
		return parser.Parse(filename, src, bag)
	}
}

// registerHost builds a fresh pkg/hostbridge registry against the
// checker's own output arena, the way check.CheckProgram's registerHost
// hook contract expects: called once, right after basic builtins are
// installed into that arena, before any resolve.TypeDef is specialized.
func registerHost(cfg *config.Config, bag *diagnostics.Bag) func(*types.Arena[*types.TypeDef], *types.Builtins) {
	return func(arena *types.Arena[*types.TypeDef], builtins *types.Builtins) {
		br := hostbridge.New(arena, cfg.Bridge.AcknowledgeGenericsDefault, bag)
		if _, err := hostbridge.RegisterDefaults(br, builtins); err != nil {
			bag.Add(diagnostics.Internal(source.Location{}, "hostbridge: %v", err))
		}
	}
}

// CheckOnly runs the pipeline through the type checker and stops — the
// shape pkg/lspserver needs for live diagnostics, where lowering a
// half-edited buffer would be wasted work (and could trip lowering's
// "unreachable case" internal errors on code the checker already
// rejected).
func CheckOnly(entryFile string, src []byte, loader resolve.Loader, cfg *config.Config) *Result {
	fset := source.NewFileSet()
	bag := &diagnostics.Bag{}

	resolveArena, rfile := runFrontend(entryFile, src, loader, bag, fset)
	if rfile == nil {
		return &Result{Bag: bag, FileSet: fset}
	}

	check.CheckProgram(resolveArena, []*resolve.File{rfile}, cfg, bag, registerHost(cfg, bag))
	return &Result{Bag: bag, FileSet: fset}
}

// Compile runs the complete pipeline, producing an ir.Program ready for
// pkg/writer.Write, matching dingo's cmd/dingo/main.go buildFile: read ->
// (here) lex/parse/resolve/check/lower as a single call returning one
// Result; it stops early, without a Program, once the Bag turns fatal.
func Compile(entryFile string, src []byte, loader resolve.Loader, cfg *config.Config) *Result {
	fset := source.NewFileSet()
	bag := &diagnostics.Bag{}

	resolveArena, rfile := runFrontend(entryFile, src, loader, bag, fset)
	if rfile == nil || bag.Fatal() {
		return &Result{Bag: bag, FileSet: fset}
	}

	c, files := check.CheckProgram(resolveArena, []*resolve.File{rfile}, cfg, bag, registerHost(cfg, bag))
	if bag.Fatal() {
		return &Result{Bag: bag, FileSet: fset}
	}

	lower.InstallBuiltinOperators(c.Arena, c.Builtins)
	prog := lower.Lower(c, files, bag)

	return &Result{Bag: bag, FileSet: fset, Program: prog}
}
