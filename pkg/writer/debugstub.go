package writer

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/snuggle-lang/snugglec/pkg/ir"
)

// DumpGoStub renders, for human inspection only, a Go-syntax skeleton of
// every generated type's method signatures — the `--dump-go-stub` debug
// path named in SPEC_FULL §4.5. It is never the real target format: the
// real writer output is Write's binary container. Grounded on dingo's
// pkg/generator.Generator.Generate, which builds the full *ast.File once
// and prints it in a single printer.Config.Fprint pass so go/printer sees
// every declaration together (the same reason this function assembles
// one *ast.File for the whole program instead of printing per-type).
func DumpGoStub(prog *ir.Program) (string, error) {
	fset := token.NewFileSet()
	file := &ast.File{
		Name: ast.NewIdent("snugglestub"),
	}

	for _, t := range prog.Types {
		file.Decls = append(file.Decls, typeStubDecl(t))
		for _, m := range t.Methods {
			file.Decls = append(file.Decls, methodStubDecl(t, m))
		}
	}

	// astutil.AddImport is how dingo normalizes generated-file imports
	// (pkg/preprocessor/error_prop.go, pkg/preprocessor/preprocessor.go);
	// the stub's method bodies are elided comments, not real fmt calls, but
	// the import line still documents what a filled-in stub would need.
	astutil.AddImport(fset, file, "fmt")

	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.TabIndent | printer.UseSpaces, Tabwidth: 8}
	if err := cfg.Fprint(&buf, fset, file); err != nil {
		return "", fmt.Errorf("writer: dump-go-stub: %w", err)
	}
	return buf.String(), nil
}

func typeStubDecl(t *ir.GeneratedType) ast.Decl {
	kind := "class"
	switch t.Kind {
	case ir.GenValueType:
		kind = "value-type"
	case ir.GenFuncType:
		kind = "func-type"
	case ir.GenFuncImpl:
		kind = "func-impl"
	}
	doc := &ast.CommentGroup{List: []*ast.Comment{{Text: fmt.Sprintf("// %s (%s)", t.RuntimeName, kind)}}}
	return &ast.GenDecl{
		Doc: doc,
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Name: ast.NewIdent(sanitizeIdent(t.RuntimeName)),
				Type: &ast.StructType{Fields: &ast.FieldList{List: stubFields(t.Fields)}},
			},
		},
	}
}

func stubFields(fs []ir.GeneratedField) []*ast.Field {
	out := make([]*ast.Field, 0, len(fs))
	for _, f := range fs {
		out = append(out, &ast.Field{
			Names: []*ast.Ident{ast.NewIdent(sanitizeIdent(f.RuntimeName))},
			Type:  ast.NewIdent(goTypeName(f.Descriptor)),
		})
	}
	return out
}

func methodStubDecl(t *ir.GeneratedType, m ir.GeneratedMethod) ast.Decl {
	body := &ast.BlockStmt{List: []ast.Stmt{
		&ast.ExprStmt{X: ast.NewIdent(fmt.Sprintf("/* %s body omitted */", bodyKindName(m.BodyKind)))},
	}}
	return &ast.FuncDecl{
		Recv: &ast.FieldList{List: []*ast.Field{{
			Names: []*ast.Ident{ast.NewIdent("recv")},
			Type:  &ast.StarExpr{X: ast.NewIdent(sanitizeIdent(t.RuntimeName))},
		}}},
		Name: ast.NewIdent(sanitizeIdent(m.RuntimeName)),
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: body,
	}
}

func bodyKindName(k ir.MethodBodyKind) string {
	switch k {
	case ir.BodyInstructions:
		return "instructions"
	case ir.BodyCustom:
		return "custom/bytecode"
	case ir.BodyInterface:
		return "abstract"
	default:
		return "unknown"
	}
}

// goTypeName maps a JVM-style descriptor fragment to a cosmetic Go type
// name for the stub only; it is never used for real code generation.
func goTypeName(desc string) string {
	switch {
	case desc == "Z":
		return "bool"
	case desc == "I":
		return "int32"
	case desc == "J":
		return "int64"
	case desc == "F":
		return "float32"
	case desc == "D":
		return "float64"
	case strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";"):
		return "interface{}"
	default:
		return "interface{}"
	}
}

func sanitizeIdent(s string) string {
	return strings.NewReplacer("/", "_", "$", "_", ".", "_", ";", "_", "!", "_", " ", "_").Replace(s)
}
