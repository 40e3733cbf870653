package emit

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
)

func sampleProgram() *ast.Program {
	return &ast.Program{Items: []ast.Node{
		&ast.Function{
			Name:       "add",
			Params:     []ast.Parameter{{Name: "a", Type: ast.TypeInt}, {Name: "b", Type: ast.TypeInt}},
			ReturnType: ast.TypeInt,
			Doc:        "Adds two numbers.",
			Body: &ast.Block{Statements: []ast.Node{
				ast.Assign("sum", ast.Binary("+", ast.Ident("a"), ast.Ident("b"))),
				ast.Return(ast.Ident("sum")),
			}},
		},
		&ast.Function{
			Name:   "countdown",
			Params: []ast.Parameter{{Name: "n", Type: ast.TypeInt}},
			Body: &ast.Block{Statements: []ast.Node{
				&ast.Statement{
					StmtKind: ast.StmtWhile,
					Cond:     ast.Binary(">", ast.Ident("n"), ast.Lit("0")),
					Body: &ast.Block{Statements: []ast.Node{
						ast.Assign("n", ast.Binary("-", ast.Ident("n"), ast.Lit("1"))),
					}},
				},
				ast.Call("log", ast.Ident("n")),
				ast.Return(nil),
			}},
		},
	}}
}

func TestEmitGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, lang := range Languages() {
		t.Run(string(lang), func(t *testing.T) {
			out, err := Emit(lang, sampleProgram(), PolicyDegrade)
			require.NoError(t, err)
			assert.Empty(t, out.Degraded)
			g.Assert(t, string(lang)+"_sample", []byte(out.Source))
		})
	}
}

func TestOutlineMatchesGrammar(t *testing.T) {
	trees := map[string]ast.Node{
		"sample": sampleProgram(),
		"module": &ast.Module{Name: "util", Items: []ast.Node{}},
		"struct": &ast.Struct{Name: "Point", Fields: []ast.Field{{Name: "x", Type: "int", Visibility: ast.Public}}},
		"class": &ast.Class{
			Name:    "Point",
			Fields:  []ast.Field{{Name: "x", Type: "int", Visibility: ast.Private}},
			Methods: []*ast.Function{{Name: "norm", Body: &ast.Block{Statements: []ast.Node{ast.Return(nil)}}}},
		},
	}
	for _, lang := range Languages() {
		g, err := grammar.For(lang)
		require.NoError(t, err)
		for name, tree := range trees {
			t.Run(string(lang)+"/"+name, func(t *testing.T) {
				out, err := Emit(lang, tree, PolicyDegrade)
				require.NoError(t, err)
				_, err = g.Parse(out.Outline)
				assert.NoError(t, err, "outline %v", out.Outline)
			})
		}
	}
}

func TestEmitRustUnitFunction(t *testing.T) {
	fn := &ast.Function{Name: "compute", ReturnType: ast.TypeUnit, Body: &ast.Block{Statements: []ast.Node{ast.Return(nil)}}}
	out, err := Emit(intent.Rust, fn, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "pub fn compute() -> () {\n    return;\n}\n", out.Source)
	assert.Equal(t, []string{"fn", "IDENT", "(", ")", "->", "TYPE", "{", "}"}, out.Outline)
}

func TestEmitRustStruct(t *testing.T) {
	st := &ast.Struct{
		Name: "Point",
		Doc:  "A point.",
		Fields: []ast.Field{
			{Name: "x", Type: "int", Visibility: ast.Public},
			{Name: "y", Type: "int", Visibility: ast.Private},
			{Name: "tag", Type: "string", Visibility: ast.Protected},
		},
	}
	out, err := Emit(intent.Rust, st, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "/// A point.\npub struct Point {\n    pub x: i64,\n    y: i64,\n    pub(crate) tag: String,\n}\n", out.Source)
}

func TestEmitPythonClass(t *testing.T) {
	cls := &ast.Class{
		Name:   "Point",
		Fields: []ast.Field{{Name: "x", Type: "int", Visibility: ast.Public}},
		Methods: []*ast.Function{
			{Name: "norm", Body: &ast.Block{Statements: []ast.Node{ast.Return(nil)}}},
		},
	}
	out, err := Emit(intent.Python, cls, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "class Point:\n    x: int\n\n    def norm(self):\n        return\n", out.Source)
}

func TestEmitPythonEmptyBodies(t *testing.T) {
	out, err := Emit(intent.Python, &ast.Class{Name: "Empty", Methods: []*ast.Function{}}, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "class Empty:\n    pass\n", out.Source)

	out, err = Emit(intent.Python, &ast.Function{Name: "spawn", Body: &ast.Block{}}, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "def spawn():\n    pass\n", out.Source)
}

func TestEmitTypeScriptClass(t *testing.T) {
	cls := &ast.Class{
		Name: "Point",
		Fields: []ast.Field{
			{Name: "x", Type: "int", Visibility: ast.Public},
			{Name: "y", Type: "int", Visibility: ast.Private},
		},
		Methods: []*ast.Function{
			{Name: "norm", Body: &ast.Block{Statements: []ast.Node{ast.Return(nil)}}},
		},
	}
	out, err := Emit(intent.TypeScript, cls, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "export class Point {\n    public x: number;\n    private y: number;\n\n    norm(): void {\n        return;\n    }\n}\n", out.Source)
}

func TestEmitTypeScriptDocCannotCloseComment(t *testing.T) {
	for doc, want := range map[string]string{
		"ends */ here":     "/** ends *\\/ here */\n",
		"first\nends */ x": "/**\n * first\n * ends *\\/ x\n */\n",
	} {
		fn := &ast.Function{Name: "f", Doc: doc, Body: &ast.Block{Statements: []ast.Node{ast.Return(nil)}}}
		out, err := Emit(intent.TypeScript, fn, PolicyDegrade)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out.Source, want), out.Source)
		assert.Equal(t, 1, strings.Count(out.Source, "*/"), out.Source)
	}
}

func TestEmitGoIfElse(t *testing.T) {
	fn := &ast.Function{
		Name:       "clamp",
		Params:     []ast.Parameter{{Name: "n", Type: "int"}},
		ReturnType: "int",
		Body: &ast.Block{Statements: []ast.Node{
			&ast.Statement{
				StmtKind: ast.StmtIf,
				Cond:     ast.Binary(">", ast.Ident("n"), ast.Lit("10")),
				Body:     &ast.Block{Statements: []ast.Node{ast.Return(ast.Lit("10"))}},
				Else:     &ast.Block{Statements: []ast.Node{ast.Return(ast.Ident("n"))}},
			},
		}},
	}
	out, err := Emit(intent.Go, fn, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc clamp(n int) int {\n\tif n > 10 {\n\t\treturn 10\n\t} else {\n\t\treturn n\n\t}\n}\n", out.Source)
}

func TestEmitGoModulePackage(t *testing.T) {
	out, err := Emit(intent.Go, &ast.Module{Name: "util", Items: []ast.Node{}}, PolicyDegrade)
	require.NoError(t, err)
	assert.Equal(t, "package util\n", out.Source)
	assert.Equal(t, []string{"package", "IDENT"}, out.Outline)
}

func TestNodePolicy(t *testing.T) {
	tests := []struct {
		name  string
		lang  intent.Language
		tree  ast.Node
		kind  ast.NodeKind
		token string
	}{
		{"rust_class", intent.Rust, &ast.Class{Name: "C"}, ast.KindClass, "// unsupported: class\n"},
		{"python_struct", intent.Python, &ast.Struct{Name: "S"}, ast.KindStruct, "pass\n"},
		{"go_class", intent.Go, &ast.Class{Name: "C"}, ast.KindClass, "package main\n\n// unsupported: class\n"},
		{"go_nested_module", intent.Go, &ast.Program{Items: []ast.Node{&ast.Module{Name: "inner"}}}, ast.KindModule, "package main\n\n// unsupported: module\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Emit(tt.lang, tt.tree, PolicyDegrade)
			require.NoError(t, err)
			assert.Equal(t, tt.token, out.Source)
			assert.Equal(t, []ast.NodeKind{tt.kind}, out.Degraded)

			_, err = Emit(tt.lang, tt.tree, PolicyStrict)
			var une *UnsupportedNodeError
			require.ErrorAs(t, err, &une)
			assert.Equal(t, tt.kind, une.Kind)
			assert.Contains(t, err.Error(), "unsupported node")
		})
	}
}

func TestParseNodePolicy(t *testing.T) {
	p, err := ParseNodePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDegrade, p)

	p, err = ParseNodePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParseNodePolicy("panic")
	assert.Error(t, err)
}

func TestEmitUnsupportedLanguage(t *testing.T) {
	_, err := Emit(intent.Language("cobol"), &ast.Module{Name: "m"}, PolicyDegrade)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported language: cobol")
}

func TestExpressionRendering(t *testing.T) {
	mul := ast.Binary("*", ast.Binary("+", ast.Ident("a"), ast.Ident("b")), ast.Ident("c"))
	sub := ast.Binary("-", ast.Ident("a"), ast.Binary("-", ast.Ident("b"), ast.Ident("c")))
	logic := ast.Binary("&&", ast.Lit("true"), ast.Ident("x"))
	call := ast.Call("std::fs::read_to_string", ast.Ident("path"))

	rust := &emitter{d: dialects[intent.Rust]}
	assert.Equal(t, "(a + b) * c", rust.expr(mul))
	assert.Equal(t, "a - (b - c)", rust.expr(sub))
	assert.Equal(t, "true && x", rust.expr(logic))
	assert.Equal(t, "std::fs::read_to_string(path)", rust.expr(call))

	py := &emitter{d: dialects[intent.Python]}
	assert.Equal(t, "True and x", py.expr(logic))
	assert.Equal(t, "std.fs.read_to_string(path)", py.expr(call))
}

func TestTypeMapping(t *testing.T) {
	tests := []struct {
		lang intent.Language
		in   string
		want string
	}{
		{intent.Rust, "result<string>", "std::io::Result<String>"},
		{intent.Rust, "result<unit>", "std::io::Result<()>"},
		{intent.Rust, "path", "&str"},
		{intent.Rust, "list<int>", "Vec<i64>"},
		{intent.Python, "unit", "None"},
		{intent.Python, "list<string>", "list[str]"},
		{intent.TypeScript, "list<int>", "number[]"},
		{intent.TypeScript, "bool", "boolean"},
		{intent.Go, "result<unit>", "error"},
		{intent.Go, "result<int>", "(int, error)"},
		{intent.Go, "Widget", "Widget"},
		{intent.Rust, "float", "f64"},
		{intent.Python, "float", "float"},
		{intent.Go, "float", "float64"},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang)+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, dialects[tt.lang].typeName(tt.in))
		})
	}
}
