package emit

import (
	"strings"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
)

func pythonDialect() *dialect {
	return &dialect{
		language:  intent.Python,
		indent:    "    ",
		emptyBody: "pass",
		syntax: syntax{
			declare:   "%s = %s",
			assign:    "%s = %s",
			ret:       "return %s",
			retBare:   "return",
			ifHead:    "if %s",
			whileHead: "while %s",
			forHead:   "for %s in %s",
			exprStmt:  "%s",
			ops:       map[string]string{"&&": "and", "||": "or"},
			literals:  map[string]string{"true": "True", "false": "False"},
			pathSep:   ".",
		},
		types: map[string]string{
			ast.TypeInt:    "int",
			ast.TypeFloat:  "float",
			ast.TypeString: "str",
			ast.TypeBool:   "bool",
			ast.TypeUnit:   "None",
			ast.TypePath:   "str",
		},
		result: func(payload string) string { return payload },
		list:   func(elem string) string { return "list[" + elem + "]" },
		decls: map[ast.NodeKind]declRenderer{
			ast.KindFunction: pythonFunction,
			ast.KindClass:    pythonClass,
			ast.KindModule:   pythonModule,
		},
		noop:      func(ast.NodeKind) string { return "pass" },
		innerDoc:  docstring,
		outlineOf: pythonOutline,
	}
}

// docstring writes doc as a triple-quoted string at the current depth.
func docstring(e *emitter, doc string) {
	doc = strings.ReplaceAll(doc, `"""`, `\"\"\"`)
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		e.line(`"""` + doc + `"""`)
		return
	}
	e.line(`"""` + lines[0])
	for _, l := range lines[1:] {
		e.line(l)
	}
	e.line(`"""`)
}

func pythonParam(name, typ string) string {
	if typ == "" {
		return name
	}
	return name + ": " + typ
}

func pythonSignature(e *emitter, fn *ast.Function, self bool) string {
	params := e.paramList(fn.Params, pythonParam)
	if self {
		if params == "" {
			params = "self"
		} else {
			params = "self, " + params
		}
	}
	head := "def " + fn.Name + "(" + params + ")"
	if fn.ReturnType != "" {
		head += " -> " + e.typeName(fn.ReturnType)
	}
	return head
}

func pythonFunction(e *emitter, n ast.Node) error {
	fn := n.(*ast.Function)
	return e.function(pythonSignature(e, fn, false), fn.Doc, fn.Params, fn.Body)
}

func pythonClass(e *emitter, n ast.Node) error {
	cls := n.(*ast.Class)
	e.open("class " + cls.Name)
	if cls.Doc != "" {
		docstring(e, cls.Doc)
	}
	for _, f := range cls.Fields {
		e.line(f.Name + ": " + e.typeName(f.Type))
	}
	for i, m := range cls.Methods {
		if i > 0 || len(cls.Fields) > 0 || cls.Doc != "" {
			e.line("")
		}
		if err := e.function(pythonSignature(e, m, true), m.Doc, m.Params, m.Body); err != nil {
			return err
		}
	}
	if cls.Doc == "" && len(cls.Fields) == 0 && len(cls.Methods) == 0 {
		e.line(e.d.emptyBody)
	}
	e.close()
	return nil
}

// pythonModule renders a module as a file: a header comment, the module
// docstring and the items at top level.
func pythonModule(e *emitter, n ast.Node) error {
	mod := n.(*ast.Module)
	e.line("# module " + mod.Name)
	if mod.Doc != "" {
		docstring(e, mod.Doc)
	}
	if len(mod.Items) > 0 {
		e.line("")
	}
	return e.items(mod.Items)
}

func pythonOutline(o *outliner, n ast.Node) {
	switch v := n.(type) {
	case *ast.Program:
		for _, item := range v.Items {
			pythonOutline(o, item)
		}
	case *ast.Module:
		for _, item := range v.Items {
			pythonOutline(o, item)
		}
	case *ast.Function:
		pythonFunctionOutline(o, v)
	case *ast.Class:
		o.add("class", grammar.Ident, ":", grammar.Indent)
		for range v.Fields {
			o.add(grammar.Ident, ":", grammar.Type)
		}
		for _, m := range v.Methods {
			pythonFunctionOutline(o, m)
		}
		o.add(grammar.Dedent)
	}
}

// pythonFunctionOutline leaves out the implicit self of methods.
func pythonFunctionOutline(o *outliner, fn *ast.Function) {
	o.add("def", grammar.Ident, "(")
	for i, p := range fn.Params {
		if i > 0 {
			o.add(",")
		}
		o.add(grammar.Ident)
		if p.Type != "" {
			o.add(":", grammar.Type)
		}
	}
	o.add(")")
	if fn.ReturnType != "" {
		o.add("->", grammar.Type)
	}
	o.add(":", grammar.Indent, grammar.Dedent)
}
