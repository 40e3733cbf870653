package emit

import (
	"strings"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
)

func typeScriptDialect() *dialect {
	return &dialect{
		language: intent.TypeScript,
		indent:   "    ",
		syntax: syntax{
			declare:   "let %s = %s;",
			assign:    "%s = %s;",
			ret:       "return %s;",
			retBare:   "return;",
			ifHead:    "if (%s)",
			whileHead: "while (%s)",
			forHead:   "for (const %s of %s)",
			exprStmt:  "%s;",
			pathSep:   ".",
		},
		types: map[string]string{
			ast.TypeInt:    "number",
			ast.TypeFloat:  "number",
			ast.TypeString: "string",
			ast.TypeBool:   "boolean",
			ast.TypeUnit:   "void",
			ast.TypePath:   "string",
		},
		result: func(payload string) string { return payload },
		list:   func(elem string) string { return elem + "[]" },
		decls: map[ast.NodeKind]declRenderer{
			ast.KindFunction: tsFunction,
			ast.KindClass:    tsClass,
			ast.KindStruct:   tsInterface,
			ast.KindModule:   tsNamespace,
		},
		noop:      func(ast.NodeKind) string { return ";" },
		outlineOf: tsOutline,
	}
}

func tsDoc(e *emitter, doc string) {
	if doc == "" {
		return
	}
	doc = strings.ReplaceAll(doc, "*/", `*\/`)
	if !strings.Contains(doc, "\n") {
		e.line("/** " + doc + " */")
		return
	}
	e.line("/**")
	docComment(e, " * ", doc)
	e.line(" */")
}

// tsSignature renders name(params): type. A missing return type is void.
func tsSignature(e *emitter, fn *ast.Function) string {
	ret := fn.ReturnType
	if ret == "" {
		ret = ast.TypeUnit
	}
	params := e.paramList(fn.Params, func(name, typ string) string {
		if typ == "" {
			typ = "any"
		}
		return name + ": " + typ
	})
	return fn.Name + "(" + params + "): " + e.typeName(ret)
}

func tsFunction(e *emitter, n ast.Node) error {
	fn := n.(*ast.Function)
	tsDoc(e, fn.Doc)
	return e.function("export function "+tsSignature(e, fn), "", fn.Params, fn.Body)
}

func tsClass(e *emitter, n ast.Node) error {
	cls := n.(*ast.Class)
	tsDoc(e, cls.Doc)
	e.open("export class " + cls.Name)
	for _, f := range cls.Fields {
		e.line(string(tsVisibility(f.Visibility)) + " " + f.Name + ": " + e.typeName(f.Type) + ";")
	}
	for i, m := range cls.Methods {
		if i > 0 || len(cls.Fields) > 0 {
			e.line("")
		}
		tsDoc(e, m.Doc)
		if err := e.function(tsSignature(e, m), "", m.Params, m.Body); err != nil {
			return err
		}
	}
	e.close()
	return nil
}

func tsVisibility(v ast.Visibility) ast.Visibility {
	if v == "" {
		return ast.Public
	}
	return v
}

func tsInterface(e *emitter, n ast.Node) error {
	st := n.(*ast.Struct)
	tsDoc(e, st.Doc)
	e.open("export interface " + st.Name)
	for _, f := range st.Fields {
		e.line(f.Name + ": " + e.typeName(f.Type) + ";")
	}
	e.close()
	return nil
}

func tsNamespace(e *emitter, n ast.Node) error {
	mod := n.(*ast.Module)
	tsDoc(e, mod.Doc)
	e.open("export namespace " + mod.Name)
	if err := e.items(mod.Items); err != nil {
		return err
	}
	e.close()
	return nil
}

func tsOutline(o *outliner, n ast.Node) {
	switch v := n.(type) {
	case *ast.Program:
		for _, item := range v.Items {
			tsOutline(o, item)
		}
	case *ast.Module:
		o.add("export", "namespace", grammar.Ident, "{")
		for _, item := range v.Items {
			tsOutline(o, item)
		}
		o.add("}")
	case *ast.Function:
		o.add("export", "function")
		tsSignatureOutline(o, v)
	case *ast.Class:
		o.add("export", "class", grammar.Ident, "{")
		for range v.Fields {
			o.add(grammar.Modifier, grammar.Ident, ":", grammar.Type, ";")
		}
		for _, m := range v.Methods {
			tsSignatureOutline(o, m)
		}
		o.add("}")
	case *ast.Struct:
		o.add("export", "interface", grammar.Ident, "{")
		for range v.Fields {
			o.add(grammar.Ident, ":", grammar.Type, ";")
		}
		o.add("}")
	}
}

func tsSignatureOutline(o *outliner, fn *ast.Function) {
	o.add(grammar.Ident, "(")
	for i := range fn.Params {
		if i > 0 {
			o.add(",")
		}
		o.add(grammar.Ident, ":", grammar.Type)
	}
	o.add(")", ":", grammar.Type, "{", "}")
}
