package emit

import (
	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
)

func goDialect() *dialect {
	return &dialect{
		language: intent.Go,
		indent:   "\t",
		syntax: syntax{
			declare:   "%s := %s",
			assign:    "%s = %s",
			ret:       "return %s",
			retBare:   "return",
			ifHead:    "if %s",
			whileHead: "for %s",
			forHead:   "for _, %s := range %s",
			exprStmt:  "%s",
			pathSep:   ".",
		},
		types: map[string]string{
			ast.TypeInt:    "int",
			ast.TypeFloat:  "float64",
			ast.TypeString: "string",
			ast.TypeBool:   "bool",
			ast.TypeUnit:   "struct{}",
			ast.TypePath:   "string",
		},
		result: func(payload string) string {
			if payload == "struct{}" {
				return "error"
			}
			return "(" + payload + ", error)"
		},
		list: func(elem string) string { return "[]" + elem },
		decls: map[ast.NodeKind]declRenderer{
			ast.KindFunction: goFunction,
			ast.KindStruct:   goStruct,
			ast.KindModule:   goModule,
		},
		noop:      commentNoop,
		prelude:   goPackage,
		outlineOf: goOutline,
	}
}

// packageName is the module name for a module root and main otherwise.
func packageName(root ast.Node) string {
	if mod, ok := root.(*ast.Module); ok && mod.Name != "" {
		return mod.Name
	}
	return "main"
}

func goPackage(e *emitter, root ast.Node) {
	if mod, ok := root.(*ast.Module); ok {
		docComment(e, "// ", mod.Doc)
	}
	e.line("package " + packageName(root))
	e.line("")
}

func goFunction(e *emitter, n ast.Node) error {
	fn := n.(*ast.Function)
	docComment(e, "// ", fn.Doc)

	head := "func " + fn.Name + "(" + e.paramList(fn.Params, func(name, typ string) string {
		return name + " " + typ
	}) + ")"
	if fn.ReturnType != "" && fn.ReturnType != ast.TypeUnit {
		head += " " + e.typeName(fn.ReturnType)
	}
	return e.function(head, "", fn.Params, fn.Body)
}

func goStruct(e *emitter, n ast.Node) error {
	st := n.(*ast.Struct)
	docComment(e, "// ", st.Doc)
	e.open("type " + st.Name + " struct")
	for _, f := range st.Fields {
		e.line(f.Name + " " + e.typeName(f.Type))
	}
	e.close()
	return nil
}

// goModule renders the items of the root module; its name is already the
// package clause. Go has no nested modules.
func goModule(e *emitter, n ast.Node) error {
	if n != e.top {
		return e.unsupported(ast.KindModule)
	}
	return e.items(n.(*ast.Module).Items)
}

func goOutline(o *outliner, n ast.Node) {
	o.add("package", grammar.Ident)
	goItemOutline(o, n, true)
}

func goItemOutline(o *outliner, n ast.Node, top bool) {
	switch v := n.(type) {
	case *ast.Program:
		for _, item := range v.Items {
			goItemOutline(o, item, false)
		}
	case *ast.Module:
		if !top {
			return
		}
		for _, item := range v.Items {
			goItemOutline(o, item, false)
		}
	case *ast.Function:
		o.add("func", grammar.Ident, "(")
		for i := range v.Params {
			if i > 0 {
				o.add(",")
			}
			o.add(grammar.Ident, grammar.Type)
		}
		o.add(")")
		if v.ReturnType != "" && v.ReturnType != ast.TypeUnit {
			o.add(grammar.Type)
		}
		o.add("{", "}")
	case *ast.Struct:
		o.add("type", grammar.Ident, "struct", "{")
		for range v.Fields {
			o.add(grammar.Ident, grammar.Type)
		}
		o.add("}")
	}
}
