package emit

import (
	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
)

func rustDialect() *dialect {
	return &dialect{
		language: intent.Rust,
		indent:   "    ",
		syntax: syntax{
			declare:   "let mut %s = %s;",
			assign:    "%s = %s;",
			ret:       "return %s;",
			retBare:   "return;",
			ifHead:    "if %s",
			whileHead: "while %s",
			forHead:   "for %s in %s",
			exprStmt:  "%s;",
		},
		types: map[string]string{
			ast.TypeInt:    "i64",
			ast.TypeFloat:  "f64",
			ast.TypeString: "String",
			ast.TypeBool:   "bool",
			ast.TypeUnit:   "()",
			ast.TypePath:   "&str",
		},
		result: func(payload string) string { return "std::io::Result<" + payload + ">" },
		list:   func(elem string) string { return "Vec<" + elem + ">" },
		decls: map[ast.NodeKind]declRenderer{
			ast.KindFunction: rustFunction,
			ast.KindStruct:   rustStruct,
			ast.KindModule:   rustModule,
		},
		noop:      commentNoop,
		outlineOf: rustOutline,
	}
}

func rustFunction(e *emitter, n ast.Node) error {
	fn := n.(*ast.Function)
	docComment(e, "/// ", fn.Doc)

	head := "pub fn " + fn.Name + "(" + e.paramList(fn.Params, func(name, typ string) string {
		return name + ": " + typ
	}) + ")"
	if fn.ReturnType != "" {
		head += " -> " + e.typeName(fn.ReturnType)
	}
	return e.function(head, "", fn.Params, fn.Body)
}

var rustVisibility = map[ast.Visibility]string{
	ast.Public:    "pub ",
	ast.Protected: "pub(crate) ",
	ast.Private:   "",
}

func rustStruct(e *emitter, n ast.Node) error {
	st := n.(*ast.Struct)
	docComment(e, "/// ", st.Doc)
	e.open("pub struct " + st.Name)
	for _, f := range st.Fields {
		e.line(rustVisibility[f.Visibility] + f.Name + ": " + e.typeName(f.Type) + ",")
	}
	e.close()
	return nil
}

func rustModule(e *emitter, n ast.Node) error {
	mod := n.(*ast.Module)
	docComment(e, "/// ", mod.Doc)
	e.open("pub mod " + mod.Name)
	if err := e.items(mod.Items); err != nil {
		return err
	}
	e.close()
	return nil
}

func rustOutline(o *outliner, n ast.Node) {
	switch v := n.(type) {
	case *ast.Program:
		for _, item := range v.Items {
			rustOutline(o, item)
		}
	case *ast.Module:
		o.add("mod", grammar.Ident, "{")
		for _, item := range v.Items {
			rustOutline(o, item)
		}
		o.add("}")
	case *ast.Function:
		o.add("fn", grammar.Ident, "(")
		for i := range v.Params {
			if i > 0 {
				o.add(",")
			}
			o.add(grammar.Ident, ":", grammar.Type)
		}
		o.add(")")
		if v.ReturnType != "" {
			o.add("->", grammar.Type)
		}
		o.add("{", "}")
	case *ast.Struct:
		o.add("struct", grammar.Ident, "{")
		for range v.Fields {
			o.add(grammar.Ident, ":", grammar.Type, ",")
		}
		o.add("}")
	}
}
