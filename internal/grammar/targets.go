package grammar

import (
	"sync"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/target"
)

// Token classes shared by the outline tokenizers.
const (
	Ident    = "IDENT"
	Type     = "TYPE"
	Modifier = "MOD"
	Indent   = "INDENT"
	Dedent   = "DEDENT"
)

// Rust returns the declaration-outline grammar for Rust.
func Rust() *Grammar {
	b := newBuilder(intent.Rust, "Program")
	b.rule(on("fn", "struct", "mod", EOF), "Program", "Items", EOF)
	b.rule(on("fn", "struct", "mod"), "Items", "Item", "Items")
	b.rule(on(EOF, "}"), "Items")
	b.rule(on("fn"), "Item", "fn", Ident, "(", "Params", ")", "RetType", "{", "}")
	b.rule(on("struct"), "Item", "struct", Ident, "{", "Fields", "}")
	b.rule(on("mod"), "Item", "mod", Ident, "{", "Items", "}")
	b.rule(on(Ident), "Params", Ident, ":", Type, "ParamTail")
	b.rule(on(")"), "Params")
	b.rule(on(","), "ParamTail", ",", Ident, ":", Type, "ParamTail")
	b.rule(on(")"), "ParamTail")
	b.rule(on("->"), "RetType", "->", Type)
	b.rule(on("{"), "RetType")
	b.rule(on(Ident), "Fields", Ident, ":", Type, ",", "Fields")
	b.rule(on("}"), "Fields")
	return b.build()
}

// Python returns the declaration-outline grammar for Python.
func Python() *Grammar {
	b := newBuilder(intent.Python, "Program")
	b.rule(on("def", "class", Ident, EOF), "Program", "Stmts", EOF)
	b.rule(on("def", "class", Ident), "Stmts", "Stmt", "Stmts")
	b.rule(on(EOF, Dedent), "Stmts")
	b.rule(on("def"), "Stmt", "def", Ident, "(", "Params", ")", "RetType", ":", "Suite")
	b.rule(on("class"), "Stmt", "class", Ident, ":", "Suite")
	b.rule(on(Ident), "Stmt", Ident, ":", Type)
	b.rule(on(Indent), "Suite", Indent, "Stmts", Dedent)
	b.rule(on(Ident), "Params", Ident, "ParamAnn", "ParamTail")
	b.rule(on(")"), "Params")
	b.rule(on(":"), "ParamAnn", ":", Type)
	b.rule(on(",", ")"), "ParamAnn")
	b.rule(on(","), "ParamTail", ",", Ident, "ParamAnn", "ParamTail")
	b.rule(on(")"), "ParamTail")
	b.rule(on("->"), "RetType", "->", Type)
	b.rule(on(":"), "RetType")
	return b.build()
}

// TypeScript returns the declaration-outline grammar for TypeScript.
func TypeScript() *Grammar {
	b := newBuilder(intent.TypeScript, "Program")
	b.rule(on("export", EOF), "Program", "Items", EOF)
	b.rule(on("export"), "Items", "export", "Decl", "Items")
	b.rule(on(EOF, "}"), "Items")
	b.rule(on("function"), "Decl", "function", Ident, "(", "Params", ")", "RetType", "{", "}")
	b.rule(on("class"), "Decl", "class", Ident, "{", "Members", "}")
	b.rule(on("interface"), "Decl", "interface", Ident, "{", "Fields", "}")
	b.rule(on("namespace"), "Decl", "namespace", Ident, "{", "Items", "}")
	b.rule(on(Modifier, Ident), "Members", "Member", "Members")
	b.rule(on("}"), "Members")
	b.rule(on(Modifier), "Member", Modifier, Ident, ":", Type, ";")
	b.rule(on(Ident), "Member", Ident, "(", "Params", ")", "RetType", "{", "}")
	b.rule(on(Ident), "Fields", Ident, ":", Type, ";", "Fields")
	b.rule(on("}"), "Fields")
	b.rule(on(Ident), "Params", Ident, ":", Type, "ParamTail")
	b.rule(on(")"), "Params")
	b.rule(on(","), "ParamTail", ",", Ident, ":", Type, "ParamTail")
	b.rule(on(")"), "ParamTail")
	b.rule(on(":"), "RetType", ":", Type)
	b.rule(on("{"), "RetType")
	return b.build()
}

// Go returns the declaration-outline grammar for Go.
func Go() *Grammar {
	b := newBuilder(intent.Go, "Program")
	b.rule(on("package"), "Program", "package", Ident, "Items", EOF)
	b.rule(on("func", "type"), "Items", "Item", "Items")
	b.rule(on(EOF), "Items")
	b.rule(on("func"), "Item", "func", Ident, "(", "Params", ")", "RetType", "{", "}")
	b.rule(on("type"), "Item", "type", Ident, "struct", "{", "Fields", "}")
	b.rule(on(Ident), "Params", Ident, Type, "ParamTail")
	b.rule(on(")"), "Params")
	b.rule(on(","), "ParamTail", ",", Ident, Type, "ParamTail")
	b.rule(on(")"), "ParamTail")
	b.rule(on(Type), "RetType", Type)
	b.rule(on("{"), "RetType")
	b.rule(on(Ident), "Fields", Ident, Type, "Fields")
	b.rule(on("}"), "Fields")
	return b.build()
}

var builders = map[intent.Language]func() *Grammar{
	intent.Rust:       Rust,
	intent.Python:     Python,
	intent.TypeScript: TypeScript,
	intent.Go:         Go,
}

type cached struct {
	once sync.Once
	g    *Grammar
}

var cache = func() map[intent.Language]*cached {
	m := make(map[intent.Language]*cached, len(builders))
	for lang := range builders {
		m[lang] = &cached{}
	}
	return m
}()

// For returns the shared grammar for lang, building it on first use.
// The returned grammar must not be modified.
func For(lang intent.Language) (*Grammar, error) {
	c, ok := cache[lang]
	if !ok {
		return nil, &target.UnsupportedError{Language: lang}
	}
	c.once.Do(func() {
		c.g = builders[lang]()
	})
	return c.g, nil
}
