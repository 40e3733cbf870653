package emit

import (
	"strings"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/target"
)

type declRenderer func(e *emitter, n ast.Node) error

// syntax is the statement and expression spelling of a target. Format
// strings take the target name first, then the value.
type syntax struct {
	declare   string
	assign    string
	ret       string
	retBare   string
	ifHead    string
	whileHead string
	forHead   string
	exprStmt  string

	ops      map[string]string
	literals map[string]string
	// pathSep replaces "::" in names when set.
	pathSep string
}

// dialect is one row of the emitter capability table.
type dialect struct {
	language  intent.Language
	indent    string
	emptyBody string
	syntax    syntax

	types     map[string]string
	result    func(payload string) string
	list      func(elem string) string
	decls     map[ast.NodeKind]declRenderer
	noop      func(kind ast.NodeKind) string
	innerDoc  func(e *emitter, doc string)
	prelude   func(e *emitter, root ast.Node)
	outlineOf func(o *outliner, n ast.Node)
}

var dialects = map[intent.Language]*dialect{
	intent.Rust:       rustDialect(),
	intent.Python:     pythonDialect(),
	intent.TypeScript: typeScriptDialect(),
	intent.Go:         goDialect(),
}

func lookup(lang intent.Language) (*dialect, error) {
	d, ok := dialects[lang]
	if !ok {
		return nil, &target.UnsupportedError{Language: lang}
	}
	return d, nil
}

// Languages reports the languages with a registered dialect.
func Languages() []intent.Language {
	var out []intent.Language
	for _, lang := range target.Languages() {
		if _, ok := dialects[lang]; ok {
			out = append(out, lang)
		}
	}
	return out
}

// typeName maps a neutral type to the target spelling. result<T> and
// list<T> are mapped recursively; unknown names pass through.
func (d *dialect) typeName(t string) string {
	if payload, ok := ast.IsResult(t); ok {
		return d.result(d.typeName(payload))
	}
	if strings.HasPrefix(t, "list<") && strings.HasSuffix(t, ">") {
		return d.list(d.typeName(t[len("list<") : len(t)-1]))
	}
	if mapped, ok := d.types[t]; ok {
		return mapped
	}
	return t
}

func (d *dialect) outline(root ast.Node) []string {
	o := &outliner{}
	d.outlineOf(o, root)
	return o.toks
}

// outliner collects declaration tokens. Names and types are emitted as
// the grammar token classes, punctuation and keywords as themselves.
type outliner struct {
	toks []string
}

func (o *outliner) add(toks ...string) {
	o.toks = append(o.toks, toks...)
}

// docComment writes doc as line comments using prefix.
func docComment(e *emitter, prefix, doc string) {
	if doc == "" {
		return
	}
	for _, l := range strings.Split(doc, "\n") {
		e.line(strings.TrimRight(prefix+l, " "))
	}
}

func commentNoop(kind ast.NodeKind) string {
	return "// unsupported: " + string(kind)
}
