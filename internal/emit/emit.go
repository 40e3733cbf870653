// Package emit renders syntax trees to target source text.
//
// Each target is a dialect registered in a capability table: how it
// spells statements and types, which declaration kinds it can render, the
// token it writes for kinds it cannot, and the declaration outline fed to
// the target grammar. Adding a target adds one dialect; no switch on the
// language id exists outside the table.
package emit

import (
	"fmt"
	"strings"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/target"
)

// NodePolicy controls what happens when a dialect has no renderer for a
// node kind.
type NodePolicy string

const (
	// PolicyDegrade writes the dialect's no-op token and records the kind
	// in Output.Degraded.
	PolicyDegrade NodePolicy = "degrade"
	// PolicyStrict fails emission with an UnsupportedNodeError.
	PolicyStrict NodePolicy = "strict"
)

// ParseNodePolicy parses a policy name. The empty string is PolicyDegrade.
func ParseNodePolicy(s string) (NodePolicy, error) {
	switch NodePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDegrade:
		return PolicyDegrade, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown node policy %q (want degrade or strict)", s)
	}
}

// UnsupportedNodeError is returned under PolicyStrict.
type UnsupportedNodeError struct {
	Language intent.Language
	Kind     ast.NodeKind
}

func (e *UnsupportedNodeError) Error() string {
	return fmt.Sprintf("unsupported node: %s cannot be rendered for %s", e.Kind, e.Language)
}

// Output is the result of one emission.
type Output struct {
	Source string
	// Outline is the declaration token stream checked against the target
	// grammar.
	Outline []string
	// Degraded lists node kinds replaced by the no-op token, in the order
	// they were met.
	Degraded []ast.NodeKind
}

// Emit renders root for lang.
func Emit(lang intent.Language, root ast.Node, policy NodePolicy) (*Output, error) {
	d, err := lookup(lang)
	if err != nil {
		return nil, err
	}
	prof, err := target.Lookup(lang)
	if err != nil {
		return nil, err
	}
	if policy == "" {
		policy = PolicyDegrade
	}

	e := &emitter{d: d, style: prof.BlockStyle, policy: policy, top: root}
	if d.prelude != nil {
		d.prelude(e, root)
	}
	if err := e.root(root); err != nil {
		return nil, err
	}

	return &Output{
		Source:   strings.TrimRight(e.buf.String(), "\n") + "\n",
		Outline:  d.outline(root),
		Degraded: e.degraded,
	}, nil
}

// emitter is the per-call rendering state. It is never shared.
type emitter struct {
	d      *dialect
	style  target.BlockStyle
	policy NodePolicy
	top    ast.Node

	buf      strings.Builder
	depth    int
	declared map[string]bool
	degraded []ast.NodeKind
}

func (e *emitter) line(s string) {
	if s == "" {
		e.buf.WriteByte('\n')
		return
	}
	e.buf.WriteString(strings.Repeat(e.d.indent, e.depth))
	e.buf.WriteString(s)
	e.buf.WriteByte('\n')
}

func (e *emitter) linef(format string, args ...any) {
	e.line(fmt.Sprintf(format, args...))
}

// open starts a block under head; close ends it.
func (e *emitter) open(head string) {
	if e.style == target.BlockIndent {
		e.line(head + ":")
	} else {
		e.line(head + " {")
	}
	e.depth++
}

func (e *emitter) close() {
	e.depth--
	if e.style != target.BlockIndent {
		e.line("}")
	}
}

func (e *emitter) elseBranch() {
	e.depth--
	if e.style == target.BlockIndent {
		e.line("else:")
	} else {
		e.line("} else {")
	}
	e.depth++
}

// root renders the top level. A Program separates items with blank lines.
func (e *emitter) root(n ast.Node) error {
	if p, ok := n.(*ast.Program); ok {
		return e.items(p.Items)
	}
	return e.node(n)
}

func (e *emitter) items(items []ast.Node) error {
	for i, item := range items {
		if i > 0 {
			e.line("")
		}
		if err := e.node(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) node(n ast.Node) error {
	switch v := n.(type) {
	case *ast.Program:
		return e.items(v.Items)
	case *ast.Block:
		return e.block(v)
	case *ast.Statement:
		return e.statement(v)
	case *ast.Expression:
		e.linef(e.d.syntax.exprStmt, e.expr(v))
		return nil
	}
	if render, ok := e.d.decls[n.Kind()]; ok {
		return render(e, n)
	}
	return e.unsupported(n.Kind())
}

func (e *emitter) unsupported(kind ast.NodeKind) error {
	if e.policy == PolicyStrict {
		return &UnsupportedNodeError{Language: e.d.language, Kind: kind}
	}
	e.degraded = append(e.degraded, kind)
	e.line(e.d.noop(kind))
	return nil
}

// block renders statements at the current depth. An empty block in an
// indentation target gets the no-op statement.
func (e *emitter) block(b *ast.Block) error {
	if b == nil || len(b.Statements) == 0 {
		if e.style == target.BlockIndent {
			e.line(e.d.emptyBody)
		}
		return nil
	}
	for _, s := range b.Statements {
		if err := e.node(s); err != nil {
			return err
		}
	}
	return nil
}

// function renders head and body, tracking local declarations.
func (e *emitter) function(head, doc string, params []ast.Parameter, body *ast.Block) error {
	outer := e.declared
	e.declared = make(map[string]bool, len(params))
	for _, p := range params {
		e.declared[p.Name] = true
	}
	defer func() { e.declared = outer }()

	e.open(head)
	if doc != "" && e.d.innerDoc != nil {
		e.d.innerDoc(e, doc)
	}
	if err := e.block(body); err != nil {
		return err
	}
	e.close()
	return nil
}

func (e *emitter) statement(s *ast.Statement) error {
	syn := e.d.syntax
	switch s.StmtKind {
	case ast.StmtAssignment:
		value := e.expr(s.Value)
		if e.declared != nil && !e.declared[s.Target] {
			e.declared[s.Target] = true
			e.linef(syn.declare, s.Target, value)
		} else {
			e.linef(syn.assign, s.Target, value)
		}
	case ast.StmtReturn:
		if s.Value == nil {
			e.line(syn.retBare)
		} else {
			e.linef(syn.ret, e.expr(s.Value))
		}
	case ast.StmtIf:
		e.open(fmt.Sprintf(syn.ifHead, e.expr(s.Cond)))
		if err := e.block(s.Body); err != nil {
			return err
		}
		if s.Else != nil {
			e.elseBranch()
			if err := e.block(s.Else); err != nil {
				return err
			}
		}
		e.close()
	case ast.StmtWhile:
		e.open(fmt.Sprintf(syn.whileHead, e.expr(s.Cond)))
		if err := e.block(s.Body); err != nil {
			return err
		}
		e.close()
	case ast.StmtFor:
		if e.declared != nil {
			e.declared[s.Target] = true
		}
		e.open(fmt.Sprintf(syn.forHead, s.Target, e.expr(s.Value)))
		if err := e.block(s.Body); err != nil {
			return err
		}
		e.close()
	default:
		return e.unsupported(ast.KindStatement)
	}
	return nil
}

func (e *emitter) expr(x *ast.Expression) string {
	if x == nil {
		return ""
	}
	syn := e.d.syntax
	switch x.ExprKind {
	case ast.ExprLiteral:
		if lit, ok := syn.literals[x.Value]; ok {
			return lit
		}
		return x.Value
	case ast.ExprIdentifier:
		return e.name(x.Value)
	case ast.ExprBinaryOp:
		op := x.Value
		if renamed, ok := syn.ops[op]; ok {
			op = renamed
		}
		prec := ast.Precedence(x.Value)
		return e.operand(x.Left, prec, false) + " " + op + " " + e.operand(x.Right, prec, true)
	case ast.ExprFunctionCall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = e.expr(a)
		}
		return e.name(x.Value) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

// operand parenthesizes a nested binary operation that binds looser than
// its parent, or equally on the right.
func (e *emitter) operand(x *ast.Expression, parent int, right bool) string {
	s := e.expr(x)
	if x == nil || x.ExprKind != ast.ExprBinaryOp {
		return s
	}
	p := ast.Precedence(x.Value)
	if p < parent || (right && p == parent) {
		return "(" + s + ")"
	}
	return s
}

func (e *emitter) name(n string) string {
	if e.d.syntax.pathSep != "" {
		return strings.ReplaceAll(n, "::", e.d.syntax.pathSep)
	}
	return n
}

func (e *emitter) typeName(t string) string {
	return e.d.typeName(t)
}

// paramList joins rendered parameters. Types are mapped before render
// sees them; an empty neutral type stays empty.
func (e *emitter) paramList(params []ast.Parameter, render func(name, typ string) string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		typ := ""
		if p.Type != "" {
			typ = e.typeName(p.Type)
		}
		parts[i] = render(p.Name, typ)
	}
	return strings.Join(parts, ", ")
}
