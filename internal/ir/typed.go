package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/dcge/internal/ast"
)

// TypeConstraint records the declared type of a parameter, field or return
// value, and the scope it was declared in.
type TypeConstraint struct {
	Subject  string `json:"subject"`
	Expected string `json:"expected"`
	Scope    int    `json:"scope"`
}

// ErrorRule records that a function is fallible and what its success
// payload is.
type ErrorRule struct {
	Function string `json:"function"`
	Payload  string `json:"payload"`
}

// TypedIR is the scope-aware view of a tree used by validation.
type TypedIR struct {
	Symbols     *SymbolTable
	Constraints []TypeConstraint
	ErrorRules  []ErrorRule

	// scopeOf maps scope-owning nodes and statements to the scope they
	// resolve names in.
	scopeOf map[ast.Node]int
}

// ScopeOf returns the scope recorded for n during Build.
func (t *TypedIR) ScopeOf(n ast.Node) (int, bool) {
	idx, ok := t.scopeOf[n]
	return idx, ok
}

// Build walks the tree and populates the symbol table. Modules, functions,
// structs, classes and nested blocks each open a scope; a function body
// shares the function's scope with its parameters.
//
// Redefinitions in the same scope are returned as errors.
func Build(root ast.Node) (*TypedIR, error) {
	b := &builder{
		ir: &TypedIR{
			Symbols: NewSymbolTable(),
			scopeOf: make(map[ast.Node]int),
		},
	}
	if err := b.node(root); err != nil {
		return nil, err
	}
	return b.ir, nil
}

type builder struct {
	ir *TypedIR
}

func (b *builder) table() *SymbolTable {
	return b.ir.Symbols
}

func (b *builder) node(n ast.Node) error {
	switch v := n.(type) {
	case *ast.Program:
		b.ir.scopeOf[v] = b.table().Current()
		for _, item := range v.Items {
			if err := b.node(item); err != nil {
				return err
			}
		}
	case *ast.Module:
		if err := b.table().AddSymbol(Symbol{Name: v.Name, Kind: SymModule, Type: TypeInfo{Base: v.Name}}); err != nil {
			return err
		}
		b.ir.scopeOf[v] = b.table().EnterScope("module " + v.Name)
		for _, item := range v.Items {
			if err := b.node(item); err != nil {
				return err
			}
		}
		return b.table().ExitScope()
	case *ast.Function:
		return b.function(v)
	case *ast.Struct:
		return b.record(v, v.Name, v.Fields, nil)
	case *ast.Class:
		return b.record(v, v.Name, v.Fields, v.Methods)
	case *ast.Block:
		b.ir.scopeOf[v] = b.table().EnterScope("block")
		if err := b.statements(v.Statements); err != nil {
			return err
		}
		return b.table().ExitScope()
	case *ast.Statement:
		return b.statement(v)
	case *ast.Expression:
		b.ir.scopeOf[v] = b.table().Current()
	}
	return nil
}

func (b *builder) function(fn *ast.Function) error {
	ret := fn.ReturnType
	if ret == "" {
		ret = ast.TypeUnit
	}
	if err := b.table().AddSymbol(Symbol{Name: fn.Name, Kind: SymFunction, Type: typeInfo(ret)}); err != nil {
		return err
	}

	scope := b.table().EnterScope("fn " + fn.Name)
	b.ir.scopeOf[fn] = scope

	for _, p := range fn.Params {
		sym := Symbol{Name: p.Name, Kind: SymVariable, Type: typeInfo(p.Type)}
		if err := b.table().AddSymbol(sym); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
		b.ir.Constraints = append(b.ir.Constraints, TypeConstraint{
			Subject:  fn.Name + "." + p.Name,
			Expected: p.Type,
			Scope:    scope,
		})
	}
	if fn.ReturnType != "" {
		b.ir.Constraints = append(b.ir.Constraints, TypeConstraint{
			Subject:  fn.Name + ".return",
			Expected: fn.ReturnType,
			Scope:    scope,
		})
	}
	if payload, ok := ast.IsResult(fn.ReturnType); ok {
		b.ir.ErrorRules = append(b.ir.ErrorRules, ErrorRule{Function: fn.Name, Payload: payload})
	}

	if fn.Body != nil {
		b.ir.scopeOf[fn.Body] = scope
		if err := b.statements(fn.Body.Statements); err != nil {
			return err
		}
	}
	return b.table().ExitScope()
}

func (b *builder) record(n ast.Node, name string, fields []ast.Field, methods []*ast.Function) error {
	if err := b.table().AddSymbol(Symbol{Name: name, Kind: SymType, Type: TypeInfo{Base: name}}); err != nil {
		return err
	}
	scope := b.table().EnterScope("type " + name)
	b.ir.scopeOf[n] = scope

	for _, f := range fields {
		info := typeInfo(f.Type)
		info.IsMutable = f.Visibility != ast.Private
		if err := b.table().AddSymbol(Symbol{Name: f.Name, Kind: SymVariable, Type: info, Mutable: info.IsMutable}); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
		b.ir.Constraints = append(b.ir.Constraints, TypeConstraint{
			Subject:  name + "." + f.Name,
			Expected: f.Type,
			Scope:    scope,
		})
	}
	for _, m := range methods {
		if err := b.function(m); err != nil {
			return err
		}
	}
	return b.table().ExitScope()
}

func (b *builder) statements(stmts []ast.Node) error {
	for _, s := range stmts {
		if err := b.node(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) statement(s *ast.Statement) error {
	b.ir.scopeOf[s] = b.table().Current()

	switch s.StmtKind {
	case ast.StmtAssignment:
		// Reassignment of a visible name does not declare a new symbol.
		if _, ok := b.table().Lookup(s.Target); !ok {
			base := b.inferType(s.Value)
			sym := Symbol{
				Name:    s.Target,
				Kind:    SymVariable,
				Type:    TypeInfo{Base: base, IsMutable: true},
				Mutable: true,
			}
			if err := b.table().AddSymbol(sym); err != nil {
				return err
			}
		}
	case ast.StmtFor:
		loop := b.table().EnterScope("for " + s.Target)
		b.ir.scopeOf[s] = loop
		if err := b.table().AddSymbol(Symbol{Name: s.Target, Kind: SymVariable, Type: TypeInfo{Base: ast.TypeInt}}); err != nil {
			return err
		}
		if s.Body != nil {
			if err := b.node(s.Body); err != nil {
				return err
			}
		}
		return b.table().ExitScope()
	}

	for _, blk := range []*ast.Block{s.Body, s.Else} {
		if blk != nil {
			if err := b.node(blk); err != nil {
				return err
			}
		}
	}
	return nil
}

// inferType returns the neutral type of e, or "" when it cannot be known
// without real analysis.
func (b *builder) inferType(e *ast.Expression) string {
	if e == nil {
		return ""
	}
	switch e.ExprKind {
	case ast.ExprLiteral:
		return ast.LiteralType(e.Value)
	case ast.ExprIdentifier:
		if sym, ok := b.table().Lookup(e.Value); ok {
			return sym.Type.Base
		}
	case ast.ExprBinaryOp:
		switch e.Value {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return ast.TypeBool
		}
		return b.inferType(e.Left)
	}
	return ""
}


// typeInfo decodes a neutral type name. Generic arguments of result<T>
// and list<T> are recorded, and path is a borrowed reference.
func typeInfo(t string) TypeInfo {
	info := TypeInfo{Base: t}
	if open := strings.IndexByte(t, '<'); open > 0 && strings.HasSuffix(t, ">") {
		info.Base = t[:open]
		info.GenericParams = []string{t[open+1 : len(t)-1]}
	}
	if t == ast.TypePath || strings.HasPrefix(t, "&") {
		info.IsReference = true
	}
	return info
}
