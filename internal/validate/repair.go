package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/ir"
)

// ErrUnrecoverable is returned by Regenerate when no repair rule matches.
var ErrUnrecoverable = errors.New("unrecoverable validation failure")

type repairRule struct {
	category Category
	fix      func(ast.Node) (ast.Node, error)
}

// repairRules is the closed, ordered dispatch table. Brace repairs take
// precedence over type repairs regardless of issue order.
var repairRules = []repairRule{
	{category: CategoryUnmatchedBraces, fix: fixBraces},
	{category: CategoryTypeError, fix: fixTypes},
}

// Regenerate applies the first repair rule whose category appears in
// issues. The tree is modified in place and returned. When no rule
// matches, it returns ErrUnrecoverable and leaves the tree untouched.
func Regenerate(tree ast.Node, issues []Issue) (ast.Node, error) {
	for _, rule := range repairRules {
		for _, is := range issues {
			if is.Category == rule.category {
				return rule.fix(tree)
			}
		}
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("%w: no issues to repair", ErrUnrecoverable)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnrecoverable, issues[0].Message)
}

// RepairCategories returns the categories Regenerate can act on, in
// dispatch order.
func RepairCategories() []Category {
	out := make([]Category, len(repairRules))
	for i, r := range repairRules {
		out[i] = r.category
	}
	return out
}

var bracketStripper = strings.NewReplacer("{", "", "}", "", "(", "", ")", "", "[", "", "]", "")

// fixBraces removes bracket characters from every piece of free text the
// tree carries into the source: docs, names and string literals. Types
// keep their brackets unless they are unbalanced on their own.
func fixBraces(tree ast.Node) (ast.Node, error) {
	strip := bracketStripper.Replace
	ast.Walk(tree, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Module:
			v.Name, v.Doc = strip(v.Name), strip(v.Doc)
		case *ast.Function:
			v.Name, v.Doc = strip(v.Name), strip(v.Doc)
			v.ReturnType = stripType(v.ReturnType)
			for i := range v.Params {
				v.Params[i].Name = strip(v.Params[i].Name)
				v.Params[i].Type = stripType(v.Params[i].Type)
			}
		case *ast.Struct:
			v.Name, v.Doc = strip(v.Name), strip(v.Doc)
			stripFields(v.Fields, strip)
		case *ast.Class:
			v.Name, v.Doc = strip(v.Name), strip(v.Doc)
			stripFields(v.Fields, strip)
		case *ast.Statement:
			v.Target = strip(v.Target)
		case *ast.Expression:
			switch v.ExprKind {
			case ast.ExprLiteral, ast.ExprIdentifier, ast.ExprFunctionCall:
				v.Value = strip(v.Value)
			}
		}
		return true
	})
	return tree, nil
}

func stripFields(fields []ast.Field, strip func(string) string) {
	for i := range fields {
		fields[i].Name = strip(fields[i].Name)
		fields[i].Type = stripType(fields[i].Type)
	}
}

func stripType(t string) string {
	if len(checkBraces(t)) == 0 {
		return t
	}
	return bracketStripper.Replace(t)
}

// fixTypes makes the tree type-consistent where the fix is unambiguous:
// unresolved identifiers become int parameters of the function using them,
// untyped parameters and fields become int, and return types follow what
// the function actually returns.
func fixTypes(tree ast.Node) (ast.Node, error) {
	typed, err := ir.Build(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}

	ast.Walk(tree, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Struct:
			defaultFieldTypes(v.Fields)
		case *ast.Class:
			defaultFieldTypes(v.Fields)
		}
		return true
	})

	for _, fn := range ast.Functions(tree) {
		for _, name := range unresolved(fn, typed) {
			fn.Params = append(fn.Params, ast.Parameter{Name: name, Type: ast.TypeInt})
		}
		for i := range fn.Params {
			if strings.TrimSpace(fn.Params[i].Type) == "" {
				fn.Params[i].Type = ast.TypeInt
			}
		}
		fixReturnType(fn, typed)
	}
	return tree, nil
}

func defaultFieldTypes(fields []ast.Field) {
	for i := range fields {
		if strings.TrimSpace(fields[i].Type) == "" {
			fields[i].Type = ast.TypeInt
		}
	}
}

// unresolved lists, in first-use order, the unqualified identifiers in
// fn's own statements that no enclosing scope declares.
func unresolved(fn *ast.Function, typed *ir.TypedIR) []string {
	seen := make(map[string]bool)
	var names []string

	var visit func(e *ast.Expression, scope int)
	visit = func(e *ast.Expression, scope int) {
		if e == nil {
			return
		}
		switch e.ExprKind {
		case ast.ExprIdentifier:
			name := e.Value
			if seen[name] || strings.Contains(name, "::") || strings.Contains(name, ".") {
				return
			}
			if _, ok := typed.Symbols.LookupFrom(scope, name); !ok {
				seen[name] = true
				names = append(names, name)
			}
		case ast.ExprBinaryOp:
			visit(e.Left, scope)
			visit(e.Right, scope)
		case ast.ExprFunctionCall:
			for _, a := range e.Args {
				visit(a, scope)
			}
		}
	}

	forEachStatement(fn, func(n ast.Node) {
		scope, ok := typed.ScopeOf(n)
		if !ok {
			return
		}
		switch v := n.(type) {
		case *ast.Statement:
			visit(v.Cond, scope)
			visit(v.Value, scope)
		case *ast.Expression:
			visit(v, scope)
		}
	})
	return names
}

// forEachStatement visits statements and expression statements of fn,
// skipping nested functions.
func forEachStatement(fn *ast.Function, visit func(ast.Node)) {
	if fn.Body == nil {
		return
	}
	ast.Walk(fn.Body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Function:
			return false
		case *ast.Statement:
			visit(n)
		case *ast.Expression:
			visit(n)
			return false
		}
		return true
	})
}

func fixReturnType(fn *ast.Function, typed *ir.TypedIR) {
	if _, fallible := ast.IsResult(fn.ReturnType); fallible {
		return
	}

	var valueType string
	hasValue, hasBare := false, false
	forEachStatement(fn, func(n ast.Node) {
		s, ok := n.(*ast.Statement)
		if !ok || s.StmtKind != ast.StmtReturn {
			return
		}
		if s.Value == nil {
			hasBare = true
			return
		}
		if !hasValue {
			scope, _ := typed.ScopeOf(s)
			valueType = exprType(s.Value, scope, typed)
		}
		hasValue = true
	})

	switch {
	case hasValue && !hasBare:
		if valueType == "" {
			valueType = ast.TypeInt
		}
		fn.ReturnType = valueType
	case hasBare && !hasValue && fn.ReturnType != ast.TypeUnit:
		fn.ReturnType = ""
	}
}

func exprType(e *ast.Expression, scope int, typed *ir.TypedIR) string {
	switch e.ExprKind {
	case ast.ExprLiteral:
		if t := ast.LiteralType(e.Value); t != "" {
			return t
		}
		return ast.TypeInt
	case ast.ExprIdentifier:
		if sym, ok := typed.Symbols.LookupFrom(scope, e.Value); ok && sym.Type.Base != "" {
			return sym.Type.Base
		}
	case ast.ExprBinaryOp:
		switch e.Value {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return ast.TypeBool
		}
		return exprType(e.Left, scope, typed)
	}
	return ""
}
