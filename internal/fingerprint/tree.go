package fingerprint

import "github.com/roach88/dcge/internal/ast"

// TreeValue converts a tree to the plain value MarshalCanonical accepts.
// Nil children are omitted; empty strings are kept.
func TreeValue(n ast.Node) map[string]any {
	switch v := n.(type) {
	case *ast.Program:
		if v == nil {
			break
		}
		return map[string]any{"kind": string(v.Kind()), "items": nodeList(v.Items)}
	case *ast.Module:
		if v == nil {
			break
		}
		return map[string]any{"kind": string(v.Kind()), "name": v.Name, "doc": v.Doc, "items": nodeList(v.Items)}
	case *ast.Function:
		if v == nil {
			break
		}
		return functionValue(v)
	case *ast.Struct:
		if v == nil {
			break
		}
		return map[string]any{"kind": string(v.Kind()), "name": v.Name, "doc": v.Doc, "fields": fieldList(v.Fields)}
	case *ast.Class:
		if v == nil {
			break
		}
		methods := make([]any, len(v.Methods))
		for i, m := range v.Methods {
			methods[i] = functionValue(m)
		}
		return map[string]any{
			"kind":    string(v.Kind()),
			"name":    v.Name,
			"doc":     v.Doc,
			"fields":  fieldList(v.Fields),
			"methods": methods,
		}
	case *ast.Block:
		if v == nil {
			break
		}
		return blockValue(v)
	case *ast.Statement:
		if v == nil {
			break
		}
		return statementValue(v)
	case *ast.Expression:
		if v == nil {
			break
		}
		return exprValue(v)
	}
	return map[string]any{"kind": "nil"}
}

func nodeList(items []ast.Node) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = TreeValue(item)
	}
	return out
}

func functionValue(fn *ast.Function) map[string]any {
	params := make([]any, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = map[string]any{"name": p.Name, "type": p.Type}
	}
	m := map[string]any{
		"kind":        string(fn.Kind()),
		"name":        fn.Name,
		"params":      params,
		"return_type": fn.ReturnType,
		"doc":         fn.Doc,
	}
	if fn.Body != nil {
		m["body"] = blockValue(fn.Body)
	}
	return m
}

func fieldList(fields []ast.Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = map[string]any{"name": f.Name, "type": f.Type, "visibility": string(f.Visibility)}
	}
	return out
}

func blockValue(b *ast.Block) map[string]any {
	return map[string]any{"kind": string(b.Kind()), "statements": nodeList(b.Statements)}
}

func statementValue(s *ast.Statement) map[string]any {
	m := map[string]any{"kind": string(s.Kind()), "stmt": string(s.StmtKind), "target": s.Target}
	if s.Value != nil {
		m["value"] = exprValue(s.Value)
	}
	if s.Cond != nil {
		m["cond"] = exprValue(s.Cond)
	}
	if s.Body != nil {
		m["body"] = blockValue(s.Body)
	}
	if s.Else != nil {
		m["else"] = blockValue(s.Else)
	}
	return m
}

func exprValue(e *ast.Expression) map[string]any {
	m := map[string]any{"kind": string(e.Kind()), "expr": string(e.ExprKind), "value": e.Value}
	if e.Left != nil {
		m["left"] = exprValue(e.Left)
	}
	if e.Right != nil {
		m["right"] = exprValue(e.Right)
	}
	if len(e.Args) > 0 {
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprValue(a)
		}
		m["args"] = args
	}
	return m
}
