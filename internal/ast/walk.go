package ast

// Walk visits n and its descendants in pre-order. If fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}
	if !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Program:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	case *Module:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	case *Function:
		if v.Body != nil {
			Walk(v.Body, fn)
		}
	case *Class:
		for _, m := range v.Methods {
			Walk(m, fn)
		}
	case *Block:
		for _, s := range v.Statements {
			Walk(s, fn)
		}
	case *Statement:
		if v.Cond != nil {
			Walk(v.Cond, fn)
		}
		if v.Value != nil {
			Walk(v.Value, fn)
		}
		if v.Body != nil {
			Walk(v.Body, fn)
		}
		if v.Else != nil {
			Walk(v.Else, fn)
		}
	case *Expression:
		if v.Left != nil {
			Walk(v.Left, fn)
		}
		if v.Right != nil {
			Walk(v.Right, fn)
		}
		for _, a := range v.Args {
			Walk(a, fn)
		}
	}
}

// isNilNode catches typed nil pointers stored in a Node.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Program:
		return v == nil
	case *Module:
		return v == nil
	case *Function:
		return v == nil
	case *Struct:
		return v == nil
	case *Class:
		return v == nil
	case *Block:
		return v == nil
	case *Statement:
		return v == nil
	case *Expression:
		return v == nil
	}
	return false
}

// Functions returns every function in the tree, methods included, in
// pre-order.
func Functions(n Node) []*Function {
	var fns []*Function
	Walk(n, func(n Node) bool {
		if fn, ok := n.(*Function); ok {
			fns = append(fns, fn)
		}
		return true
	})
	return fns
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	if n == nil || isNilNode(n) {
		return n
	}
	switch v := n.(type) {
	case *Program:
		return &Program{Items: cloneItems(v.Items)}
	case *Module:
		return &Module{Name: v.Name, Items: cloneItems(v.Items), Doc: v.Doc}
	case *Function:
		return cloneFunction(v)
	case *Struct:
		return &Struct{Name: v.Name, Fields: append([]Field(nil), v.Fields...), Doc: v.Doc}
	case *Class:
		c := &Class{Name: v.Name, Fields: append([]Field(nil), v.Fields...), Doc: v.Doc}
		for _, m := range v.Methods {
			c.Methods = append(c.Methods, cloneFunction(m))
		}
		return c
	case *Block:
		return cloneBlock(v)
	case *Statement:
		return cloneStatement(v)
	case *Expression:
		return cloneExpr(v)
	}
	return n
}

func cloneItems(items []Node) []Node {
	if items == nil {
		return nil
	}
	out := make([]Node, len(items))
	for i, item := range items {
		out[i] = Clone(item)
	}
	return out
}

func cloneFunction(f *Function) *Function {
	if f == nil {
		return nil
	}
	return &Function{
		Name:       f.Name,
		Params:     append([]Parameter(nil), f.Params...),
		ReturnType: f.ReturnType,
		Body:       cloneBlock(f.Body),
		Doc:        f.Doc,
	}
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	return &Block{Statements: cloneItems(b.Statements)}
}

func cloneStatement(s *Statement) *Statement {
	if s == nil {
		return nil
	}
	return &Statement{
		StmtKind: s.StmtKind,
		Target:   s.Target,
		Value:    cloneExpr(s.Value),
		Cond:     cloneExpr(s.Cond),
		Body:     cloneBlock(s.Body),
		Else:     cloneBlock(s.Else),
	}
}

func cloneExpr(e *Expression) *Expression {
	if e == nil {
		return nil
	}
	c := &Expression{
		ExprKind: e.ExprKind,
		Value:    e.Value,
		Left:     cloneExpr(e.Left),
		Right:    cloneExpr(e.Right),
	}
	for _, a := range e.Args {
		c.Args = append(c.Args, cloneExpr(a))
	}
	return c
}
