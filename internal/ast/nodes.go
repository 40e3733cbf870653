// Package ast is the target-agnostic syntax tree shared by every emitter.
//
// Nodes form a strict tree: each node exclusively owns its children, there
// is no sharing and no cycles. Trees are built fresh per generation, may be
// mutated in place by the repair step, and are discarded afterwards.
package ast

// NodeKind identifies the variant of a Node.
type NodeKind string

const (
	KindProgram    NodeKind = "program"
	KindModule     NodeKind = "module"
	KindFunction   NodeKind = "function"
	KindStruct     NodeKind = "struct"
	KindClass      NodeKind = "class"
	KindBlock      NodeKind = "block"
	KindStatement  NodeKind = "statement"
	KindExpression NodeKind = "expression"
)

// Node is the closed set of tree nodes.
type Node interface {
	Kind() NodeKind
	node()
}

// Program is a sequence of top-level items.
type Program struct {
	Items []Node
}

// Module is a named group of items.
type Module struct {
	Name  string
	Items []Node
	Doc   string
}

// Parameter is a typed function parameter. Types use the neutral type
// vocabulary (int, string, bool, unit, path, result<T>, list<T>).
type Parameter struct {
	Name string
	Type string
}

// Function is a function or method declaration. ReturnType is empty when
// the function declares none.
type Function struct {
	Name       string
	Params     []Parameter
	ReturnType string
	Body       *Block
	Doc        string
}

// Visibility of a field.
type Visibility string

const (
	Public    Visibility = "public"
	Private   Visibility = "private"
	Protected Visibility = "protected"
)

// Field is a typed member of a Struct or Class.
type Field struct {
	Name       string
	Type       string
	Visibility Visibility
}

// Struct is a record type.
type Struct struct {
	Name   string
	Fields []Field
	Doc    string
}

// Class is a type with fields and methods.
type Class struct {
	Name    string
	Fields  []Field
	Methods []*Function
	Doc     string
}

// Block is an ordered list of statements. Statements are usually
// *Statement or *Expression; other node kinds are allowed and rendered
// according to the emitter's node policy.
type Block struct {
	Statements []Node
}

// StatementKind identifies the variant of a Statement.
type StatementKind string

const (
	StmtAssignment StatementKind = "assignment"
	StmtReturn     StatementKind = "return"
	StmtIf         StatementKind = "if"
	StmtWhile      StatementKind = "while"
	StmtFor        StatementKind = "for"
)

// Statement is a single statement.
//
//	assignment: Target = Value
//	return:     return Value (Value may be nil)
//	if:         if Cond Body else Else (Else may be nil)
//	while:      while Cond Body
//	for:        for Target in Value Body
type Statement struct {
	StmtKind StatementKind
	Target   string
	Value    *Expression
	Cond     *Expression
	Body     *Block
	Else     *Block
}

// ExpressionKind identifies the variant of an Expression.
type ExpressionKind string

const (
	ExprLiteral      ExpressionKind = "literal"
	ExprIdentifier   ExpressionKind = "identifier"
	ExprBinaryOp     ExpressionKind = "binary_op"
	ExprFunctionCall ExpressionKind = "function_call"
)

// Expression is a single expression.
//
//	literal:       Value is the literal text (42, "text", true)
//	identifier:    Value is the name
//	binary_op:     Left Value Right, Value is the operator
//	function_call: Value(Args...), Value is the callee
type Expression struct {
	ExprKind ExpressionKind
	Value    string
	Left     *Expression
	Right    *Expression
	Args     []*Expression
}

func (*Program) Kind() NodeKind    { return KindProgram }
func (*Module) Kind() NodeKind     { return KindModule }
func (*Function) Kind() NodeKind   { return KindFunction }
func (*Struct) Kind() NodeKind     { return KindStruct }
func (*Class) Kind() NodeKind      { return KindClass }
func (*Block) Kind() NodeKind      { return KindBlock }
func (*Statement) Kind() NodeKind  { return KindStatement }
func (*Expression) Kind() NodeKind { return KindExpression }

func (*Program) node()    {}
func (*Module) node()     {}
func (*Function) node()   {}
func (*Struct) node()     {}
func (*Class) node()      {}
func (*Block) node()      {}
func (*Statement) node()  {}
func (*Expression) node() {}

// Lit builds a literal expression.
func Lit(text string) *Expression {
	return &Expression{ExprKind: ExprLiteral, Value: text}
}

// Ident builds an identifier expression.
func Ident(name string) *Expression {
	return &Expression{ExprKind: ExprIdentifier, Value: name}
}

// Binary builds a binary operation.
func Binary(op string, left, right *Expression) *Expression {
	return &Expression{ExprKind: ExprBinaryOp, Value: op, Left: left, Right: right}
}

// Call builds a function call.
func Call(callee string, args ...*Expression) *Expression {
	return &Expression{ExprKind: ExprFunctionCall, Value: callee, Args: args}
}

// Return builds a return statement; value may be nil.
func Return(value *Expression) *Statement {
	return &Statement{StmtKind: StmtReturn, Value: value}
}

// Assign builds an assignment statement.
func Assign(target string, value *Expression) *Statement {
	return &Statement{StmtKind: StmtAssignment, Target: target, Value: value}
}
