package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/dcge/internal/ast"
)

// CheckKind names one of the IR checks.
type CheckKind string

const (
	CheckResolution CheckKind = "resolution"
	CheckTypes      CheckKind = "types"
	CheckErrorRules CheckKind = "error_rules"
)

// CheckError is one problem found by Validate.
type CheckError struct {
	Check   CheckKind
	Subject string
	Message string
}

func (e *CheckError) Error() string {
	return e.Message
}

// Validate runs symbol resolution, type consistency and error-rule
// consistency over root. Every check runs to completion and all problems
// are returned together; an empty result means the tree is consistent.
//
// root must be the tree Build was called with.
func (t *TypedIR) Validate(root ast.Node) []error {
	c := &checker{ir: t}
	c.resolve(root)
	c.types(root)
	c.errorRules(root)
	return c.errs
}

type checker struct {
	ir   *TypedIR
	errs []error
}

func (c *checker) fail(kind CheckKind, subject, format string, args ...any) {
	c.errs = append(c.errs, &CheckError{Check: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// resolve reports identifiers that are not visible from the scope of the
// statement using them. Qualified paths (a::b, a.b) name things outside
// the tree and are not checked.
func (c *checker) resolve(root ast.Node) {
	ast.Walk(root, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Statement:
			scope := c.ir.scopeOf[v]
			c.resolveExpr(v.Cond, scope)
			c.resolveExpr(v.Value, scope)
		case *ast.Expression:
			// Only expression statements carry a scope; operands were
			// resolved through their statement.
			if scope, ok := c.ir.scopeOf[v]; ok {
				c.resolveExpr(v, scope)
			}
			return false
		}
		return true
	})
}

func (c *checker) resolveExpr(e *ast.Expression, scope int) {
	if e == nil {
		return
	}
	switch e.ExprKind {
	case ast.ExprIdentifier:
		if isQualified(e.Value) {
			return
		}
		if _, ok := c.ir.Symbols.LookupFrom(scope, e.Value); !ok {
			c.fail(CheckResolution, e.Value, "unresolved identifier %q", e.Value)
		}
	case ast.ExprBinaryOp:
		c.resolveExpr(e.Left, scope)
		c.resolveExpr(e.Right, scope)
	case ast.ExprFunctionCall:
		for _, a := range e.Args {
			c.resolveExpr(a, scope)
		}
	}
}

func isQualified(name string) bool {
	return strings.Contains(name, "::") || strings.Contains(name, ".")
}

// types checks declared types are present and that each function's
// returns agree with its declared return type.
func (c *checker) types(root ast.Node) {
	for _, tc := range c.ir.Constraints {
		if strings.TrimSpace(tc.Expected) == "" {
			c.fail(CheckTypes, tc.Subject, "%s has no type", tc.Subject)
		}
	}

	for _, fn := range ast.Functions(root) {
		returnsValue := fn.ReturnType != "" && fn.ReturnType != ast.TypeUnit
		for _, ret := range returns(fn) {
			switch {
			case ret.Value != nil && !returnsValue:
				c.fail(CheckTypes, fn.Name, "function %s returns a value but declares no return type", fn.Name)
			case ret.Value == nil && returnsValue && !isUnitResult(fn.ReturnType):
				c.fail(CheckTypes, fn.Name, "function %s returns no value but declares %s", fn.Name, fn.ReturnType)
			case ret.Value != nil && returnsValue:
				c.checkReturnValue(fn, ret)
			}
		}
	}
}

// checkReturnValue compares literal and identifier returns against the
// declared type. Anything else is accepted.
func (c *checker) checkReturnValue(fn *ast.Function, ret *ast.Statement) {
	want := fn.ReturnType
	if payload, ok := ast.IsResult(want); ok {
		// Fallible functions return the fallible primitive's result.
		if ret.Value.ExprKind == ast.ExprFunctionCall {
			return
		}
		want = payload
	}
	var got string
	switch ret.Value.ExprKind {
	case ast.ExprLiteral:
		got = ast.LiteralType(ret.Value.Value)
	case ast.ExprIdentifier:
		scope, ok := c.ir.scopeOf[ret]
		if !ok {
			return
		}
		if sym, ok := c.ir.Symbols.LookupFrom(scope, ret.Value.Value); ok {
			got = sym.Type.Base
		}
	}
	if got != "" && want != "" && got != want && isNeutral(want) {
		c.fail(CheckTypes, fn.Name, "function %s returns %s but declares %s", fn.Name, got, want)
	}
}

func isNeutral(t string) bool {
	switch t {
	case ast.TypeInt, ast.TypeFloat, ast.TypeString, ast.TypeBool, ast.TypeUnit:
		return true
	}
	return false
}

func isUnitResult(t string) bool {
	payload, ok := ast.IsResult(t)
	return ok && payload == ast.TypeUnit
}

// errorRules checks every fallible function actually produces a result.
func (c *checker) errorRules(root ast.Node) {
	fns := make(map[string]*ast.Function)
	for _, fn := range ast.Functions(root) {
		fns[fn.Name] = fn
	}
	for _, rule := range c.ir.ErrorRules {
		if rule.Payload == "" {
			c.fail(CheckErrorRules, rule.Function, "function %s has an empty result payload", rule.Function)
			continue
		}
		fn, ok := fns[rule.Function]
		if !ok {
			c.fail(CheckErrorRules, rule.Function, "error rule for unknown function %s", rule.Function)
			continue
		}
		produces := false
		for _, ret := range returns(fn) {
			if ret.Value != nil {
				produces = true
				break
			}
		}
		if !produces {
			c.fail(CheckErrorRules, fn.Name, "fallible function %s never returns a result", fn.Name)
		}
	}
}

// returns collects the return statements of fn, not descending into
// nested functions.
func returns(fn *ast.Function) []*ast.Statement {
	var out []*ast.Statement
	if fn.Body == nil {
		return nil
	}
	ast.Walk(fn.Body, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Function:
			return false
		case *ast.Statement:
			if v.StmtKind == ast.StmtReturn {
				out = append(out, v)
			}
		}
		return true
	})
	return out
}
