package ast

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Function constraints:
//
//	param NAME[: TYPE]
//	let NAME = EXPR
//	return EXPR
//	if EXPR return EXPR
//	while EXPR
//	for NAME in EXPR
//	call EXPR
//
// Struct constraints:
//
//	[public|private|protected] field NAME: TYPE
//	method NAME
//
// Constraints that match none of these forms are ignored; constraints
// that match a form but are malformed are errors.
var (
	reParam  = regexp.MustCompile(`^param\s+([A-Za-z_]\w*)(?:\s*:\s*(\S+))?$`)
	reLet    = regexp.MustCompile(`^let\s+([A-Za-z_]\w*)\s*=\s*(.+)$`)
	reReturn = regexp.MustCompile(`^return\s+(.+)$`)
	reIf     = regexp.MustCompile(`^if\s+(.+?)\s+return\s+(.+)$`)
	reWhile  = regexp.MustCompile(`^while\s+(.+)$`)
	reFor    = regexp.MustCompile(`^for\s+([A-Za-z_]\w*)\s+in\s+(.+)$`)
	reCall   = regexp.MustCompile(`^call\s+(.+)$`)
	reField  = regexp.MustCompile(`^(?:(public|private|protected)\s+)?field\s+([A-Za-z_]\w*)\s*:\s*(\S+)$`)
	reMethod = regexp.MustCompile(`^method\s+([A-Za-z_]\w*)$`)
)

func parseFunctionConstraint(c string) (Node, *Parameter, error) {
	c = strings.TrimSpace(c)

	if m := reParam.FindStringSubmatch(c); m != nil {
		typ := m[2]
		if typ == "" {
			typ = TypeInt
		}
		return nil, &Parameter{Name: m[1], Type: typ}, nil
	}
	if m := reLet.FindStringSubmatch(c); m != nil {
		value, err := ParseExpr(m[2])
		if err != nil {
			return nil, nil, err
		}
		return Assign(m[1], value), nil, nil
	}
	if m := reIf.FindStringSubmatch(c); m != nil {
		cond, err := ParseExpr(m[1])
		if err != nil {
			return nil, nil, err
		}
		value, err := ParseExpr(m[2])
		if err != nil {
			return nil, nil, err
		}
		return &Statement{
			StmtKind: StmtIf,
			Cond:     cond,
			Body:     &Block{Statements: []Node{Return(value)}},
		}, nil, nil
	}
	if m := reReturn.FindStringSubmatch(c); m != nil {
		value, err := ParseExpr(m[1])
		if err != nil {
			return nil, nil, err
		}
		return Return(value), nil, nil
	}
	if m := reWhile.FindStringSubmatch(c); m != nil {
		cond, err := ParseExpr(m[1])
		if err != nil {
			return nil, nil, err
		}
		return &Statement{StmtKind: StmtWhile, Cond: cond, Body: &Block{}}, nil, nil
	}
	if m := reFor.FindStringSubmatch(c); m != nil {
		iter, err := ParseExpr(m[2])
		if err != nil {
			return nil, nil, err
		}
		return &Statement{StmtKind: StmtFor, Target: m[1], Value: iter, Body: &Block{}}, nil, nil
	}
	if m := reCall.FindStringSubmatch(c); m != nil {
		call, err := ParseExpr(m[1])
		if err != nil {
			return nil, nil, err
		}
		if call.ExprKind != ExprFunctionCall {
			return nil, nil, fmt.Errorf("call constraint needs a function call, got %s", call.ExprKind)
		}
		return call, nil, nil
	}
	return nil, nil, nil
}

func parseStructConstraint(c string) (*Field, *Function, error) {
	c = strings.TrimSpace(c)
	if m := reField.FindStringSubmatch(c); m != nil {
		vis := Visibility(m[1])
		if vis == "" {
			vis = Public
		}
		return &Field{Name: m[2], Type: m[3], Visibility: vis}, nil, nil
	}
	if m := reMethod.FindStringSubmatch(c); m != nil {
		return nil, &Function{Name: m[1], Body: &Block{Statements: []Node{Return(nil)}}}, nil
	}
	if strings.HasPrefix(c, "field ") {
		return nil, nil, fmt.Errorf("field constraint needs the form \"field name: type\"")
	}
	return nil, nil, nil
}

// ParseExpr parses the small expression language used in constraints:
// literals, identifiers (with :: and . paths), calls, parentheses and the
// binary operators || && == != < <= > >= + - * / %.
func ParseExpr(src string) (*Expression, error) {
	toks, err := scanExpr(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected %q", p.toks[p.pos].text)
	}
	return e, nil
}

type exprTokKind int

const (
	tokIdent exprTokKind = iota
	tokLiteral
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type exprTok struct {
	kind exprTokKind
	text string
}

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// Precedence returns the binding strength of a binary operator, higher
// binds tighter. Unknown operators return 0.
func Precedence(op string) int {
	return binaryPrec[op]
}

func scanExpr(src string) ([]exprTok, error) {
	var toks []exprTok
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, exprTok{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, exprTok{tokRParen, ")"})
			i++
		case r == ',':
			toks = append(toks, exprTok{tokComma, ","})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, exprTok{tokLiteral, string(rs[i : j+1])})
			i = j + 1
		case unicode.IsDigit(r):
			j := i
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			if j+1 < len(rs) && rs[j] == '.' && unicode.IsDigit(rs[j+1]) {
				j++
				for j < len(rs) && unicode.IsDigit(rs[j]) {
					j++
				}
			}
			toks = append(toks, exprTok{tokLiteral, string(rs[i:j])})
			i = j
		case r == '_' || unicode.IsLetter(r):
			j := i
			for j < len(rs) && (rs[j] == '_' || rs[j] == '.' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) ||
				(rs[j] == ':' && j+1 < len(rs) && rs[j+1] == ':')) {
				if rs[j] == ':' {
					j++
				}
				j++
			}
			word := string(rs[i:j])
			if word == "true" || word == "false" {
				toks = append(toks, exprTok{tokLiteral, word})
			} else {
				toks = append(toks, exprTok{tokIdent, word})
			}
			i = j
		default:
			if i+1 < len(rs) {
				if two := string(rs[i : i+2]); binaryPrec[two] > 0 {
					toks = append(toks, exprTok{tokOp, two})
					i += 2
					continue
				}
			}
			if one := string(r); binaryPrec[one] > 0 {
				toks = append(toks, exprTok{tokOp, one})
				i++
				continue
			}
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return toks, nil
}

type exprParser struct {
	toks []exprTok
	pos  int
}

func (p *exprParser) peek() (exprTok, bool) {
	if p.pos >= len(p.toks) {
		return exprTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) parseBinary(minPrec int) (*Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOp || binaryPrec[tok.text] <= minPrec {
			return left, nil
		}
		p.pos++
		right, err := p.parseBinary(binaryPrec[tok.text])
		if err != nil {
			return nil, err
		}
		left = Binary(tok.text, left, right)
	}
}

func (p *exprParser) parsePrimary() (*Expression, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	p.pos++

	switch tok.kind {
	case tokLiteral:
		return Lit(tok.text), nil
	case tokOp:
		if tok.text != "-" {
			return nil, fmt.Errorf("unexpected %q", tok.text)
		}
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		// Negation has no node of its own: a number literal absorbs the
		// sign, anything else becomes 0 - x.
		if operand.ExprKind == ExprLiteral && !strings.HasPrefix(operand.Value, "-") {
			if t := LiteralType(operand.Value); t == TypeInt || t == TypeFloat {
				return Lit("-" + operand.Value), nil
			}
		}
		return Binary("-", Lit("0"), operand), nil
	case tokLParen:
		e, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if next, ok := p.peek(); !ok || next.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return e, nil
	case tokIdent:
		next, ok := p.peek()
		if !ok || next.kind != tokLParen {
			return Ident(tok.text), nil
		}
		p.pos++
		call := Call(tok.text)
		if next, ok := p.peek(); ok && next.kind == tokRParen {
			p.pos++
			return call, nil
		}
		for {
			arg, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("missing closing parenthesis in call to %s", tok.text)
			}
			p.pos++
			if next.kind == tokRParen {
				return call, nil
			}
			if next.kind != tokComma {
				return nil, fmt.Errorf("unexpected %q in call to %s", next.text, tok.text)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected %q", tok.text)
	}
}
