// Package grammar holds the per-target grammar tables and the table-driven
// top-down parser that runs over them.
//
// The shipped grammars describe only the declaration outline of generated
// code (items, signatures, fields). Completeness is table data, not part of
// the parsing algorithm.
package grammar

import (
	"fmt"
	"sort"

	"github.com/roach88/dcge/internal/intent"
)

// EOF is the end-of-input terminal.
const EOF = "$"

// Production is a rewrite rule LHS → RHS. An empty RHS is ε.
type Production struct {
	LHS string
	RHS []string
}

func (p Production) String() string {
	if len(p.RHS) == 0 {
		return p.LHS + " → ε"
	}
	s := p.LHS + " →"
	for _, sym := range p.RHS {
		s += " " + sym
	}
	return s
}

// TableKey indexes the parse table.
type TableKey struct {
	NonTerminal string
	Lookahead   string
}

// Grammar is an LL(1) grammar with its parse table. It is read-only after
// construction and safe to share between goroutines.
type Grammar struct {
	Language     intent.Language
	Start        string
	Terminals    map[string]struct{}
	NonTerminals map[string]struct{}
	Productions  []Production
	Table        map[TableKey]int
}

// ParseError reports the first mismatch; parsing never recovers.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at token %d: %s", e.Position, e.Message)
}

// IsTerminal reports whether sym is a terminal of g.
func (g *Grammar) IsTerminal(sym string) bool {
	_, ok := g.Terminals[sym]
	return ok
}

// Parse runs the table-driven parse over tokens and returns the indices of
// the productions applied, in order. The end of input is implicit.
func (g *Grammar) Parse(tokens []string) ([]int, error) {
	stack := []string{g.Start}
	pos := 0
	lookahead := func() string {
		if pos < len(tokens) {
			return tokens[pos]
		}
		return EOF
	}

	var applied []int
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if g.IsTerminal(top) {
			if got := lookahead(); top != got {
				return nil, &ParseError{Position: pos, Message: fmt.Sprintf("expected %s got %s", top, got)}
			}
			if top != EOF {
				pos++
			}
			continue
		}

		idx, ok := g.Table[TableKey{NonTerminal: top, Lookahead: lookahead()}]
		if !ok {
			return nil, &ParseError{Position: pos, Message: fmt.Sprintf("no production for %s with lookahead %s", top, lookahead())}
		}
		applied = append(applied, idx)

		rhs := g.Productions[idx].RHS
		for i := len(rhs) - 1; i >= 0; i-- {
			stack = append(stack, rhs[i])
		}
	}

	if pos < len(tokens) {
		return nil, &ParseError{Position: pos, Message: fmt.Sprintf("unexpected trailing token %s", tokens[pos])}
	}
	return applied, nil
}

// Validate checks that every table entry references a declared
// non-terminal, a declared terminal and a production of that non-terminal.
func (g *Grammar) Validate() error {
	if _, ok := g.NonTerminals[g.Start]; !ok {
		return fmt.Errorf("%s grammar: start symbol %q is not a non-terminal", g.Language, g.Start)
	}
	keys := make([]TableKey, 0, len(g.Table))
	for k := range g.Table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].NonTerminal != keys[j].NonTerminal {
			return keys[i].NonTerminal < keys[j].NonTerminal
		}
		return keys[i].Lookahead < keys[j].Lookahead
	})
	for _, k := range keys {
		idx := g.Table[k]
		if _, ok := g.NonTerminals[k.NonTerminal]; !ok {
			return fmt.Errorf("%s grammar: table row %q is not a non-terminal", g.Language, k.NonTerminal)
		}
		if !g.IsTerminal(k.Lookahead) {
			return fmt.Errorf("%s grammar: lookahead %q is not a terminal", g.Language, k.Lookahead)
		}
		if idx < 0 || idx >= len(g.Productions) {
			return fmt.Errorf("%s grammar: table entry (%s, %s) has invalid production %d", g.Language, k.NonTerminal, k.Lookahead, idx)
		}
		if g.Productions[idx].LHS != k.NonTerminal {
			return fmt.Errorf("%s grammar: table entry (%s, %s) points at %s", g.Language, k.NonTerminal, k.Lookahead, g.Productions[idx])
		}
	}
	return nil
}

// SortedTerminals returns the terminal set in lexical order.
func (g *Grammar) SortedTerminals() []string {
	return sortedKeys(g.Terminals)
}

// SortedNonTerminals returns the non-terminal set in lexical order.
func (g *Grammar) SortedNonTerminals() []string {
	return sortedKeys(g.NonTerminals)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// builder assembles a grammar; terminals are every RHS symbol that never
// appears as a LHS, plus EOF.
type builder struct {
	g *Grammar
}

func newBuilder(lang intent.Language, start string) *builder {
	return &builder{g: &Grammar{
		Language:     lang,
		Start:        start,
		Terminals:    map[string]struct{}{EOF: {}},
		NonTerminals: map[string]struct{}{},
		Table:        map[TableKey]int{},
	}}
}

// rule adds a production and registers it under each lookahead.
func (b *builder) rule(lookaheads []string, lhs string, rhs ...string) {
	idx := len(b.g.Productions)
	b.g.Productions = append(b.g.Productions, Production{LHS: lhs, RHS: rhs})
	for _, la := range lookaheads {
		b.g.Table[TableKey{NonTerminal: lhs, Lookahead: la}] = idx
	}
}

func (b *builder) build() *Grammar {
	for _, p := range b.g.Productions {
		b.g.NonTerminals[p.LHS] = struct{}{}
	}
	for _, p := range b.g.Productions {
		for _, sym := range p.RHS {
			if _, nt := b.g.NonTerminals[sym]; !nt {
				b.g.Terminals[sym] = struct{}{}
			}
		}
	}
	return b.g
}

func on(lookaheads ...string) []string {
	return lookaheads
}
