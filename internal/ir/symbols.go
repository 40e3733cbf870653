package ir

import (
	"errors"
	"fmt"
)

// SymbolKind is the kind of a named entity.
type SymbolKind string

const (
	SymVariable SymbolKind = "variable"
	SymFunction SymbolKind = "function"
	SymType     SymbolKind = "type"
	SymModule   SymbolKind = "module"
)

// TypeInfo describes the type attached to a symbol.
type TypeInfo struct {
	Base          string   `json:"base"`
	IsReference   bool     `json:"is_reference"`
	IsMutable     bool     `json:"is_mutable"`
	GenericParams []string `json:"generic_params,omitempty"`
}

// Symbol is a named entity in a scope.
type Symbol struct {
	Name    string     `json:"name"`
	Kind    SymbolKind `json:"kind"`
	Type    TypeInfo   `json:"type"`
	Mutable bool       `json:"mutable"`
}

// NoParent marks the root scope.
const NoParent = -1

// Scope is one level of the symbol table. Parent is an index into the
// owning table's arena, or NoParent for the root.
type Scope struct {
	Name    string
	Parent  int
	symbols map[string]Symbol
	order   []string
}

// Symbols returns the scope's symbols in insertion order.
func (s *Scope) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// ErrExitRootScope is returned when ExitScope is called on the root scope.
var ErrExitRootScope = errors.New("cannot exit the root scope")

// RedefinitionError is returned when a name is added twice to one scope.
type RedefinitionError struct {
	Name  string
	Scope string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("symbol %q already defined in this scope (%s)", e.Name, e.Scope)
}

// SymbolTable is an arena of scopes addressed by index, with a cursor on
// the current scope. Exiting a scope moves the cursor to the parent; the
// exited scope stays in the arena but is no longer reachable by Lookup.
type SymbolTable struct {
	scopes  []Scope
	current int
}

// NewSymbolTable creates a table holding only the root scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes: []Scope{{Name: "root", Parent: NoParent, symbols: map[string]Symbol{}}},
	}
}

// EnterScope pushes a new scope under the current one and returns its index.
func (t *SymbolTable) EnterScope(name string) int {
	t.scopes = append(t.scopes, Scope{
		Name:    name,
		Parent:  t.current,
		symbols: map[string]Symbol{},
	})
	t.current = len(t.scopes) - 1
	return t.current
}

// ExitScope moves the cursor back to the parent scope.
func (t *SymbolTable) ExitScope() error {
	parent := t.scopes[t.current].Parent
	if parent == NoParent {
		return ErrExitRootScope
	}
	t.current = parent
	return nil
}

// AddSymbol inserts sym into the current scope. Shadowing a name from an
// enclosing scope is allowed; redefining it in the same scope is not.
func (t *SymbolTable) AddSymbol(sym Symbol) error {
	s := &t.scopes[t.current]
	if _, exists := s.symbols[sym.Name]; exists {
		return &RedefinitionError{Name: sym.Name, Scope: s.Name}
	}
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return nil
}

// Lookup resolves name from the current scope outwards.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	return t.LookupFrom(t.current, name)
}

// LookupFrom resolves name starting at scope index, walking parents to
// the root.
func (t *SymbolTable) LookupFrom(scope int, name string) (Symbol, bool) {
	for idx := scope; idx != NoParent && idx < len(t.scopes); idx = t.scopes[idx].Parent {
		if sym, ok := t.scopes[idx].symbols[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Current returns the index of the current scope.
func (t *SymbolTable) Current() int {
	return t.current
}

// Depth returns how many scopes lie between the current scope and the root.
func (t *SymbolTable) Depth() int {
	depth := 0
	for idx := t.current; t.scopes[idx].Parent != NoParent; idx = t.scopes[idx].Parent {
		depth++
	}
	return depth
}

// Scope returns the scope at index.
func (t *SymbolTable) Scope(index int) *Scope {
	return &t.scopes[index]
}

// Len returns the number of scopes ever created.
func (t *SymbolTable) Len() int {
	return len(t.scopes)
}
