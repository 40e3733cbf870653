// Package ir is the typed, scope-aware view of a syntax tree.
//
// Build walks an ast.Node once and produces a TypedIR: an arena symbol
// table, the ordered type constraints of every declaration and the error
// rules of every fallible function. Validate then checks the tree against
// it.
//
// Key constraints:
//   - scope 0 is the root and has no parent
//   - a name may be defined once per scope; shadowing an outer scope is allowed
//   - Validate collects every problem in one pass and never short-circuits
//   - a TypedIR belongs to one generation and is never shared
package ir
