// Package target is the capability table of supported generation targets.
//
// Every stage that behaves differently per language (AST builder, emitter,
// grammar, validator) consults a Profile instead of branching on the
// language id. Adding a target is adding one entry to the registry.
package target

import (
	"fmt"
	"sort"

	"github.com/roach88/dcge/internal/intent"
)

// BlockStyle is how a target delimits blocks.
type BlockStyle int

const (
	BlockBraces BlockStyle = iota
	BlockIndent
)

// StructStyle is how a target renders a struct intent.
type StructStyle int

const (
	// StructNone means struct intents are rejected for the target.
	StructNone StructStyle = iota
	// StructRecord renders a plain record type.
	StructRecord
	// StructClass renders a class with fields and no methods.
	StructClass
)

// Check names a parse-shape check run by the validator.
type Check string

const (
	CheckBraces      Check = "braces"
	CheckIndentation Check = "indentation"
	CheckEntryPoint  Check = "entry_point"
)

// Profile describes what a target supports.
type Profile struct {
	Language    intent.Language
	Ordinal     int // T1..T4
	BlockStyle  BlockStyle
	StructStyle StructStyle

	// InfersReturnType is true when function intents get a placeholder
	// return type instead of none.
	InfersReturnType bool

	FileIO    bool
	Threading bool

	// EntryPoint is the token whose presence the entry point check requires.
	EntryPoint string

	// ForbiddenTokens are rejected by the simulated compile check.
	ForbiddenTokens []string

	Checks []Check
}

var registry = map[intent.Language]Profile{
	intent.Rust: {
		Language:         intent.Rust,
		Ordinal:          1,
		BlockStyle:       BlockBraces,
		StructStyle:      StructRecord,
		InfersReturnType: true,
		FileIO:           true,
		Threading:        true,
		ForbiddenTokens:  []string{"unsafe ", "transmute"},
		Checks:           []Check{CheckBraces},
	},
	intent.Python: {
		Language:        intent.Python,
		Ordinal:         2,
		BlockStyle:      BlockIndent,
		StructStyle:     StructClass,
		Threading:       true,
		ForbiddenTokens: []string{"exec(", "eval("},
		Checks:          []Check{CheckIndentation},
	},
	intent.TypeScript: {
		Language:        intent.TypeScript,
		Ordinal:         3,
		BlockStyle:      BlockBraces,
		StructStyle:     StructClass,
		ForbiddenTokens: []string{"eval(", "debugger"},
		Checks:          []Check{CheckBraces},
	},
	intent.Go: {
		Language:        intent.Go,
		Ordinal:         4,
		BlockStyle:      BlockBraces,
		StructStyle:     StructNone,
		EntryPoint:      "package ",
		ForbiddenTokens: []string{"unsafe.Pointer"},
		Checks:          []Check{CheckBraces, CheckEntryPoint},
	},
}

// UnsupportedError is returned for a language with no registered profile.
type UnsupportedError struct {
	Language intent.Language
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("Unsupported language: %s", e.Language)
}

// Lookup returns the profile for lang.
func Lookup(lang intent.Language) (Profile, error) {
	p, ok := registry[lang]
	if !ok {
		return Profile{}, &UnsupportedError{Language: lang}
	}
	return p, nil
}

// Languages returns every supported language ordered T1..Tn.
func Languages() []intent.Language {
	langs := make([]intent.Language, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		return registry[langs[i]].Ordinal < registry[langs[j]].Ordinal
	})
	return langs
}

// Supports reports whether p implements intent kind k.
func (p Profile) Supports(k intent.Kind) bool {
	switch k {
	case intent.KindFunction, intent.KindModule:
		return true
	case intent.KindStruct:
		return p.StructStyle != StructNone
	case intent.KindFileIO:
		return p.FileIO
	case intent.KindThreading:
		return p.Threading
	default:
		return false
	}
}
