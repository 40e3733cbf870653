package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Language identifies a generation target by its id ("rust", "python", ...).
// Any string is a syntactically valid Language; whether it is supported is
// decided by the target registry, not here.
type Language string

// Known target languages.
const (
	Rust       Language = "rust"
	Python     Language = "python"
	TypeScript Language = "typescript"
	Go         Language = "go"
)

// Kind is the intent variant.
type Kind string

const (
	KindFunction  Kind = "function"
	KindStruct    Kind = "struct"
	KindModule    Kind = "module"
	KindFileIO    Kind = "file_io"
	KindThreading Kind = "threading"
)

// Kinds lists every intent variant in declaration order.
var Kinds = []Kind{KindFunction, KindStruct, KindModule, KindFileIO, KindThreading}

// Spec describes what to generate. It is created by the caller, never
// mutated by the engine, and consumed by exactly one generation.
//
// Name and Purpose apply to function, struct and module intents.
// Operation applies to file_io ("read" | "write") and threading intents.
type Spec struct {
	Language    Language `json:"language" yaml:"language" validate:"required"`
	Kind        Kind     `json:"kind" yaml:"kind" validate:"required,oneof=function struct module file_io threading"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,ident"`
	Purpose     string   `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Operation   string   `json:"operation,omitempty" yaml:"operation,omitempty" validate:"omitempty,ident"`
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"dive,required"`
	Docstring   string   `json:"docstring,omitempty" yaml:"docstring,omitempty"`
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent reports whether s can be used as an identifier in every target.
func IsIdent(s string) bool {
	return identPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "ident", func(fl validator.FieldLevel) bool {
		return IsIdent(fl.Field().String())
	})
	return v
}

// mustRegister panics when a custom tag cannot be registered. Tags are
// fixed at build time, so a failure is a programming error.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("intent: register %q validation: %v", tag, err))
	}
}

// InvalidError reports every field-level problem found in a Spec.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return "invalid intent: " + strings.Join(e.Problems, "; ")
}

// Validate checks the Spec's shape. It does not check whether the
// language/kind combination is implemented; the AST builder does that.
func (s Spec) Validate() error {
	var problems []string

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate intent: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	switch s.Kind {
	case KindFunction, KindStruct, KindModule:
		if s.Name == "" {
			problems = append(problems, fmt.Sprintf("%s intent requires a name", s.Kind))
		}
	case KindFileIO, KindThreading:
		if s.Operation == "" {
			problems = append(problems, fmt.Sprintf("%s intent requires an operation", s.Kind))
		}
	}

	if len(problems) > 0 {
		return &InvalidError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", field, fe.Value(), fe.Param())
	case "ident":
		return fmt.Sprintf("%s %q is not a valid identifier", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
}

// HasDocstring reports whether the caller supplied a docstring.
func (s Spec) HasDocstring() bool {
	return strings.TrimSpace(s.Docstring) != ""
}

// Label returns a short human-readable identifier for logs and CLI output.
func (s Spec) Label() string {
	subject := s.Name
	if subject == "" {
		subject = s.Operation
	}
	return fmt.Sprintf("%s/%s:%s", s.Language, s.Kind, subject)
}
