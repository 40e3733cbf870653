package intent

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is an intent authoring error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileIntent converts one CUE intent struct into a Spec.
//
// The struct label doubles as the name for function, struct and module
// intents unless an explicit name field is present:
//
//	intent: compute: {
//		language: "rust"
//		kind:     "function"
//		purpose:  "takes a and b"
//	}
func CompileIntent(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}

	lang, err := requiredString(v, "language")
	if err != nil {
		return nil, err
	}
	spec.Language = Language(lang)

	kind, err := requiredString(v, "kind")
	if err != nil {
		return nil, err
	}
	spec.Kind = Kind(kind)

	if spec.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if spec.Name == "" && (spec.Kind == KindFunction || spec.Kind == KindStruct || spec.Kind == KindModule) {
		labels := v.Path().Selectors()
		if len(labels) > 0 {
			spec.Name = labels[len(labels)-1].String()
		}
	}
	if spec.Purpose, err = optionalString(v, "purpose"); err != nil {
		return nil, err
	}
	if spec.Operation, err = optionalString(v, "operation"); err != nil {
		return nil, err
	}
	if spec.Docstring, err = optionalString(v, "docstring"); err != nil {
		return nil, err
	}

	constraintsVal := v.LookupPath(cue.ParsePath("constraints"))
	if constraintsVal.Exists() {
		iter, err := constraintsVal.List()
		if err != nil {
			return nil, &CompileError{
				Field:   "constraints",
				Message: "constraints must be a list of strings",
				Pos:     constraintsVal.Pos(),
			}
		}
		for iter.Next() {
			c, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Constraints = append(spec.Constraints, c)
		}
	}

	return spec, nil
}

// CompileIntents compiles every field of the top-level "intent" struct, in
// declaration order. Compile errors are collected, not fail-fast.
func CompileIntents(root cue.Value) ([]Spec, []error) {
	intentsVal := root.LookupPath(cue.ParsePath("intent"))
	if !intentsVal.Exists() {
		return nil, nil
	}

	iter, err := intentsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var specs []Spec
	var errs []error
	for iter.Next() {
		spec, err := CompileIntent(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("intent.%s: %w", iter.Label(), err))
			continue
		}
		specs = append(specs, *spec)
	}
	return specs, errs
}

// ParseCUE compiles CUE source text holding one or more intents.
func ParseCUE(filename string, data []byte) ([]Spec, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return CompileIntents(v)
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
