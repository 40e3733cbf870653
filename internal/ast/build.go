package ast

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/target"
)

// Neutral type names understood by every emitter.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeString = "string"
	TypeBool   = "bool"
	TypeUnit   = "unit"
	TypePath   = "path"
)

// LiteralType returns the neutral type of a literal's source text, or ""
// when the text is not a literal.
func LiteralType(lit string) string {
	switch {
	case lit == "true" || lit == "false":
		return TypeBool
	case strings.HasPrefix(lit, `"`):
		return TypeString
	}
	digits := strings.TrimPrefix(lit, "-")
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return ""
	}
	if strings.Contains(digits, ".") {
		return TypeFloat
	}
	return TypeInt
}

// Result wraps a type as fallible: result<T>.
func Result(inner string) string {
	return "result<" + inner + ">"
}

// IsResult reports whether t is a fallible type and returns its payload.
func IsResult(t string) (string, bool) {
	if strings.HasPrefix(t, "result<") && strings.HasSuffix(t, ">") {
		return t[len("result<") : len(t)-1], true
	}
	return "", false
}

// BuildErrorCode categorizes AST build failures.
type BuildErrorCode string

const (
	ErrCodeUnsupportedLanguage BuildErrorCode = "unsupported_language"
	ErrCodeNotImplemented      BuildErrorCode = "not_implemented"
	ErrCodeInvalidIntent       BuildErrorCode = "invalid_intent"
)

// BuildError is returned when an intent cannot be turned into a tree.
type BuildError struct {
	Code    BuildErrorCode
	Message string
}

func (e *BuildError) Error() string {
	return e.Message
}

// IsUnsupported reports whether err is an unsupported language or
// not-implemented combination.
func IsUnsupported(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeUnsupportedLanguage || be.Code == ErrCodeNotImplemented
	}
	return false
}

func unsupportedLanguage(format string, args ...any) *BuildError {
	return &BuildError{Code: ErrCodeUnsupportedLanguage, Message: "Unsupported language: " + fmt.Sprintf(format, args...)}
}

func notImplemented(format string, args ...any) *BuildError {
	return &BuildError{Code: ErrCodeNotImplemented, Message: fmt.Sprintf(format, args...) + ": not implemented"}
}

func invalidIntent(format string, args ...any) *BuildError {
	return &BuildError{Code: ErrCodeInvalidIntent, Message: "invalid intent: " + fmt.Sprintf(format, args...)}
}

// Build maps an intent to a tree. It is a pure function of spec and never
// returns a partial tree.
func Build(spec intent.Spec) (Node, error) {
	prof, err := target.Lookup(spec.Language)
	if err != nil {
		return nil, unsupportedLanguage("%s", spec.Language)
	}

	switch spec.Kind {
	case intent.KindFunction:
		return buildFunction(spec, prof)
	case intent.KindStruct:
		return buildStruct(spec, prof)
	case intent.KindModule:
		return &Module{Name: spec.Name, Items: []Node{}, Doc: spec.Docstring}, nil
	case intent.KindFileIO:
		return buildFileIO(spec, prof)
	case intent.KindThreading:
		return buildThreading(spec, prof)
	default:
		return nil, invalidIntent("unknown intent kind %q", spec.Kind)
	}
}

func buildFunction(spec intent.Spec, prof target.Profile) (Node, error) {
	fn := &Function{
		Name:   spec.Name,
		Params: ParamsFromPurpose(spec.Purpose),
		Body:   &Block{},
		Doc:    spec.Docstring,
	}
	if prof.InfersReturnType {
		fn.ReturnType = TypeUnit
	}

	var ret *Statement
	for i, c := range spec.Constraints {
		stmt, param, err := parseFunctionConstraint(c)
		if err != nil {
			return nil, invalidIntent("constraint %d %q: %v", i, c, err)
		}
		if param != nil {
			fn.Params = upsertParam(fn.Params, *param)
			continue
		}
		if s, ok := stmt.(*Statement); ok && s.StmtKind == StmtReturn {
			if ret != nil {
				return nil, invalidIntent("constraint %d %q: function already has a return", i, c)
			}
			ret = s
			continue
		}
		if stmt != nil {
			fn.Body.Statements = append(fn.Body.Statements, stmt)
		}
	}
	if ret == nil {
		ret = Return(nil)
	}
	fn.Body.Statements = append(fn.Body.Statements, ret)

	return fn, nil
}

func upsertParam(params []Parameter, p Parameter) []Parameter {
	for i := range params {
		if params[i].Name == p.Name {
			params[i].Type = p.Type
			return params
		}
	}
	return append(params, p)
}

func buildStruct(spec intent.Spec, prof target.Profile) (Node, error) {
	var fields []Field
	var methods []*Function
	for i, c := range spec.Constraints {
		field, method, err := parseStructConstraint(c)
		if err != nil {
			return nil, invalidIntent("constraint %d %q: %v", i, c, err)
		}
		if field != nil {
			fields = append(fields, *field)
		}
		if method != nil {
			methods = append(methods, method)
		}
	}

	switch prof.StructStyle {
	case target.StructRecord:
		if len(methods) > 0 {
			return nil, invalidIntent("%s renders structs as records, methods are not allowed", spec.Language)
		}
		return &Struct{Name: spec.Name, Fields: fields, Doc: spec.Docstring}, nil
	case target.StructClass:
		if methods == nil {
			methods = []*Function{}
		}
		return &Class{Name: spec.Name, Fields: fields, Methods: methods, Doc: spec.Docstring}, nil
	default:
		return nil, unsupportedLanguage("%s does not support struct intents", spec.Language)
	}
}

var fileOps = map[string]func() *Function{
	"read": func() *Function {
		return &Function{
			Name:       "read_file",
			Params:     []Parameter{{Name: "path", Type: TypePath}},
			ReturnType: Result(TypeString),
		}
	},
	"write": func() *Function {
		return &Function{
			Name:       "write_file",
			Params:     []Parameter{{Name: "path", Type: TypePath}, {Name: "contents", Type: TypeString}},
			ReturnType: Result(TypeUnit),
		}
	},
}

// fileBodies holds the concrete file_io bodies, keyed by language.
var fileBodies = map[intent.Language]map[string]func() *Block{
	intent.Rust: {
		"read": func() *Block {
			return &Block{Statements: []Node{Return(Call("std::fs::read_to_string", Ident("path")))}}
		},
		"write": func() *Block {
			return &Block{Statements: []Node{Return(Call("std::fs::write", Ident("path"), Ident("contents")))}}
		},
	},
}

func buildFileIO(spec intent.Spec, prof target.Profile) (Node, error) {
	op := strings.ToLower(spec.Operation)
	newFn, ok := fileOps[op]
	if !ok {
		return nil, invalidIntent("unsupported file operation %q (want read or write)", spec.Operation)
	}
	bodies, ok := fileBodies[prof.Language]
	if !prof.FileIO || !ok {
		return nil, notImplemented("file_io for %s", spec.Language)
	}

	fn := newFn()
	fn.Body = bodies[op]()
	fn.Doc = spec.Docstring
	return fn, nil
}

// threadingDocs holds the per-target threading stub documentation.
var threadingDocs = map[intent.Language]string{
	intent.Rust:   "Runs %s on a thread spawned with std::thread::spawn.",
	intent.Python: "Runs %s on a threading.Thread.",
}

func buildThreading(spec intent.Spec, prof target.Profile) (Node, error) {
	doc, ok := threadingDocs[prof.Language]
	if !prof.Threading || !ok {
		return nil, notImplemented("threading for %s", spec.Language)
	}
	if spec.HasDocstring() {
		doc = spec.Docstring
	} else {
		doc = fmt.Sprintf(doc, spec.Operation)
	}
	return &Function{Name: spec.Operation, Body: &Block{}, Doc: doc}, nil
}

var (
	purposeParams = regexp.MustCompile(`(?i)\b(?:takes|given|accepts|using)\s+(.+)$`)
	purposeStop   = regexp.MustCompile(`(?i)\s+(?:and\s+)?(?:returns?|returning|then)\b.*$`)
	purposeSplit  = regexp.MustCompile(`\s*,\s*|\s+and\s+`)
	purposeParam  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\s*:\s*([A-Za-z_][A-Za-z0-9_<>]*))?$`)
)

// ParamsFromPurpose extracts parameters from phrases such as
// "takes a and b" or "given name: string, count". Untyped parameters
// default to int. Anything it does not understand is ignored.
func ParamsFromPurpose(purpose string) []Parameter {
	m := purposeParams.FindStringSubmatch(strings.TrimSpace(purpose))
	if m == nil {
		return nil
	}
	list := purposeStop.ReplaceAllString(m[1], "")
	list = strings.TrimRight(list, ". ")

	var params []Parameter
	seen := make(map[string]bool)
	for _, piece := range purposeSplit.Split(list, -1) {
		pm := purposeParam.FindStringSubmatch(strings.TrimSpace(piece))
		if pm == nil || seen[pm[1]] {
			continue
		}
		typ := pm[2]
		if typ == "" {
			typ = TypeInt
		}
		seen[pm[1]] = true
		params = append(params, Parameter{Name: pm[1], Type: typ})
	}
	return params
}
