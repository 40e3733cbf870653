package intent

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"
)

// LoadMode controls how errors are handled while loading a directory.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes shared by the loaders and the CLI.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeParseFailed = "E006"
	ErrCodeInvalid     = "E007"
)

// LoadError is a file-level loading failure.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// File is the YAML intent document format:
//
//	intents:
//	  - language: rust
//	    kind: function
//	    name: compute
//	    purpose: takes a and b
type File struct {
	Intents []Spec `yaml:"intents"`
}

// ParseYAML decodes a YAML intent document. Unknown fields are rejected.
func ParseYAML(data []byte) ([]Spec, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Intents) == 0 {
		return nil, fmt.Errorf("no intents found")
	}
	return f.Intents, nil
}

// LoadFile reads intents from a .yaml/.yml or .cue file and validates each.
func LoadFile(path string) ([]Spec, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: path, Message: "intent file not found"}}
		}
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}}
	}

	var specs []Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parsed, err := ParseYAML(data)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}}
		}
		specs = parsed
	case ".cue":
		parsed, errs := ParseCUE(path, data)
		if len(errs) > 0 {
			return parsed, errs
		}
		specs = parsed
	default:
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "unsupported intent file extension"}}
	}

	return checkSpecs(path, specs)
}

// LoadDir loads every intent in dir. YAML files are read one by one in
// lexical order; CUE files are loaded together as one CUE package.
func LoadDir(dir string, mode LoadMode) ([]Spec, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: dir, Message: "intents directory not found"}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: dir, Message: err.Error()}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: dir, Message: "not a directory"}}
	}

	yamlFiles, cueFiles, err := findIntentFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Path: dir, Message: err.Error()}}
	}
	if len(yamlFiles) == 0 && len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Path: dir, Message: "no intent files found"}}
	}

	var specs []Spec
	var errs []error

	for _, path := range yamlFiles {
		loaded, loadErrs := LoadFile(path)
		specs = append(specs, loaded...)
		errs = append(errs, loadErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return specs, errs
		}
	}

	if len(cueFiles) > 0 {
		loaded, loadErrs := loadCUEPackage(dir)
		specs = append(specs, loaded...)
		errs = append(errs, loadErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return specs, errs[:1]
		}
	}

	return specs, errs
}

func loadCUEPackage(dir string) ([]Spec, []error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Path: dir, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Path: dir, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	specs, errs := CompileIntents(value)
	checked, checkErrs := checkSpecs(dir, specs)
	return checked, append(errs, checkErrs...)
}

func checkSpecs(path string, specs []Spec) ([]Spec, []error) {
	var valid []Spec
	var errs []error
	for i, s := range specs {
		if err := s.Validate(); err != nil {
			errs = append(errs, &LoadError{
				Code:    ErrCodeInvalid,
				Path:    path,
				Message: fmt.Sprintf("intent %d (%s): %v", i, s.Label(), err),
			})
			continue
		}
		valid = append(valid, s)
	}
	return valid, errs
}

func findIntentFiles(dir string) (yamlFiles, cueFiles []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		case ".cue":
			cueFiles = append(cueFiles, path)
		}
		return nil
	})
	sort.Strings(yamlFiles)
	sort.Strings(cueFiles)
	return yamlFiles, cueFiles, err
}
