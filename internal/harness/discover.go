package harness

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios returns the scenario files at path. A file is returned as
// is; a directory is walked recursively for .yaml and .yml files, sorted.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// Failures returns the scenarios that did not pass.
func (s *SuiteResult) Failures() []ScenarioResult {
	var out []ScenarioResult
	for _, r := range s.Scenarios {
		if !r.Pass {
			out = append(out, r)
		}
	}
	return out
}

// SuiteOption configures RunSuite.
type SuiteOption func(*suiteConfig)

type suiteConfig struct {
	golden bool
	update bool
}

// WithGolden compares each scenario's trace with golden/{name}.golden next
// to the scenario file. A scenario without a golden file is judged on its
// expectations alone. With update set the golden files are rewritten
// instead of compared.
func WithGolden(update bool) SuiteOption {
	return func(c *suiteConfig) {
		c.golden = true
		c.update = update
	}
}

// GoldenPath returns where the golden trace of a scenario file lives.
func GoldenPath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// RunSuite loads and runs every scenario under path whose file name
// (without extension) matches filter, a filepath.Match pattern. An empty
// filter matches everything. A scenario that fails to load counts as a
// failure; it does not stop the suite.
func RunSuite(ctx context.Context, path, filter string, opts ...SuiteOption) (*SuiteResult, error) {
	var cfg suiteConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	files, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		if filter != "" {
			base := filepath.Base(file)
			matched, err := filepath.Match(filter, strings.TrimSuffix(base, filepath.Ext(base)))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}

		scenario, err := LoadScenario(file)
		if err != nil {
			suite.add(ScenarioResult{Name: filepath.Base(file), Path: file, Errors: []string{err.Error()}})
			continue
		}

		result, err := RunContext(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return suite, err
			}
			suite.add(ScenarioResult{Name: scenario.Name, Path: file, Errors: []string{err.Error()}})
			continue
		}
		if cfg.golden {
			if err := checkGolden(file, scenario.Name, result, cfg.update); err != nil {
				result.AddError(err.Error())
			}
		}
		suite.add(ScenarioResult{Name: scenario.Name, Path: file, Pass: result.Pass, Errors: result.Errors})
	}
	return suite, nil
}

func checkGolden(file, name string, result *Result, update bool) error {
	want := GoldenPath(file, name)
	got, err := MarshalTrace(name, result)
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}

	if update {
		if err := os.MkdirAll(filepath.Dir(want), 0o755); err != nil {
			return fmt.Errorf("golden: %w", err)
		}
		if err := os.WriteFile(want, got, 0o644); err != nil {
			return fmt.Errorf("golden: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(want)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}
	if !bytes.Equal(data, got) {
		return fmt.Errorf("trace does not match %s (run with --update to regenerate)", want)
	}
	return nil
}

func (s *SuiteResult) add(r ScenarioResult) {
	s.Scenarios = append(s.Scenarios, r)
	s.Total++
	if r.Pass {
		s.Passed++
	} else {
		s.Failed++
	}
}
