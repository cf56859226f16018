package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// SuiteResult summarizes the scenarios of one directory.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is a scenario that did not load, did not run or failed
// an assertion.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// DiscoverScenarios returns the .yaml and .yml files under dir, sorted.
// A golden/ directory is skipped.
func DiscoverScenarios(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering scenarios in %s: %w", dir, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario under dir. It only fails when
// dir cannot be read; scenario problems are reported in the result.
func RunSuite(dir string, opts ...Option) (*SuiteResult, error) {
	paths, err := DiscoverScenarios(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Failures: []ScenarioFailure{}}
	for _, path := range paths {
		suite.Total++
		name, errs := runOne(path, opts)
		if len(errs) == 0 {
			suite.Passed++
			continue
		}
		suite.Failed++
		suite.Failures = append(suite.Failures, ScenarioFailure{
			Scenario: name,
			Path:     path,
			Errors:   errs,
		})
	}
	return suite, nil
}

func runOne(path string, opts []Option) (string, []string) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return filepath.Base(path), []string{err.Error()}
	}
	result, err := Run(scenario, opts...)
	if err != nil {
		return scenario.Name, []string{err.Error()}
	}
	return scenario.Name, result.Errors
}
