package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/objgen"
	"github.com/roach88/objgen/internal/store"
	"github.com/roach88/objgen/internal/world"
)

// LoadError represents an error that occurred while loading a model,
// world or query.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
// Model validation codes (E101-E112) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeWorld       = "E008" // World fixture or stored world unusable
	ErrCodeStore       = "E009" // Database error

	// Declaration errors, by model section
	ErrCodeInvalidType     = "E121"
	ErrCodeInvalidGenFunc  = "E122"
	ErrCodeInvalidRule     = "E123"
	ErrCodeInvalidFunction = "E124"
	ErrCodeInvalidQuery    = "E125"

	// Graph compilation and enumeration errors
	ErrCodeCompileQuery = "E_COMPILE"
	ErrCodeEnumeration  = "E_ENUMERATION"
	ErrCodeTestFailed   = "E_TEST_FAILED"
)

// MapFieldToErrorCode maps a compiler error field ("rules.Succ.type",
// "queries.q.where[0]") to an error code by model section.
func MapFieldToErrorCode(field string) string {
	section, _, _ := strings.Cut(field, ".")
	switch section {
	case "types":
		return ErrCodeInvalidType
	case "genfuncs":
		return ErrCodeInvalidGenFunc
	case "rules":
		return ErrCodeInvalidRule
	case "functions":
		return ErrCodeInvalidFunction
	case "queries":
		return ErrCodeInvalidQuery
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// LoadModel reads and compiles a model file or CUE package directory.
// Every failure is a *LoadError.
func LoadModel(path string) (*ir.Model, error) {
	v, err := compiler.LoadValue(path)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLoadFailed)
	}
	m, err := compiler.CompileModel(v)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeBuildFailed)
	}
	return m, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// GraphFor compiles a declared query, or every object of the type of that
// name when the model declares no such query.
func GraphFor(m *ir.Model, query string) (*objgen.Graph, error) {
	if _, ok := m.Query(query); ok {
		return objgen.ForQuery(m, query)
	}
	if _, ok := m.Type(query); !ok {
		return nil, fmt.Errorf("%q is neither a query nor a type of the model", query)
	}
	return objgen.ForType(m, query)
}

// isDatabase reports whether a --world argument names a SQLite database
// rather than a fixture file.
func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// worldNameFromPath derives a world name from a fixture file name.
func worldNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadWorld builds the world a --world argument names. A fixture is read
// and built against m; a database is opened and the world named name is
// loaded, or its only world when name is empty. It returns the world's
// name for run records.
func LoadWorld(ctx context.Context, path, name string, m *ir.Model) (*world.Partial, string, error) {
	if !isDatabase(path) {
		f, err := world.LoadFixture(path)
		if err != nil {
			return nil, "", worldError(err)
		}
		w, err := f.Build(m)
		if err != nil {
			return nil, "", &LoadError{Code: ErrCodeWorld, Message: fmt.Sprintf("fixture %s: %v", path, err)}
		}
		if name == "" {
			name = worldNameFromPath(path)
		}
		return w, name, nil
	}

	st, err := openExistingStore(path)
	if err != nil {
		return nil, "", err
	}
	defer st.Close()

	if name == "" {
		names, err := st.ListWorlds(ctx)
		if err != nil {
			return nil, "", &LoadError{Code: ErrCodeStore, Message: err.Error()}
		}
		switch len(names) {
		case 0:
			return nil, "", &LoadError{Code: ErrCodeWorld, Message: fmt.Sprintf("no worlds stored in %s", path)}
		case 1:
			name = names[0]
		default:
			return nil, "", &LoadError{
				Code:    ErrCodeWorld,
				Message: fmt.Sprintf("%s holds %d worlds (%s); pick one with --world-name", path, len(names), strings.Join(names, ", ")),
			}
		}
	}
	w, err := st.LoadWorld(ctx, name, m)
	if err != nil {
		return nil, "", &LoadError{Code: ErrCodeWorld, Message: err.Error()}
	}
	return w, name, nil
}

func worldError(err error) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeWorld, Message: err.Error()}
}

// openExistingStore opens a database that must already exist; Open would
// otherwise create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	return st, nil
}

// loadErrorCode returns the code and message of a loader error.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
