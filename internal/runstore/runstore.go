// Package runstore persists run results under <dir>/<runID>/result.json.
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/utils"
)

// ResultFile is the name of the artifact inside each run directory.
const ResultFile = "result.json"

// DefaultNamingScheme is used when a pipeline config does not set one.
const DefaultNamingScheme = "{timestamp}_{benchmark_id}_{provider}_{model}"

// TimestampLayout formats the {timestamp} placeholder.
const TimestampLayout = "20060102-150405"

// ErrRunNotFound is returned when a run ID does not match any stored run.
var ErrRunNotFound = errors.New("run not found")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WriteError reports a failure to persist a run.
type WriteError struct {
	RunID string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing run %s: %v", e.RunID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is the durable run store.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the artifact path for runID.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.dir, runID, ResultFile)
}

// Write persists result under result.RunID. The artifact is published
// atomically.
func (s *Store) Write(result *models.RunResult) error {
	if result.RunID == "" || !validRunID(result.RunID) {
		return &WriteError{RunID: result.RunID, Err: fmt.Errorf("invalid run id")}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return &WriteError{RunID: result.RunID, Err: fmt.Errorf("marshaling result: %w", err)}
	}

	if err := utils.WriteFileAtomic(s.Path(result.RunID), data, 0644); err != nil {
		return &WriteError{RunID: result.RunID, Err: err}
	}
	return nil
}

// Remove deletes a run and its directory. Removing a missing run is not an
// error.
func (s *Store) Remove(runID string) error {
	if !validRunID(runID) {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return os.RemoveAll(filepath.Join(s.dir, runID))
}

// Read loads a run by ID.
func (s *Store) Read(runID string) (*models.RunResult, error) {
	if !validRunID(runID) {
		return nil, ErrRunNotFound
	}

	data, err := os.ReadFile(s.Path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return Decode(data)
}

// Decode parses a result.json artifact.
func Decode(data []byte) (*models.RunResult, error) {
	var result models.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result.RunID == "" {
		return nil, fmt.Errorf("missing run_id")
	}
	return &result, nil
}

// ResultPaths returns the result.json paths of every run directory.
func (s *Store) ResultPaths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(s.dir, e.Name(), ResultFile)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// NewRunID expands the naming scheme placeholders and appends a short random
// suffix so repeated executions of the same config never collide.
func NewRunID(scheme string, benchmarkID, provider, model string, now time.Time) string {
	if scheme == "" {
		scheme = DefaultNamingScheme
	}

	r := strings.NewReplacer(
		"{timestamp}", now.UTC().Format(TimestampLayout),
		"{benchmark_id}", benchmarkID,
		"{provider}", provider,
		"{model}", model,
	)
	base := sanitize(r.Replace(scheme))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "_" + suffix
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-.")
}

func validRunID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
