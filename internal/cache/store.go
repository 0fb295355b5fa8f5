package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/utils"
	"github.com/klauspost/compress/zstd"
)

const entrySuffix = ".json.zst"

// ErrNotFound is returned by Read when no entry exists for a fingerprint.
var ErrNotFound = errors.New("cache entry not found")

var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// WriteError reports a failure to publish a cache entry. Previously written
// entries are unaffected.
type WriteError struct {
	Fingerprint string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing cache entry %s: %v", e.Fingerprint, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store persists RunResults keyed by fingerprint under
// <dir>/<fp[0:2]>/<fp>.json.zst. Entries are zstd-compressed JSON and are
// published atomically.
type Store struct {
	dir string

	initOnce sync.Once
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	initErr  error

	// guards Clear against concurrent writes
	mu sync.RWMutex
}

// NewStore creates a store rooted at dir. An empty dir disables the store:
// nothing exists and writes are no-ops.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) codec() error {
	s.initOnce.Do(func() {
		s.enc, s.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if s.initErr != nil {
			return
		}
		s.dec, s.initErr = zstd.NewReader(nil)
	})
	return s.initErr
}

// Path returns the file path for a fingerprint.
func (s *Store) Path(fp string) string {
	shard := fp
	if len(fp) >= 2 {
		shard = fp[:2]
	}
	return filepath.Join(s.dir, shard, fp+entrySuffix)
}

// Exists reports whether an entry is stored for fp.
func (s *Store) Exists(fp string) bool {
	if s.dir == "" || !fingerprintPattern.MatchString(fp) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.Path(fp))
	return err == nil && info.Mode().IsRegular()
}

// Read loads the entry for fp. A missing entry yields ErrNotFound; an entry
// that cannot be decoded yields a descriptive error.
func (s *Store) Read(fp string) (*models.RunResult, error) {
	if s.dir == "" {
		return nil, ErrNotFound
	}
	if !fingerprintPattern.MatchString(fp) {
		return nil, fmt.Errorf("invalid fingerprint %q", fp)
	}
	if err := s.codec(); err != nil {
		return nil, fmt.Errorf("initializing zstd: %w", err)
	}

	s.mu.RLock()
	compressed, err := os.ReadFile(s.Path(fp))
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading cache entry %s: %w", fp, err)
	}

	data, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing cache entry %s: %w", fp, err)
	}

	var result models.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", fp, err)
	}
	return &result, nil
}

// Write stores result under fp, replacing any previous entry. Concurrent
// readers see either the previous entry or the new one, never a partial file.
func (s *Store) Write(fp string, result *models.RunResult) error {
	if s.dir == "" {
		return nil
	}
	if !fingerprintPattern.MatchString(fp) {
		return &WriteError{Fingerprint: fp, Err: fmt.Errorf("invalid fingerprint")}
	}
	if err := s.codec(); err != nil {
		return &WriteError{Fingerprint: fp, Err: err}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return &WriteError{Fingerprint: fp, Err: fmt.Errorf("marshaling result: %w", err)}
	}
	compressed := s.enc.EncodeAll(data, nil)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := utils.WriteFileAtomic(s.Path(fp), compressed, 0644); err != nil {
		return &WriteError{Fingerprint: fp, Err: err}
	}
	return nil
}

// Clear removes all cached results. It refuses to delete a directory that
// holds anything other than cache shards.
func (s *Store) Clear() error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !isShardName(entry.Name()) {
			return fmt.Errorf("cache directory contains unexpected entry %q - refusing to delete for safety", entry.Name())
		}
		files, err := os.ReadDir(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading cache shard %s: %w", entry.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), entrySuffix) && !strings.HasPrefix(f.Name(), ".") {
				return fmt.Errorf("cache shard %s contains non-cache file %q - refusing to delete for safety", entry.Name(), f.Name())
			}
		}
	}

	return os.RemoveAll(s.dir)
}

func isShardName(name string) bool {
	if len(name) != 2 {
		return false
	}
	for _, r := range name {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
