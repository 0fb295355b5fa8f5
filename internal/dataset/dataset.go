// Package dataset loads benchmark test cases from JSON or CSV files.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// Loader loads the test cases of a dataset.
type Loader interface {
	Load(path string) ([]models.TestCase, error)
}

// FileLoader resolves dataset paths relative to BaseDir and picks a format
// by file extension. Relative paths missing on disk are looked up in
// Fallback, when set.
type FileLoader struct {
	BaseDir  string
	Fallback fs.FS
}

func NewFileLoader(baseDir string, fallback fs.FS) *FileLoader {
	return &FileLoader{BaseDir: baseDir, Fallback: fallback}
}

// Resolve returns the on-disk location of a dataset path.
func (l *FileLoader) Resolve(p string) string {
	if filepath.IsAbs(p) || l.BaseDir == "" {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

// Read returns the raw dataset bytes.
func (l *FileLoader) Read(p string) ([]byte, error) {
	data, err := os.ReadFile(l.Resolve(p))
	if err == nil || !errors.Is(err, fs.ErrNotExist) || l.Fallback == nil || filepath.IsAbs(p) {
		return data, err
	}

	data, ferr := fs.ReadFile(l.Fallback, path.Clean(filepath.ToSlash(p)))
	if ferr != nil {
		// report the on-disk miss, it is the location users control
		return nil, err
	}
	return data, nil
}

func (l *FileLoader) Load(p string) ([]models.TestCase, error) {
	ext := strings.ToLower(filepath.Ext(p))
	if ext != ".json" && ext != ".csv" {
		return nil, fmt.Errorf("unsupported dataset format %q (expected .json or .csv)", ext)
	}

	data, err := l.Read(p)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	if ext == ".json" {
		return models.ParseTestCases(data, p)
	}
	rows, err := ParseCSV(bytes.NewReader(data), p)
	if err != nil {
		return nil, err
	}
	return RowsToTestCases(rows)
}

// Hash returns the hex SHA-256 of the dataset content.
func (l *FileLoader) Hash(p string) (string, error) {
	data, err := l.Read(p)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashFile returns the hex SHA-256 of the file content.
func HashFile(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
