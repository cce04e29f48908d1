// Package dataset round-trips the city dataset file: the whole file is
// read and parsed at the start of a run and replaced in one write at
// the end. The file is the source of truth; there is no partial-update
// path, so an interrupted run leaves it untouched.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matteolefer/escapedia/internal/domain"
)

type Store struct {
	path string
}

func New(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) ([]domain.City, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var cities []domain.City
	if err := json.Unmarshal(b, &cities); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return cities, nil
}

// Save serializes the full dataset as 2-space-indented JSON with a
// trailing newline and replaces the file via rename, so readers never
// observe a half-written file.
func (s *Store) Save(ctx context.Context, cities []domain.City) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cities); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
