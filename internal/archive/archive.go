// Package archive persists completed session records as a JSON array on disk.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is an append-only list of records stored as one JSON array.
// All access goes through a mutex, so sessions sharing a File never
// interleave a read-modify-write.
type File[T any] struct {
	mu   sync.Mutex
	path string
}

// Open returns the archive at path, creating it (and its directory) with an
// empty array when it does not exist yet.
func Open[T any](path string) (*File[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("create archive: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	f := &File[T]{path: path}
	if _, err := f.read(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file backing the archive.
func (f *File[T]) Path() string { return f.path }

// Append adds rec to the end of the archive.
func (f *File[T]) Append(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	recs, err := f.read()
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	return f.write(recs)
}

// List returns every record in insertion order.
func (f *File[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *File[T]) read() ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var recs []T
	if len(data) == 0 {
		return recs, nil
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", f.path, err)
	}
	return recs, nil
}

// write replaces the archive atomically via a temp file in the same directory.
func (f *File[T]) write(recs []T) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}
