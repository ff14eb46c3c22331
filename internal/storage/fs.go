package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/lendscan/internal/checksum"
	"github.com/starford/lendscan/internal/models"
)

const tmpPattern = ".lendscan-tmp-*"

// FS implements Provider with one JSON file per collection.
type FS struct {
	root string // absolute path to store directory

	mu      sync.Mutex
	written map[Collection]string // checksum of the last write per collection
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	f := &FS{root: abs, written: make(map[Collection]string)}
	for _, c := range Collections {
		if data, err := os.ReadFile(f.Path(c)); err == nil {
			f.written[c] = checksum.Sum(data)
		}
	}
	return f, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string { return f.root }

// Path returns the file backing c.
func (f *FS) Path(c Collection) string {
	return filepath.Join(f.root, string(c)+".json")
}

func (f *FS) ListBooks(_ context.Context) ([]models.Book, error) {
	return readCollection[models.Book](f, CollectionBooks)
}

func (f *FS) ListUsers(_ context.Context) ([]models.User, error) {
	return readCollection[models.User](f, CollectionUsers)
}

func (f *FS) ListRecords(_ context.Context) ([]models.BorrowRecord, error) {
	return readCollection[models.BorrowRecord](f, CollectionRecords)
}

func (f *FS) ReplaceBooks(_ context.Context, books []models.Book) error {
	return writeCollection(f, CollectionBooks, books)
}

func (f *FS) ReplaceUsers(_ context.Context, users []models.User) error {
	return writeCollection(f, CollectionUsers, users)
}

func (f *FS) ReplaceRecords(_ context.Context, records []models.BorrowRecord) error {
	return writeCollection(f, CollectionRecords, records)
}

// Close is a no-op; every write is already on disk.
func (f *FS) Close() error { return nil }

// ExternallyModified reports whether the file for c differs from what this
// process last wrote or saw, and records the current state as seen.
func (f *FS) ExternallyModified(c Collection) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum string
	data, err := os.ReadFile(f.Path(c))
	switch {
	case err == nil:
		sum = checksum.Sum(data)
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("storage: read %s: %w", c, err)
	}
	if f.written[c] == sum {
		return false, nil
	}
	f.written[c] = sum
	return true, nil
}

func readCollection[T any](f *FS, c Collection) ([]T, error) {
	data, err := os.ReadFile(f.Path(c))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", c, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", c, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func writeCollection[T any](f *FS, c Collection, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", c, err)
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.atomicWrite(f.Path(c), data); err != nil {
		return err
	}
	f.written[c] = checksum.Sum(data)
	return nil
}

// atomicWrite writes content: tmp file → fsync → rename.
func (f *FS) atomicWrite(abs string, content []byte) error {
	tmp, err := os.CreateTemp(f.root, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
