// Package testutil provides shared test helpers for setting up stores and engines.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a JSON store in a temporary directory.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestEngine creates an engine over a fresh JSON store.
func TestEngine(t *testing.T, opts ...lending.Option) *lending.Engine {
	t.Helper()
	_, store := TestStore(t)
	opts = append([]lending.Option{lending.WithLogger(Logger())}, opts...)
	return lending.New(store, opts...)
}
