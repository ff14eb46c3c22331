package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/lendscan/internal/models"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFS_MissingFilesAreEmpty(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Errorf("books = %#v, want empty non-nil", books)
	}
	records, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d", len(records))
	}
}

func TestFS_WritesOneFilePerCollection(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if err := s.ReplaceUsers(ctx, []models.User{{ID: "USR-1", Name: "Alice", CreatedAt: time.Now().UTC()}}); err != nil {
		t.Fatalf("ReplaceUsers: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "users.json")); err != nil {
		t.Errorf("users.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "books.json")); !os.IsNotExist(err) {
		t.Errorf("books.json should not exist yet, stat err = %v", err)
	}
}

func TestFS_EmptyReplaceWritesArray(t *testing.T) {
	s := tempStore(t)
	if err := s.ReplaceBooks(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceBooks: %v", err)
	}
	data, err := os.ReadFile(s.Path(CollectionBooks))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("content = %q, want %q", data, "[]\n")
	}
}

func TestFS_CorruptFile(t *testing.T) {
	s := tempStore(t)
	_ = os.WriteFile(s.Path(CollectionBooks), []byte("{not json"), 0o644)
	if _, err := s.ListBooks(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestFS_AtomicWriteNoLeftovers(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	_ = s.ReplaceBooks(ctx, []models.Book{{ID: "BK-1", Title: "v1", Status: models.StatusAvailable}})
	if err := s.ReplaceBooks(ctx, []models.Book{{ID: "BK-1", Title: "v2", Status: models.StatusAvailable}}); err != nil {
		t.Fatalf("ReplaceBooks: %v", err)
	}
	books, _ := s.ListBooks(ctx)
	if len(books) != 1 || books[0].Title != "v2" {
		t.Errorf("books = %+v", books)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestFS_ExternallyModified(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	_ = s.ReplaceUsers(ctx, []models.User{{ID: "USR-1", Name: "Alice"}})
	changed, err := s.ExternallyModified(CollectionUsers)
	if err != nil {
		t.Fatalf("ExternallyModified: %v", err)
	}
	if changed {
		t.Error("own write reported as external change")
	}

	_ = os.WriteFile(s.Path(CollectionUsers), []byte(`[{"id":"USR-2","name":"Bob","createdAt":"2024-01-01T00:00:00Z"}]`), 0o644)
	changed, _ = s.ExternallyModified(CollectionUsers)
	if !changed {
		t.Error("external edit not detected")
	}
	changed, _ = s.ExternallyModified(CollectionUsers)
	if changed {
		t.Error("same external edit reported twice")
	}

	_ = os.Remove(s.Path(CollectionUsers))
	changed, _ = s.ExternallyModified(CollectionUsers)
	if !changed {
		t.Error("removal not detected")
	}
}

func TestNewFS_SeedsChecksumsFromExistingFiles(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "books.json"), []byte("[]\n"), 0o644)

	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	changed, _ := s.ExternallyModified(CollectionBooks)
	if changed {
		t.Error("pre-existing file should not count as an external change")
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/lendscan-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "lendscan-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestCollectionFor(t *testing.T) {
	cases := map[string]struct {
		want Collection
		ok   bool
	}{
		"/data/books.json":     {CollectionBooks, true},
		"users.json":           {CollectionUsers, true},
		"/x/records.json":      {CollectionRecords, true},
		"/x/.lendscan-tmp-123": {"", false},
		"/x/notes.json":        {"", false},
		"/x/books.json.bak":    {"", false},
	}
	for path, tc := range cases {
		got, ok := collectionFor(path)
		if got != tc.want || ok != tc.ok {
			t.Errorf("collectionFor(%q) = %q, %v; want %q, %v", path, got, ok, tc.want, tc.ok)
		}
	}
}
