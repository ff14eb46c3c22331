package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/testutil"
)

func testServer(t *testing.T) (*Server, *lending.Engine) {
	t.Helper()

	engine := testutil.TestEngine(t)
	return New(engine, testutil.Logger()), engine
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "list_users":
		result, err = srv.listUsers(ctx, req)
	case "add_book":
		result, err = srv.addBook(ctx, req)
	case "add_user":
		result, err = srv.addUser(ctx, req)
	case "borrow_book":
		result, err = srv.borrowBook(ctx, req)
	case "return_book":
		result, err = srv.returnBook(ctx, req)
	case "history":
		result, err = srv.history(ctx, req)
	case "stats":
		result, err = srv.stats(ctx, req)
	case "import_catalog":
		result, err = srv.importCatalog(ctx, req)
	case "get_scan_contract":
		result, err = srv.getScanContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestAddAndListBooks(t *testing.T) {
	srv, _ := testServer(t)

	b := decodeResult[models.Book](t, callTool(t, srv, "add_book", map[string]interface{}{
		"title":  "Dune",
		"author": "Frank Herbert",
	}))
	if !strings.HasPrefix(b.ID, "BK-") || b.Status != models.StatusAvailable {
		t.Errorf("book = %+v", b)
	}
	callTool(t, srv, "add_book", map[string]interface{}{"title": "Emma"})

	books := decodeResult[[]models.Book](t, callTool(t, srv, "list_books", map[string]interface{}{}))
	if len(books) != 2 {
		t.Errorf("len = %d, want 2", len(books))
	}
	books = decodeResult[[]models.Book](t, callTool(t, srv, "list_books", map[string]interface{}{"query": "herbert"}))
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("query = %+v", books)
	}
}

func TestAddBook_Duplicate(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "add_book", map[string]interface{}{"title": "Dune"})

	r := callTool(t, srv, "add_book", map[string]interface{}{"title": "DUNE"})
	if !r.IsError || resultText(r) != lending.MsgDuplicateTitle {
		t.Errorf("duplicate = %q (error %v)", resultText(r), r.IsError)
	}
}

func TestAddBook_MissingTitle(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "add_book", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing title")
	}
}

func TestBorrowReturnHistoryStats(t *testing.T) {
	srv, _ := testServer(t)
	b := decodeResult[models.Book](t, callTool(t, srv, "add_book", map[string]interface{}{"title": "Dune"}))
	u := decodeResult[models.User](t, callTool(t, srv, "add_user", map[string]interface{}{"name": "Alice"}))

	r := callTool(t, srv, "borrow_book", map[string]interface{}{"book_id": b.ID, "user_id": u.ID})
	if r.IsError || resultText(r) != "Borrowed: Alice checked out Dune" {
		t.Errorf("borrow = %q", resultText(r))
	}

	r = callTool(t, srv, "borrow_book", map[string]interface{}{"book_id": b.ID, "user_id": u.ID})
	if !r.IsError || resultText(r) != lending.MsgAlreadyBorrowed {
		t.Errorf("second borrow = %q", resultText(r))
	}

	st := decodeResult[lending.Stats](t, callTool(t, srv, "stats", map[string]interface{}{}))
	if st.BorrowedBooks != 1 || st.Records != 1 {
		t.Errorf("stats = %+v", st)
	}

	r = callTool(t, srv, "return_book", map[string]interface{}{"book_id": b.ID})
	if r.IsError || resultText(r) != "Returned: Dune is back in the library" {
		t.Errorf("return = %q", resultText(r))
	}

	recs := decodeResult[[]models.BorrowRecord](t, callTool(t, srv, "history", map[string]interface{}{}))
	if len(recs) != 1 || recs[0].ReturnDate == nil {
		t.Errorf("history = %+v", recs)
	}
}

func TestHistory_Limit(t *testing.T) {
	srv, engine := testServer(t)
	ctx := context.Background()
	u, _ := engine.AddUser(ctx, "Alice")
	for _, title := range []string{"A", "B", "C"} {
		b, _ := engine.AddBook(ctx, title, "", "")
		if _, err := engine.Borrow(ctx, b.ID, u.ID); err != nil {
			t.Fatal(err)
		}
	}

	recs := decodeResult[[]models.BorrowRecord](t, callTool(t, srv, "history", map[string]interface{}{"limit": 2}))
	if len(recs) != 2 || recs[0].BookTitle != "C" {
		t.Errorf("history = %+v", recs)
	}
}

func TestListUsers(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "add_user", map[string]interface{}{"name": "Alice"})

	users := decodeResult[[]models.User](t, callTool(t, srv, "list_users", map[string]interface{}{}))
	if len(users) != 1 || users[0].Name != "Alice" {
		t.Errorf("users = %+v", users)
	}
}

func TestImportCatalog(t *testing.T) {
	srv, engine := testServer(t)
	doc := "users:\n  - name: Alice\nbooks:\n  - title: Dune\n  - title: dune\n"

	r := callTool(t, srv, "import_catalog", map[string]interface{}{"yaml": doc})
	if r.IsError {
		t.Fatalf("import = %q", resultText(r))
	}
	books, _ := engine.Books(context.Background())
	if len(books) != 1 {
		t.Errorf("books = %d, want 1", len(books))
	}

	r = callTool(t, srv, "import_catalog", map[string]interface{}{"yaml": "books: [oops"})
	if !r.IsError {
		t.Error("expected error for malformed YAML")
	}
}

func TestGetScanContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_scan_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Scan flow") {
		t.Error("contract text missing scan flow section")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv, _ := testServer(t)
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, in, io.Discard) }()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
