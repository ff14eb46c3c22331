// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes lending tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/catalog"
	"github.com/starford/lendscan/internal/lending"
)

const (
	contractURI         = "lendscan://scan-flow"
	defaultHistoryLimit = 20
)

// Server wraps the MCP server with lending tools.
type Server struct {
	mcp    *server.MCPServer
	engine *lending.Engine
	logger *slog.Logger
}

// New creates a new MCP server with all lending tools registered.
func New(engine *lending.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, logger: logger}

	s.mcp = server.NewMCPServer(
		"Lendscan",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List books with their status and current borrower."),
		mcp.WithString("query", mcp.Description("Optional case-insensitive match on title, author or category")),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List registered borrowers."),
	), s.listUsers)

	s.mcp.AddTool(mcp.NewTool("add_book",
		mcp.WithDescription("Register a new book. Titles must be unique ignoring case."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
		mcp.WithString("author", mcp.Description("Optional author")),
		mcp.WithString("category", mcp.Description("Optional category")),
	), s.addBook)

	s.mcp.AddTool(mcp.NewTool("add_user",
		mcp.WithDescription("Register a new borrower. Names must be unique ignoring case."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Borrower name")),
	), s.addUser)

	s.mcp.AddTool(mcp.NewTool("borrow_book",
		mcp.WithDescription("Check an available book out to a borrower. "+
			"Read the code contract via get_scan_contract or the "+contractURI+" resource for the ID format."),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Book code (BK-...)")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Borrower code (USR-...)")),
	), s.borrowBook)

	s.mcp.AddTool(mcp.NewTool("return_book",
		mcp.WithDescription("Check a borrowed book back in."),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Book code (BK-...)")),
	), s.returnBook)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Borrow records, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 20, 0 for all)")),
	), s.history)

	s.mcp.AddTool(mcp.NewTool("stats",
		mcp.WithDescription("Counts of books, borrowed books, borrowers and records."),
	), s.stats)

	s.mcp.AddTool(mcp.NewTool("import_catalog",
		mcp.WithDescription("Bulk-register books and borrowers from a YAML document with "+
			"top-level 'users' (name) and 'books' (title, author, category) lists. Duplicates are skipped."),
		mcp.WithString("yaml", mcp.Required(), mcp.Description("Catalog document")),
	), s.importCatalog)

	s.mcp.AddTool(mcp.NewTool("get_scan_contract",
		mcp.WithDescription("Returns the code format and scan flow contract."),
	), s.getScanContract)

	// Resource: scan flow contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Codes and Scan Flow",
			mcp.WithResourceDescription("Identifier format and how scans map to borrow and return."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// Serve speaks MCP over the given streams until in is exhausted or ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult reports domain errors verbatim and logs anything else.
func (s *Server) errorResult(op string, err error) *mcp.CallToolResult {
	if apperr.KindOf(err) == "" {
		s.logger.Error(op+" failed", slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	books, err := s.engine.SearchBooks(ctx, req.GetString("query", ""))
	if err != nil {
		return s.errorResult("list books", err), nil
	}
	return jsonResult(books)
}

func (s *Server) listUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.engine.Users(ctx)
	if err != nil {
		return s.errorResult("list users", err), nil
	}
	return jsonResult(users)
}

func (s *Server) addBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.engine.AddBook(ctx, title, req.GetString("author", ""), req.GetString("category", ""))
	if err != nil {
		return s.errorResult("add book", err), nil
	}
	return jsonResult(b)
}

func (s *Server) addUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.engine.AddUser(ctx, name)
	if err != nil {
		return s.errorResult("add user", err), nil
	}
	return jsonResult(u)
}

func (s *Server) borrowBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := req.RequireString("book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg, err := s.engine.Borrow(ctx, bookID, userID)
	if err != nil {
		return s.errorResult("borrow", err), nil
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) returnBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := req.RequireString("book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg, err := s.engine.Return(ctx, bookID)
	if err != nil {
		return s.errorResult("return", err), nil
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) history(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultHistoryLimit)
	recs, err := s.engine.History(ctx)
	if err != nil {
		return s.errorResult("history", err), nil
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return jsonResult(recs)
}

func (s *Server) stats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.engine.Stats(ctx)
	if err != nil {
		return s.errorResult("stats", err), nil
	}
	return jsonResult(st)
}

func (s *Server) importCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("yaml")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := catalog.Parse([]byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := catalog.Import(ctx, s.engine, c, s.logger)
	if err != nil {
		return s.errorResult("import catalog", err), nil
	}
	return jsonResult(rep)
}

func (s *Server) getScanContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ScanFlowContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ScanFlowContract,
		},
	}, nil
}
