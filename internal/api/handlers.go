package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/normalize"
	"github.com/starford/lendscan/internal/scan"
)

const (
	bookLabelHint = "Scan to borrow or return this book"
	userLabelHint = "Scan first to identify the borrower"
)

// Handler holds API route handlers.
type Handler struct {
	engine   *lending.Engine
	sessions *scan.Registry
}

// NewHandler creates a new Handler.
func NewHandler(engine *lending.Engine, sessions *scan.Registry) *Handler {
	return &Handler{engine: engine, sessions: sessions}
}

// ListBooks handles GET /api/books.
//
//	@Summary		List books, optionally filtered
//	@Tags			books
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive match on title, author or category"
//	@Success		200	{object}	BookListResponse
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.engine.SearchBooks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list books", err)
		return
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: books, Total: len(books)})
}

// GetBook handles GET /api/books/{id}.
//
//	@Summary		Get a single book
//	@Tags			books
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"
//	@Success		200	{object}	models.Book
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{id} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.FindBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBook handles POST /api/books.
//
//	@Summary		Register a book
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateBookRequest	true	"Book to register"
//	@Success		201		{object}	models.Book
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	b, err := h.engine.AddBook(r.Context(), req.Title, req.Author, req.Category)
	if err != nil {
		writeError(w, "create book", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// BookLabel handles GET /api/books/{id}/label.
//
//	@Summary		Get the code label payload for a book
//	@Tags			books
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"
//	@Success		200	{object}	LabelResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{id}/label [get]
func (h *Handler) BookLabel(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.FindBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "book label", err)
		return
	}
	writeJSON(w, http.StatusOK, LabelResponse{Code: b.ID, Label: bookLabel(b), Hint: bookLabelHint})
}

func bookLabel(b *models.Book) string {
	if b.Author == nil {
		return b.Title
	}
	return b.Title + " / " + *b.Author
}

// ListUsers handles GET /api/users.
//
//	@Summary		List registered borrowers
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	UserListResponse
//	@Security		BearerAuth
//	@Router			/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.Users(r.Context())
	if err != nil {
		writeError(w, "list users", err)
		return
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		users = filterUsers(users, q)
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users, Total: len(users)})
}

func filterUsers(users []models.User, q string) []models.User {
	out := []models.User{}
	for _, u := range users {
		if normalize.Contains(u.Name, q) {
			out = append(out, u)
		}
	}
	return out
}

// GetUser handles GET /api/users/{id}.
//
//	@Summary		Get a single borrower
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	models.User
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.engine.FindUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /api/users.
//
//	@Summary		Register a borrower
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateUserRequest	true	"Borrower to register"
//	@Success		201		{object}	models.User
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	u, err := h.engine.AddUser(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UserBooks handles GET /api/users/{id}/books.
//
//	@Summary		List books currently held by a borrower
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	BookListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{id}/books [get]
func (h *Handler) UserBooks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.engine.FindUser(r.Context(), id); err != nil {
		writeError(w, "user books", err)
		return
	}
	books, err := h.engine.BorrowedBy(r.Context(), id)
	if err != nil {
		writeError(w, "user books", err)
		return
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: books, Total: len(books)})
}

// UserLabel handles GET /api/users/{id}/label.
//
//	@Summary		Get the code label payload for a borrower
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	LabelResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{id}/label [get]
func (h *Handler) UserLabel(w http.ResponseWriter, r *http.Request) {
	u, err := h.engine.FindUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "user label", err)
		return
	}
	writeJSON(w, http.StatusOK, LabelResponse{Code: u.ID, Label: u.Name, Hint: userLabelHint})
}
