package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/scan"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(engine *lending.Engine, sessions *scan.Registry, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(engine, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.CreateBook)
	r.Get("/books/{id}", h.GetBook)
	r.Get("/books/{id}/label", h.BookLabel)
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Get("/users/{id}/books", h.UserBooks)
	r.Get("/users/{id}/label", h.UserLabel)

	// Lending.
	r.Post("/borrow", h.Borrow)
	r.Post("/return", h.Return)
	r.Get("/records", h.ListRecords)
	r.Get("/history", h.History)
	r.Get("/recent", h.Recent)
	r.Get("/stats", h.Stats)
	r.Get("/consistency", h.Consistency)

	// Scan sessions.
	r.Route("/scan/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{id}", h.GetSession)
		r.Delete("/{id}", h.DeleteSession)
		r.Post("/{id}/scans", h.SubmitScan)
		r.Post("/{id}/reset", h.ResetSession)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
