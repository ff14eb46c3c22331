package api

import (
	"net/http"
	"strconv"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/lending"
)

const defaultRecentLimit = 5

// writeResult reports a borrow or return as a lending.Result. Domain
// failures keep their status code; anything else is a 500.
func writeResult(w http.ResponseWriter, op, msg string, err error) {
	if err != nil && apperr.KindOf(err) == "" {
		writeError(w, op, err)
		return
	}
	res := lending.ResultOf(msg, err)
	status := http.StatusOK
	if !res.Success {
		status = res.Kind.HTTPStatus()
	}
	writeJSON(w, status, res)
}

// Borrow handles POST /api/borrow.
//
//	@Summary		Check a book out to a borrower
//	@Tags			lending
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BorrowRequest	true	"Book and borrower"
//	@Success		200		{object}	lending.Result
//	@Failure		404		{object}	lending.Result
//	@Failure		409		{object}	lending.Result
//	@Security		BearerAuth
//	@Router			/borrow [post]
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req BorrowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	msg, err := h.engine.Borrow(r.Context(), req.BookID, req.UserID)
	writeResult(w, "borrow", msg, err)
}

// Return handles POST /api/return.
//
//	@Summary		Check a book back in
//	@Tags			lending
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReturnRequest	true	"Book"
//	@Success		200		{object}	lending.Result
//	@Failure		404		{object}	lending.Result
//	@Failure		409		{object}	lending.Result
//	@Security		BearerAuth
//	@Router			/return [post]
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	msg, err := h.engine.Return(r.Context(), req.BookID)
	writeResult(w, "return", msg, err)
}

// ListRecords handles GET /api/records.
//
//	@Summary		List borrow records in the order they were created
//	@Tags			lending
//	@Produce		json
//	@Success		200	{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := h.engine.Records(r.Context())
	if err != nil {
		writeError(w, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs})
}

// History handles GET /api/history.
//
//	@Summary		List borrow records, newest first
//	@Tags			lending
//	@Produce		json
//	@Success		200	{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	recs, err := h.engine.History(r.Context())
	if err != nil {
		writeError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs})
}

// Recent handles GET /api/recent.
//
//	@Summary		Most recent borrow records
//	@Tags			lending
//	@Produce		json
//	@Param			limit	query		int	false	"Number of records (default 5)"
//	@Success		200		{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultRecentLimit
	}
	recs, err := h.engine.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, "recent activity", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs})
}

// Stats handles GET /api/stats.
//
//	@Summary		Dashboard counters
//	@Tags			lending
//	@Produce		json
//	@Success		200	{object}	lending.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Consistency handles GET /api/consistency.
//
//	@Summary		Books whose status disagrees with the ledger
//	@Tags			lending
//	@Produce		json
//	@Success		200	{object}	ConsistencyResponse
//	@Security		BearerAuth
//	@Router			/consistency [get]
func (h *Handler) Consistency(w http.ResponseWriter, r *http.Request) {
	issues, err := h.engine.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, "consistency check", err)
		return
	}
	writeJSON(w, http.StatusOK, ConsistencyResponse{Consistent: len(issues) == 0, Issues: issues})
}
