package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lendscan/internal/scan"
)

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *scan.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("scan session not found"))
		return "", nil, false
	}
	return id, s, true
}

// CreateSession handles POST /api/scan/sessions.
//
//	@Summary		Start a scan session for a terminal
//	@Tags			scan
//	@Produce		json
//	@Success		201	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/scan/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, Session: s.Snapshot()})
}

// GetSession handles GET /api/scan/sessions/{id}.
//
//	@Summary		Current state of a scan session
//	@Tags			scan
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, Session: s.Snapshot()})
}

// SubmitScan handles POST /api/scan/sessions/{id}/scans.
//
//	@Summary		Submit a decoded code to a scan session
//	@Tags			scan
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session ID"
//	@Param			body	body		ScanRequest	true	"Decoded code"
//	@Success		200		{object}	ScanResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan/sessions/{id}/scans [post]
func (h *Handler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, settled := s.Scan(r.Context(), req.Code)
	resp := ScanResponse{Settled: settled, Session: s.Snapshot()}
	if settled {
		resp.Result = &res
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetSession handles POST /api/scan/sessions/{id}/reset.
//
//	@Summary		Return a scan session to awaiting a user
//	@Tags			scan
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan/sessions/{id}/reset [post]
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, Session: s.Snapshot()})
}

// DeleteSession handles DELETE /api/scan/sessions/{id}.
//
//	@Summary		End a scan session
//	@Tags			scan
//	@Param			id	path	string	true	"Session ID"
//	@Success		204	"Session ended"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("scan session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
