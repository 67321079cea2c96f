package server

import (
	"net/http"
	"strconv"

	"github.com/user/scribe/internal/store"
)

// handleListAudit returns a category's audit records, newest first. Operator
// endpoint; limit defaults to 100.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := store.SanitizeCategory(q.Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 100
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeFail(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.store.ListAudit(r.Context(), category, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "audit records", map[string]any{"entries": entries})
}
