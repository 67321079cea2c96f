package server

import (
	"net/http"

	"github.com/user/scribe/internal/store"
)

// handlePoll returns the full queue snapshot for a category. The snapshot is
// unfiltered; workers pick unclaimed entries client-side. Auth is the
// category-scoped worker code, checked before anything is read.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := store.SanitizeCategory(q.Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CheckWorkerAuth(r.Context(), category, q.Get("user_id"), q.Get("auth_code")); err != nil {
		writeError(w, err)
		return
	}
	queue, err := s.store.Queue(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "New vids", queue)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit int `json:"limit"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if s.enumerator == nil {
		writeFail(w, http.StatusInternalServerError, "no catalog source configured")
		return
	}
	found, err := s.enumerator.FindNewVideos(r.Context(), req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "discovery complete", map[string]any{"enqueued": found})
}

type claimRequest struct {
	Category   string   `json:"category"`
	VideoIDs   []string `json:"video_ids"`
	InstanceID string   `json:"instance_id"`
	UserID     string   `json:"user_id"`
	AuthCode   string   `json:"auth_code"`
}

// handleClaim assigns queue entries to a worker instance. Claim and release
// are gated on the admin-scoped auth code, not the per-category one.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category, err := store.SanitizeCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CheckWorkerAuth(r.Context(), store.AdminScope, req.UserID, req.AuthCode); err != nil {
		writeError(w, err)
		return
	}
	if len(req.VideoIDs) == 0 {
		writeFail(w, http.StatusBadRequest, "missing video_ids")
		return
	}
	claimed, err := s.store.Claim(r.Context(), category, req.VideoIDs, req.InstanceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "claimed", map[string]any{"claimed": claimed})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category, err := store.SanitizeCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CheckWorkerAuth(r.Context(), store.AdminScope, req.UserID, req.AuthCode); err != nil {
		writeError(w, err)
		return
	}
	if len(req.VideoIDs) == 0 {
		writeFail(w, http.StatusBadRequest, "missing video_ids")
		return
	}
	if err := s.store.Release(r.Context(), category, req.VideoIDs); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "released", nil)
}
