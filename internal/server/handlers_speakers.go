package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/user/scribe/internal/store"
)

// handleSpeakers is the audited mutation endpoint. The raw body is captured
// before decoding because the audit record stores the request verbatim.
func (s *Server) handleSpeakers(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeFail(w, http.StatusBadRequest, "Expects JSON")
		return
	}

	identity, err := s.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeFail(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var req struct {
		Category    string          `json:"category"`
		VideoID     string          `json:"videoId"`
		SpeakerInfo json.RawMessage `json:"speakerInfo"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.store.ApplySpeakerInfo(r.Context(), store.SpeakerInfoRequest{
		Category:    req.Category,
		VideoID:     req.VideoID,
		SpeakerInfo: req.SpeakerInfo,
		Headers:     r.Header,
		Body:        body,
	}, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "success", result)
}
