package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/user/scribe/internal/store"
)

type sweepRequest struct {
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

// handleSetMetadata writes a batch of metadata records plus their date-index
// mirrors for a category.
func (s *Server) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string                          `json:"category"`
		Metadata map[string]store.MetadataRecord `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category, err := store.SanitizeCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	ids, err := s.store.SetMetadataBatch(r.Context(), category, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Added metadata for %s", strings.Join(ids, ", ")), map[string]any{"ids": ids})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	s.handleSweep(w, r, func(req sweepRequest) (any, error) {
		return s.engine.MigratePaths(r.Context(), req.Category, req.Limit)
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.handleSweep(w, r, func(req sweepRequest) (any, error) {
		return s.engine.RegenerateIndex(r.Context(), req.Category, req.Limit)
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request, run func(sweepRequest) (any, error)) {
	var req sweepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category, err := store.SanitizeCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Category = category
	if s.engine == nil {
		writeFail(w, http.StatusInternalServerError, "no object store configured")
		return
	}
	stats, err := run(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "done", stats)
}
