// Package handlers provides HTTP handlers for the footprint API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spherical-ai/footprint/cmd/footprint-api/middleware"
	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/engine"
	"github.com/spherical-ai/footprint/internal/observability"
)

const maxBodyBytes = 64 << 10

// Searcher runs one footprint search.
type Searcher interface {
	Aggregate(ctx context.Context, name, extraInfo string) (*engine.Report, error)
}

// SearchHandler handles footprint search requests.
type SearchHandler struct {
	logger   *observability.Logger
	searcher Searcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, searcher Searcher) *SearchHandler {
	return &SearchHandler{
		logger:   logger.WithComponent("search_handler"),
		searcher: searcher,
	}
}

// SearchRequestDTO is the body of POST /api/search. extraInfo is accepted as
// an alias of extra_info.
type SearchRequestDTO struct {
	Name           string `json:"name"`
	ExtraInfo      string `json:"extra_info"`
	ExtraInfoCamel string `json:"extraInfo"`
}

func (d SearchRequestDTO) extra() string {
	if d.ExtraInfo != "" {
		return d.ExtraInfo
	}
	return d.ExtraInfoCamel
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	var req SearchRequestDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.searcher.Aggregate(ctx, req.Name, req.extra())
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Type == domain.ErrorTypeValidation {
			middleware.WriteError(w, http.StatusBadRequest, de.Message)
			return
		}
		log.Error().Err(err).Str("name", req.Name).Msg("search failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.InternalErrorMessage)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *SearchHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("encode response")
	}
}
