package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/ideaforge/internal/pipeline"
	"github.com/hoanghai1803/ideaforge/internal/search"
)

// IdeaRunner runs one ideation pass.
type IdeaRunner interface {
	Run(ctx context.Context, query string, count int) (*pipeline.Report, error)
}

// Defaults fill in request fields the client leaves out.
type Defaults struct {
	Query    string
	Count    int
	MaxCount int
}

// ideasRequest is the body of POST /api/ideas. Both fields are optional.
type ideasRequest struct {
	Query string `json:"query"`
	Count *int   `json:"count"`
}

// GenerateIdeas handles POST /api/ideas. It runs the whole pipeline for the
// requested query and returns the ordered ideas plus the skipped results.
func GenerateIdeas(runner IdeaRunner, defaults Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ideasRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		query := strings.TrimSpace(req.Query)
		if query == "" {
			query = defaults.Query
		}
		count := defaults.Count
		if req.Count != nil {
			count = *req.Count
		}
		if defaults.MaxCount > 0 && count > defaults.MaxCount {
			writeError(w, http.StatusBadRequest, "count exceeds the maximum allowed")
			return
		}

		slog.Info("generating ideas", "query", query, "count", count)

		report, err := runner.Run(r.Context(), query, count)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, report)
		case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidCount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrSearch):
			writeError(w, http.StatusBadGateway, err.Error())
		case errors.Is(err, context.Canceled):
			slog.Warn("client went away before ideas were ready", "query", query)
		default:
			slog.Error("failed to generate ideas", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate ideas")
		}
	}
}

// Health handles GET /api/health.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
