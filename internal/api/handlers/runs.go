package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
	"github.com/go-chi/chi/v5"
)

// RunReader lists journaled dispatch runs.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	GetRun(ctx context.Context, runID string) (*models.Run, error)
}

// ListRuns handles GET /api/runs?limit=N
func ListRuns(reader RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			slog.Warn("invalid limit parameter", "query", r.URL.RawQuery, "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidLimit, err.Error())
			return
		}

		runs, err := reader.ListRuns(r.Context(), limit)
		if err != nil {
			slog.Error("failed to list runs", "limit", limit, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to list runs")
			return
		}

		elapsed := time.Since(start).Milliseconds()
		slog.Debug("runs listed", "returned", len(runs), "elapsed_ms", elapsed)

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: runs,
			Meta: &models.APIMeta{ExecutionTime: elapsed},
		})
	}
}

// GetRun handles GET /api/runs/{id}
func GetRun(reader RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := chi.URLParam(r, "id")

		run, err := reader.GetRun(r.Context(), id)
		if errors.Is(err, config.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, config.ErrorRunNotFound, "run not found: "+id)
			return
		}
		if err != nil {
			slog.Error("failed to fetch run", "runID", id, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to fetch run")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: run,
			Meta: &models.APIMeta{ExecutionTime: time.Since(start).Milliseconds()},
		})
	}
}

// parseLimit accepts an empty value (server default) or 1..RunsMaxLimit.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return config.RunsDefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > config.RunsMaxLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d, got %q", config.RunsMaxLimit, raw)
	}
	return n, nil
}
