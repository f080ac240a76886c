package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
	"github.com/Fantasim/looter/internal/report"
)

// ReportReader reads the persisted ledger without rotating it.
type ReportReader interface {
	Peek() (*report.State, error)
	PeekText() (string, error)
}

// GetReport handles GET /api/report
func GetReport(reader ReportReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		st, err := reader.Peek()
		if err != nil {
			writeReportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: st,
			Meta: &models.APIMeta{ExecutionTime: time.Since(start).Milliseconds()},
		})
	}
}

// GetReportText handles GET /api/report/text
func GetReportText(reader ReportReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := reader.PeekText()
		if err != nil {
			writeReportError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(text)); err != nil {
			slog.Error("failed to write report text", "error", err)
		}
	}
}

func writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, config.ErrorReportMissing, "no report has been written yet")
	case errors.Is(err, config.ErrReportCorrupt):
		slog.Error("report ledger corrupt", "error", err)
		writeError(w, http.StatusInternalServerError, config.ErrorReportCorrupt, "report ledger is corrupt")
	default:
		slog.Error("failed to read report", "error", err)
		writeError(w, http.StatusInternalServerError, config.ErrorReportCorrupt, "failed to read report")
	}
}
