// internal/server/handlers/report.go

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"trendscope/internal/domain/trend"
	"trendscope/internal/service/analysis"
	"trendscope/internal/service/report"
)

// ReportHandler handles analysis and report requests
type ReportHandler struct {
	engine *analysis.Engine
	store  trend.Store
	log    zerolog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(engine *analysis.Engine, store trend.Store, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		engine: engine,
		store:  store,
		log:    log,
	}
}

// GetKeyword returns the analysis of a single keyword, one insight per
// platform it was observed on
func (h *ReportHandler) GetKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	if keyword == "" {
		respondWithError(h.log, w, http.StatusBadRequest, "Missing keyword", nil)
		return
	}

	var platform trend.Platform
	if raw := r.URL.Query().Get("platform"); raw != "" {
		parsed, err := trend.ParsePlatform(raw)
		if err != nil {
			respondWithError(h.log, w, http.StatusBadRequest, "Unknown platform", err)
			return
		}
		platform = parsed
	}

	asOf, err := parseAsOf(r)
	if err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	insights, err := h.engine.AnalyzeKeyword(r.Context(), keyword, platform, asOf)
	if err != nil {
		if errors.Is(err, trend.ErrNotFound) {
			respondWithError(h.log, w, http.StatusNotFound, "Keyword not found", nil)
		} else {
			respondWithError(h.log, w, http.StatusInternalServerError, "Failed to analyze keyword", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, insights)
}

// GetReport returns the full trend report. With format=text the plain-text
// rendering is returned instead of JSON.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	trendReport, err := h.engine.BuildReport(r.Context(), asOf)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report.RenderText(trendReport)))
		return
	}

	respondWithJSON(w, http.StatusOK, trendReport)
}

// GetStats returns store-level statistics
func (h *ReportHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, "Failed to read stats", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// parseAsOf reads the optional as_of query parameter, defaulting to today
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}
