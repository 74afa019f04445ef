// internal/server/handlers/ingest.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"trendscope/internal/service/ingest"
)

// IngestHandler handles observation ingestion requests
type IngestHandler struct {
	pipeline *ingest.Pipeline
	log      zerolog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(pipeline *ingest.Pipeline, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		pipeline: pipeline,
		log:      log,
	}
}

// PostObservations ingests a batch of raw observation candidates. Per-row
// failures are reported in the response body, not as an HTTP error.
func (h *IngestHandler) PostObservations(w http.ResponseWriter, r *http.Request) {
	var candidates []ingest.RawObservation
	if err := json.NewDecoder(r.Body).Decode(&candidates); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if len(candidates) == 0 {
		respondWithError(h.log, w, http.StatusBadRequest, "Empty batch", nil)
		return
	}

	report, err := h.pipeline.Ingest(r.Context(), candidates)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, "Failed to ingest batch", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
