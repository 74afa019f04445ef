// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes an error response, logging the underlying cause
func respondWithError(log zerolog.Logger, w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Error().Err(err).Int("status", code).Msg(message)
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}
