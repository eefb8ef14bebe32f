package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// respondJSON writes data as the JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Int("status", status).Msg("Failed to encode response")
	}
}

// httpError responds with {"error": clientMsg}. The client message must stay
// free of internals (connection strings, blob URLs, wrapped SDK errors);
// anything the operator needs beyond it goes into details, which are only
// logged.
func httpError(w http.ResponseWriter, status int, clientMsg string, details ...string) {
	if len(details) > 0 {
		log.Error().
			Int("status", status).
			Str("error", clientMsg).
			Strs("details", details).
			Msg("Request failed")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}
