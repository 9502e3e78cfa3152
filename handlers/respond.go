package handlers

import (
	"encoding/json"
	"net/http"
)

// writeError emits the JSON error envelope every handler uses.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
