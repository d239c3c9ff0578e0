// Package handlers provides HTTP handlers for the gateway API
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/example/chatgateway/internal/models"
)

// sendJSONResponse sends a JSON response to the client
func sendJSONResponse(w http.ResponseWriter, response interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// sendStatusError sends a {status:"error"} envelope with the given HTTP status
func sendStatusError(w http.ResponseWriter, message string, status int) {
	sendJSONResponse(w, models.StatusResponse{
		Status:  "error",
		Message: message,
	}, status)
}
