package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/chatgateway/internal/gateway"
	"github.com/example/chatgateway/internal/models"
)

// GatewayHandler handles upstream configuration and chat proxy requests
type GatewayHandler struct {
	store  *gateway.Store
	client *gateway.Client
	log    *zap.SugaredLogger
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(store *gateway.Store, client *gateway.Client, log *zap.SugaredLogger) *GatewayHandler {
	return &GatewayHandler{
		store:  store,
		client: client,
		log:    log,
	}
}

// SaveConfig handles POST /api/config
func (h *GatewayHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var req models.ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStatusError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot, err := h.store.Update(req.APIBase, req.APIKey, req.DefaultModel)
	if err != nil {
		sendStatusError(w, "API base URL and API key are required", http.StatusBadRequest)
		return
	}

	h.log.Infow("upstream configuration updated", "endpoint", snapshot.Endpoint, "model", snapshot.DefaultModel)
	sendJSONResponse(w, models.StatusResponse{
		Status: "success",
		Config: snapshot,
	}, http.StatusOK)
}

// Validate handles GET /api/validate
func (h *GatewayHandler) Validate(w http.ResponseWriter, r *http.Request) {
	modelIDs, err := h.client.Validate(r.Context())
	if err != nil {
		var upstream *gateway.UpstreamError
		switch {
		case errors.Is(err, gateway.ErrNotConfigured):
			sendStatusError(w, "API key is not configured", http.StatusBadRequest)
		case errors.As(err, &upstream):
			sendStatusError(w, fmt.Sprintf("API validation failed: %d - %s",
				upstream.StatusCode, upstream.Body), http.StatusBadRequest)
		default:
			sendStatusError(w, fmt.Sprintf("failed to validate configuration: %v", err),
				http.StatusInternalServerError)
		}
		return
	}

	sendJSONResponse(w, models.StatusResponse{
		Status:  "success",
		Message: "API configuration validated",
		Models:  modelIDs,
	}, http.StatusOK)
}

// Chat handles POST /api/chat
func (h *GatewayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStatusError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.client.SendChat(r.Context(), req.Message, req.Model)
	if err != nil {
		var upstream *gateway.UpstreamError
		switch {
		case errors.Is(err, gateway.ErrEmptyMessage):
			sendStatusError(w, "message content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, gateway.ErrNotConfigured):
			sendStatusError(w, "API key is not configured", http.StatusBadRequest)
		case errors.As(err, &upstream):
			// Mirror the upstream status so the client can distinguish
			// quota, auth and model errors.
			sendStatusError(w, fmt.Sprintf("API request failed: %d - %s",
				upstream.StatusCode, upstream.Body), upstream.StatusCode)
		case errors.Is(err, gateway.ErrMalformedResponse):
			sendStatusError(w, "no usable content in upstream response", http.StatusInternalServerError)
		default:
			sendStatusError(w, fmt.Sprintf("failed to process chat request: %v", err),
				http.StatusInternalServerError)
		}
		return
	}

	sendJSONResponse(w, models.StatusResponse{
		Status:   "success",
		Response: reply,
	}, http.StatusOK)
}
