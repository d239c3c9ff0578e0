package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/chatgateway/internal/assets"
	"github.com/example/chatgateway/internal/freshness"
	"github.com/example/chatgateway/internal/models"
	"github.com/example/chatgateway/internal/storage"
)

// AssetHandler handles image upload, serving and freshness polling
type AssetHandler struct {
	service        *assets.Service
	cache          *freshness.Cache
	maxUploadBytes int64
	log            *zap.SugaredLogger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(service *assets.Service, cache *freshness.Cache, maxUploadBytes int64, log *zap.SugaredLogger) *AssetHandler {
	return &AssetHandler{
		service:        service,
		cache:          cache,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// CheckFileUpdate handles POST /api/check_file_update. Failures are reported
// in-body with HTTP 200: the browser polls this endpoint continuously and a
// missing file is an expected state, not a transport error.
func (h *AssetHandler) CheckFileUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.FileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONResponse(w, models.FileUpdateResponse{Error: "invalid request body"}, http.StatusOK)
		return
	}

	result, err := h.cache.Check(req.FilePath)
	if err != nil {
		switch {
		case errors.Is(err, freshness.ErrEmptyPath):
			sendJSONResponse(w, models.FileUpdateResponse{Error: "Path parameter is required"}, http.StatusOK)
		case errors.Is(err, freshness.ErrNotFound):
			sendJSONResponse(w, models.FileUpdateResponse{Error: "File not found"}, http.StatusOK)
		default:
			sendJSONResponse(w, models.FileUpdateResponse{Error: err.Error()}, http.StatusOK)
		}
		return
	}

	sendJSONResponse(w, models.FileUpdateResponse{
		Updated: result.Updated,
		Mtime:   float64(result.ModTime.UnixNano()) / 1e9,
	}, http.StatusOK)
}

// ServeImage handles GET /api/serve_image. Unlike the polling endpoint this
// one uses real HTTP status codes, since the client consumes it through an
// <img> tag rather than a JSON poll loop.
func (h *AssetHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	rawPath := r.URL.Query().Get("path")

	reader, contentType, err := h.service.Serve(rawPath)
	if err != nil {
		var unsupported *assets.UnsupportedTypeError
		switch {
		case errors.Is(err, assets.ErrEmptyPath):
			sendJSONResponse(w, map[string]string{"error": "Path parameter is required"}, http.StatusBadRequest)
		case errors.Is(err, assets.ErrNotFound):
			sendJSONResponse(w, map[string]string{"error": err.Error()}, http.StatusNotFound)
		case errors.Is(err, assets.ErrNotAFile):
			sendJSONResponse(w, map[string]string{"error": "Path is not a file"}, http.StatusBadRequest)
		case errors.As(err, &unsupported):
			sendJSONResponse(w, map[string]string{"error": unsupported.Error()}, http.StatusBadRequest)
		default:
			sendJSONResponse(w, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, reader); err != nil {
		// The response is already partially written; nothing to send
		h.log.Warnw("error streaming image", "error", err)
	}
}

// UploadImage handles POST /api/upload_image. The success flag travels
// in-body with HTTP 200, matching what the upload widget expects.
func (h *AssetHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Hard cap on the request body. Without this the parse limit only
	// controls in-memory buffering and oversized uploads spill to disk.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendJSONResponse(w, models.UploadResponse{
				Error: fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit),
			}, http.StatusOK)
			return
		}
		sendJSONResponse(w, models.UploadResponse{Error: "failed to parse form"}, http.StatusOK)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONResponse(w, models.UploadResponse{Error: "No file provided"}, http.StatusOK)
		return
	}
	defer file.Close()

	info, err := h.service.Upload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		var unsupported *assets.UnsupportedTypeError
		switch {
		case errors.Is(err, assets.ErrNoFile):
			sendJSONResponse(w, models.UploadResponse{Error: "No file selected"}, http.StatusOK)
		case errors.As(err, &unsupported):
			sendJSONResponse(w, models.UploadResponse{Error: unsupported.Error()}, http.StatusOK)
		default:
			sendJSONResponse(w, models.UploadResponse{Error: err.Error()}, http.StatusOK)
		}
		return
	}

	sendJSONResponse(w, models.UploadResponse{
		Success:  true,
		FilePath: info.Path,
		FileName: info.Name,
		FileSize: info.Size,
		Width:    info.Width,
		Height:   info.Height,
		URL:      info.URL,
	}, http.StatusOK)
}

// UpdateTestImage handles POST /api/update_test_image
func (h *AssetHandler) UpdateTestImage(w http.ResponseWriter, r *http.Request) {
	var req models.TestImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONResponse(w, models.SimpleResponse{Error: "invalid request body"}, http.StatusOK)
		return
	}

	color := req.Color
	if color == "" {
		color = "red"
	}

	if err := h.service.ReplaceWithSolidColor(req.FilePath, color); err != nil {
		if errors.Is(err, freshness.ErrEmptyPath) {
			sendJSONResponse(w, models.SimpleResponse{Error: "Path parameter is required"}, http.StatusOK)
			return
		}
		sendJSONResponse(w, models.SimpleResponse{Error: err.Error()}, http.StatusOK)
		return
	}

	sendJSONResponse(w, models.SimpleResponse{
		Success: true,
		Message: fmt.Sprintf("image updated to %s", color),
	}, http.StatusOK)
}

// StorageStatus handles GET /api/storage/status and reports which asset
// store backends are usable.
func (h *AssetHandler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]map[string]string{}
	for _, providerType := range []string{"local", "s3", "gcs"} {
		state, reason := storage.Status(providerType)
		entry := map[string]string{"status": state}
		if reason != "" {
			entry["reason"] = reason
		}
		status[providerType] = entry
	}

	sendJSONResponse(w, models.APIResponse{
		Success: true,
		Data:    status,
	}, http.StatusOK)
}
