// Package models provides request and response structures for the gateway API
package models

// ConfigRequest is the body of POST /api/config.
type ConfigRequest struct {
	APIBase      string `json:"api_base"`
	APIKey       string `json:"api_key"`
	DefaultModel string `json:"default_model"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// FileUpdateRequest is the body of POST /api/check_file_update.
type FileUpdateRequest struct {
	FilePath string `json:"file_path"`
}

// TestImageRequest is the body of POST /api/update_test_image.
type TestImageRequest struct {
	FilePath string `json:"file_path"`
	Color    string `json:"color"`
}

// StatusResponse is the envelope for the config/validate/chat endpoints.
// Status is "success" or "error"; the remaining fields are operation-specific.
type StatusResponse struct {
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Config   interface{} `json:"config,omitempty"`
	Models   []string    `json:"models,omitempty"`
	Response string      `json:"response,omitempty"`
}

// FileUpdateResponse is the body of the freshness-check endpoint. Failures
// travel in-body with HTTP 200: a missing file is an expected polling state,
// not a transport problem.
type FileUpdateResponse struct {
	Updated bool    `json:"updated"`
	Mtime   float64 `json:"mtime,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// UploadResponse is the body of the image upload endpoint.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SimpleResponse is the success/error envelope for the test-image endpoint.
type SimpleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIResponse is a generic API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
