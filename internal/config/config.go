// Package config provides configuration management for the chat gateway application
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Settings holds the application configuration
type Settings struct {
	Server   ServerConfig   `json:"server"`
	Upstream UpstreamConfig `json:"upstream"`
	Storage  StorageConfig  `json:"storage"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	UIDir           string   `json:"uiDir"`
	UploadsDir      string   `json:"uploadsDir"`
	ShutdownTimeout int      `json:"shutdownTimeout"`
	MaxUploadBytes  int64    `json:"maxUploadBytes"`
	AllowedOrigins  []string `json:"allowedOrigins"`
}

// UpstreamConfig contains defaults for the upstream chat completion API.
// Endpoint, key and model can be replaced at runtime through the API;
// the timeout and retry policy are fixed for the process lifetime.
type UpstreamConfig struct {
	Endpoint       string  `json:"endpoint"`
	DefaultModel   string  `json:"defaultModel"`
	TimeoutSeconds float64 `json:"timeoutSeconds"`
	MaxRetries     int     `json:"maxRetries"`
	BackoffFactor  float64 `json:"backoffFactor"`
}

// StorageConfig contains asset storage configuration
type StorageConfig struct {
	Provider string            `json:"provider"`
	Local    map[string]string `json:"local"`
	S3       map[string]string `json:"s3"`
	Google   map[string]string `json:"google"`
}

// AppConfig is the global application configuration
var AppConfig Settings

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configFile string) error {
	// Set defaults
	AppConfig = Settings{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			UIDir:           "./ui",
			UploadsDir:      "./uploaded_images",
			ShutdownTimeout: 30,
			MaxUploadBytes:  100 << 20,
		},
		Upstream: UpstreamConfig{
			Endpoint:       "https://api.deepseek.com/v1",
			DefaultModel:   "deepseek-chat",
			TimeoutSeconds: 300,
			MaxRetries:     3,
			BackoffFactor:  0.5,
		},
		Storage: StorageConfig{
			Provider: "local",
			Local:    map[string]string{"basePath": "./uploaded_images"},
		},
	}

	// Load from config file if it exists
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return fmt.Errorf("error reading config file: %w", err)
			}

			if err := json.Unmarshal(data, &AppConfig); err != nil {
				return fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv()

	// Create required directories
	if err := ensureDirectoriesExist(); err != nil {
		return err
	}

	return nil
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv() {
	// Server config
	if port := os.Getenv("CG_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			AppConfig.Server.Port = p
		}
	}

	if host := os.Getenv("CG_HOST"); host != "" {
		AppConfig.Server.Host = host
	}

	if uiDir := os.Getenv("CG_UI_DIR"); uiDir != "" {
		AppConfig.Server.UIDir = uiDir
	}

	if uploadsDir := os.Getenv("CG_UPLOADS_DIR"); uploadsDir != "" {
		AppConfig.Server.UploadsDir = uploadsDir
		if AppConfig.Storage.Local == nil {
			AppConfig.Storage.Local = map[string]string{}
		}
		AppConfig.Storage.Local["basePath"] = uploadsDir
	}

	// Upstream defaults
	if endpoint := os.Getenv("CG_UPSTREAM_ENDPOINT"); endpoint != "" {
		AppConfig.Upstream.Endpoint = endpoint
	}

	if model := os.Getenv("CG_UPSTREAM_MODEL"); model != "" {
		AppConfig.Upstream.DefaultModel = model
	}

	if timeout := os.Getenv("CG_UPSTREAM_TIMEOUT"); timeout != "" {
		if t, err := strconv.ParseFloat(timeout, 64); err == nil && t > 0 {
			AppConfig.Upstream.TimeoutSeconds = t
		}
	}

	if retries := os.Getenv("CG_UPSTREAM_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n > 0 {
			AppConfig.Upstream.MaxRetries = n
		}
	}

	if backoff := os.Getenv("CG_UPSTREAM_BACKOFF"); backoff != "" {
		if b, err := strconv.ParseFloat(backoff, 64); err == nil && b >= 0 {
			AppConfig.Upstream.BackoffFactor = b
		}
	}

	// Storage config
	if provider := os.Getenv("CG_STORAGE_PROVIDER"); provider != "" {
		AppConfig.Storage.Provider = provider
	}
}

// ensureDirectoriesExist creates required directories if they don't exist
func ensureDirectoriesExist() error {
	dirs := []string{
		AppConfig.Server.UIDir,
		AppConfig.Server.UploadsDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		// Resolve relative paths
		if !filepath.IsAbs(dir) {
			dir = filepath.Clean(dir)
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetAddressString returns the address string for the server to listen on
func GetAddressString() string {
	return fmt.Sprintf("%s:%d", AppConfig.Server.Host, AppConfig.Server.Port)
}
