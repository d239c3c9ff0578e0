// Package main is the entry point for the chat gateway server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/example/chatgateway/internal/assets"
	"github.com/example/chatgateway/internal/config"
	"github.com/example/chatgateway/internal/freshness"
	"github.com/example/chatgateway/internal/gateway"
	"github.com/example/chatgateway/internal/handlers"
	"github.com/example/chatgateway/internal/middleware"
	"github.com/example/chatgateway/internal/storage"
)

var (
	configFile = flag.String("config", "chatgateway.json", "Configuration file path")
	testConfig = flag.Bool("test-config", false, "Test configuration and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = "1.0.0" // Version number for the application
)

// isPortInUse checks if the given port is already in use
func isPortInUse(port int) bool {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return true
	}
	listener.Close()
	return false
}

// findFreePort tries to find a free port starting from the given port
// and incrementing by 1 if the port is in use. Stops searching after
// trying 100 ports or reaching port 65535.
func findFreePort(startPort int) int {
	port := startPort
	maxPortToTry := startPort + 100
	if maxPortToTry > 65535 {
		maxPortToTry = 65535
	}

	for port <= maxPortToTry {
		if !isPortInUse(port) {
			return port
		}
		port++
	}

	return startPort
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	flag.Parse()

	// Load application configuration
	if err := config.LoadConfig(*configFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *testConfig {
		fmt.Println("Configuration test successful")
		return
	}

	zl, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	fmt.Printf("\n=================================\n")
	fmt.Printf("Chat Gateway v%s\n", version)
	fmt.Printf("=================================\n\n")

	// Upstream gateway: runtime-configurable endpoint/key/model over a
	// fixed timeout/retry policy
	store := gateway.NewStore(
		config.AppConfig.Upstream.Endpoint,
		config.AppConfig.Upstream.DefaultModel,
		gateway.Policy{
			Timeout:       time.Duration(config.AppConfig.Upstream.TimeoutSeconds * float64(time.Second)),
			MaxRetries:    config.AppConfig.Upstream.MaxRetries,
			BackoffFactor: config.AppConfig.Upstream.BackoffFactor,
		})
	client := gateway.NewClient(store, logger.Named("gateway"))

	// Asset storage
	providerType := config.AppConfig.Storage.Provider
	providerConfig := map[string]string{}
	switch providerType {
	case "s3", "amazon", "aws":
		providerConfig = config.AppConfig.Storage.S3
	case "gcs", "google":
		providerConfig = config.AppConfig.Storage.Google
	default:
		providerType = "local"
		providerConfig = config.AppConfig.Storage.Local
	}

	provider, err := storage.Create(providerType, providerConfig)
	if err != nil {
		logger.Warnw("configured storage provider unavailable, falling back to local",
			"provider", providerType, "error", err)
		provider, err = storage.Create("local", config.AppConfig.Storage.Local)
		if err != nil {
			logger.Fatalw("failed to initialize local storage", "error", err)
		}
	}

	assetService := assets.NewService(provider, true, logger.Named("assets"))
	cache := freshness.New()

	gatewayHandler := handlers.NewGatewayHandler(store, client, logger.Named("api"))
	assetHandler := handlers.NewAssetHandler(assetService, cache,
		config.AppConfig.Server.MaxUploadBytes, logger.Named("api"))

	// Router with middleware
	router := mux.NewRouter()

	router.HandleFunc("/api/config", gatewayHandler.SaveConfig).Methods(http.MethodPost)
	router.HandleFunc("/api/validate", gatewayHandler.Validate).Methods(http.MethodGet)
	router.HandleFunc("/api/chat", gatewayHandler.Chat).Methods(http.MethodPost)

	router.HandleFunc("/api/check_file_update", assetHandler.CheckFileUpdate).Methods(http.MethodPost)
	router.HandleFunc("/api/serve_image", assetHandler.ServeImage).Methods(http.MethodGet)
	router.HandleFunc("/api/upload_image", assetHandler.UploadImage).Methods(http.MethodPost)
	router.HandleFunc("/api/update_test_image", assetHandler.UpdateTestImage).Methods(http.MethodPost)
	router.HandleFunc("/api/storage/status", assetHandler.StorageStatus).Methods(http.MethodGet)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Serve static UI files
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(config.AppConfig.Server.UIDir)))

	handler := middleware.Chain(
		router,
		middleware.Logger(logger.Named("http")),
		middleware.Recover(logger.Named("http")),
		middleware.CORS(config.AppConfig.Server.AllowedOrigins),
	)

	// Check if the configured port is available, if not find a free port
	originalPort := config.AppConfig.Server.Port
	if isPortInUse(originalPort) {
		newPort := findFreePort(originalPort)
		if newPort != originalPort {
			logger.Infow("port already in use, switching", "from", originalPort, "to", newPort)
			config.AppConfig.Server.Port = newPort
		} else {
			logger.Warnw("port in use and no alternative found, server may fail to start", "port", originalPort)
		}
	}

	addr := config.GetAddressString()
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Channel to listen for interrupt signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infow("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(config.AppConfig.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("server forced to shutdown", "error", err)
	}

	logger.Info("server shutdown complete")
}
