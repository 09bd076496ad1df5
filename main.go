package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"album-slideshow/internal/album"
	"album-slideshow/internal/handlers"
	"album-slideshow/internal/logging"
	"album-slideshow/internal/metrics"
	"album-slideshow/internal/middleware"
	"album-slideshow/internal/render"
	"album-slideshow/internal/startup"
	"album-slideshow/internal/store"
)

func main() {
	startTime := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Settings with SQLite persistence
	db, err := store.OpenDB(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to open settings database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error("Failed to close settings database: %v", err)
		}
	}()

	settings := store.NewSettings()
	if values, found, err := db.Load(ctx); err != nil {
		logging.Warn("Failed to load persisted settings, using defaults: %v", err)
	} else if found {
		settings.Apply(values)
		logging.Info("Restored persisted settings")
	}
	settings.AddListener(func() {
		if err := db.Save(context.Background(), settings.Values()); err != nil {
			logging.Error("Failed to persist settings: %v", err)
		}
	})

	// Album provider and refresh coordinator
	var provider album.Provider
	switch config.Provider {
	case startup.ProviderSharedAlbum:
		provider = album.NewSharedProvider(config.ResolverEndpoint, config.AlbumURL, config.AlbumTitle)
	default:
		provider = album.NewLocalProvider(config.LocalPath, config.Recursive)
	}

	coordinator := album.NewCoordinator(provider, settings)

	if config.VipsEnabled {
		render.InitVips()
		defer render.ShutdownVips()
	}

	engine := render.NewEngine(settings, coordinator)

	// Folder changes trigger a rescan for the local provider
	if local, ok := provider.(*album.LocalProvider); ok {
		if err := local.Watch(ctx, coordinator.RequestRefresh); err != nil {
			logging.Warn("Folder watching unavailable: %v", err)
		}
	}

	go coordinator.Start(ctx)

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		go serveMetrics(config.MetricsPort)
	}

	h := handlers.New(engine, settings, coordinator)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogCameraPolls = config.LogCameraPolls
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, cancel)

	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/camera/image", h.CameraImage).Methods("GET")

	api := r.PathPrefix("/api/slideshow").Subrouter()
	api.HandleFunc("/next", h.ForceNext).Methods("POST")
	api.HandleFunc("/refresh", h.ForceRefresh).Methods("POST")
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PATCH")

	return r
}

func serveMetrics(port string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	startup.LogShutdownInitiated(sig.String())

	cancel()
	startup.LogShutdownStepComplete("Background refresh stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown error: %v", err)
	}
	startup.LogShutdownStepComplete("HTTP server stopped")
	startup.LogShutdownComplete()
}
