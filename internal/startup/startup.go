package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"album-slideshow/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Provider kinds selectable through ALBUM_PROVIDER.
const (
	ProviderLocalFolder = "local_folder"
	ProviderSharedAlbum = "shared_album"
)

// DefaultResolverEndpoint resolves shared album links into media lists.
const DefaultResolverEndpoint = "https://api.publicalbum.org/jsonrpc"

// Config holds all application configuration
type Config struct {
	Provider         string
	LocalPath        string
	Recursive        bool
	AlbumURL         string
	AlbumTitle       string
	ResolverEndpoint string

	DataDir     string
	Port        string
	MetricsPort string

	MetricsEnabled  bool
	VipsEnabled     bool
	LogHealthChecks bool
	LogCameraPolls  bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	provider := strings.ToLower(getEnv("ALBUM_PROVIDER", ProviderLocalFolder))
	localPath := getEnv("LOCAL_PATH", "/photos")
	recursive := getEnvBool("RECURSIVE", true)
	albumURL := getEnv("ALBUM_URL", "")
	albumTitle := getEnv("ALBUM_TITLE", "Shared Album")
	resolverEndpoint := getEnv("ALBUM_RESOLVER_ENDPOINT", DefaultResolverEndpoint)
	dataDir := getEnv("DATA_DIR", "/data")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	vipsEnabled := getEnvBool("VIPS_ENABLED", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	logCameraPolls := getEnvBool("LOG_CAMERA_POLLS", false)

	logging.Info("  ALBUM_PROVIDER:      %s", provider)
	if provider == ProviderLocalFolder {
		logging.Info("  LOCAL_PATH:          %s", localPath)
		logging.Info("  RECURSIVE:           %v", recursive)
	} else {
		logging.Info("  ALBUM_URL:           %s", albumURL)
		logging.Info("  ALBUM_TITLE:         %s", albumTitle)
	}
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  VIPS_ENABLED:        %v", vipsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	switch provider {
	case ProviderLocalFolder:
	case ProviderSharedAlbum:
		if albumURL == "" {
			return nil, fmt.Errorf("ALBUM_URL is required when ALBUM_PROVIDER=%s", ProviderSharedAlbum)
		}
	default:
		return nil, fmt.Errorf("unsupported ALBUM_PROVIDER: %s", provider)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(dataDir); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for settings): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	if provider == ProviderLocalFolder {
		localPath, err = filepath.Abs(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve local photo path: %w", err)
		}
		if info, statErr := os.Stat(localPath); statErr != nil || !info.IsDir() {
			logging.Warn("  Local photo path issue: %s is not an accessible directory", localPath)
		}
	}

	return &Config{
		Provider:         provider,
		LocalPath:        localPath,
		Recursive:        recursive,
		AlbumURL:         albumURL,
		AlbumTitle:       albumTitle,
		ResolverEndpoint: resolverEndpoint,
		DataDir:          dataDir,
		Port:             port,
		MetricsPort:      metricsPort,
		MetricsEnabled:   metricsEnabled,
		VipsEnabled:      vipsEnabled,
		LogHealthChecks:  logHealthChecks,
		LogCameraPolls:   logCameraPolls,
		DatabasePath:     filepath.Join(dataDir, "slideshow.db"),
	}, nil
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(port, metricsPort string, metricsEnabled bool, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Camera:        http://0.0.0.0:%s/camera/image", port)
	logging.Info("    API:           http://0.0.0.0:%s/api/slideshow", port)
	if metricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", metricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
}

// LogShutdownInitiated logs the start of a graceful shutdown
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ___    ____                     _____ ___     __
   /   |  / / /_  __  ______ ___   / ___// (_)___/ /__  _____
  / /| | / / __ \/ / / / __ '__ \  \__ \/ / / __  / _ \/ ___/
 / ___ |/ / /_/ / /_/ / / / / / / ___/ / / / /_/ /  __(__  )
/_/  |_/_/_.___/\__,_/_/ /_/ /_/ /____/_/_/\__,_/\___/____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
