package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"scrollcast/internal/encoder"
	"scrollcast/internal/logging"
	"scrollcast/internal/render"
	"scrollcast/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration.
type Config struct {
	Port             string
	WorkDir          string
	AssetsDir        string
	DefaultFramePath string
	MaxDimension     int
	JobTimeout       time.Duration
	BatchSize        int
	LogHealthChecks  bool
	MetricsEnabled   bool
	VipsEnabled      bool
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	workDir := getEnv("WORK_DIR", "/work")
	assetsDir := getEnv("ASSETS_DIR", "./assets")
	defaultFrame := getEnv("DEFAULT_FRAME", filepath.Join(assetsDir, "default-frame.png"))
	maxDimension := getEnvInt("MAX_DIMENSION", 4096)
	jobTimeoutStr := getEnv("JOB_TIMEOUT", "300s")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	vipsEnabled := getEnvBool("VIPS_ENABLED", false)
	batchSize := workers.BatchSize(render.DefaultBatchSize)

	logging.Info("  PORT:              %s", port)
	logging.Info("  WORK_DIR:          %s", workDir)
	logging.Info("  ASSETS_DIR:        %s", assetsDir)
	logging.Info("  DEFAULT_FRAME:     %s", defaultFrame)
	logging.Info("  MAX_DIMENSION:     %d", maxDimension)
	logging.Info("  JOB_TIMEOUT:       %s", jobTimeoutStr)
	logging.Info("  FRAME_BATCH_SIZE:  %d", batchSize)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  VIPS_ENABLED:      %v", vipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	jobTimeout, err := time.ParseDuration(jobTimeoutStr)
	if err != nil || jobTimeout <= 0 {
		logging.Warn("  Invalid JOB_TIMEOUT, using default: 300s")
		jobTimeout = 300 * time.Second
	}
	if maxDimension < 1 {
		logging.Warn("  Invalid MAX_DIMENSION, using default: 4096")
		maxDimension = 4096
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENVIRONMENT CHECKS")
	logging.Info("------------------------------------------------------------")

	if err := ensureDirectory(workDir, "work"); err != nil {
		return nil, fmt.Errorf("work directory %s: %w", workDir, err)
	}
	if err := testWriteAccess(workDir); err != nil {
		return nil, fmt.Errorf("work directory %s is not writable: %w", workDir, err)
	}
	logging.Info("  [OK] Work directory writable: %s", workDir)

	if err := encoder.Available(); err != nil {
		return nil, fmt.Errorf("encoder check failed: %w", err)
	}
	logging.Info("  [OK] ffmpeg found")

	if _, err := os.Stat(defaultFrame); err != nil {
		logging.Warn("  Default frame asset missing: %s (requests without a frame upload will fail)", defaultFrame)
	} else {
		logging.Info("  [OK] Default frame asset: %s", defaultFrame)
	}
	logging.Info("")

	return &Config{
		Port:             port,
		WorkDir:          workDir,
		AssetsDir:        assetsDir,
		DefaultFramePath: defaultFrame,
		MaxDimension:     maxDimension,
		JobTimeout:       jobTimeout,
		BatchSize:        batchSize,
		LogHealthChecks:  logHealthChecks,
		MetricsEnabled:   metricsEnabled,
		VipsEnabled:      vipsEnabled,
	}, nil
}

// RouteInfo contains information about a registered route.
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes walks the router and returns every registered route.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil // prefix matchers without a template
		}
		methods, err := route.GetMethods()
		if err != nil {
			routes = append(routes, RouteInfo{Method: "*", Path: path})
			return nil
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the registered route table at startup.
func LogHTTPRoutes(router *mux.Router) {
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("failed to enumerate routes: %v", err)
		return
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP ROUTES")
	logging.Info("------------------------------------------------------------")
	for _, r := range routes {
		logging.Info("  %-6s %s", r.Method, r.Path)
	}
	logging.Info("")
}

// LogServerStarted logs successful server start with endpoint information.
func LogServerStarted(port string, metricsEnabled bool, startupDuration time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", startupDuration)
	logging.Info("  Application:   http://0.0.0.0:%s", port)
	if metricsEnabled {
		logging.Info("  Metrics:       http://0.0.0.0:%s/metrics", port)
	} else {
		logging.Info("  Metrics:       DISABLED")
	}
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStepComplete logs a completed shutdown step.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   ____                 _ _  ___           _
  / ___|  ___ _ __ ___ | | |/ __| __ _ ___| |_
  \___ \ / __| '__/ _ \| | | |   / _' / __| __|
   ___) | (__| | | (_) | | | |__| (_| \__ \ |_
  |____/ \___|_|  \___/|_|_|\___|\__,_|___/\__|

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
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("  %s directory does not exist, creating: %s", name, path)
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

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
