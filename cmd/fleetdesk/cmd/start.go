package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/fleetdesk/fleetdesk/internal/adapter/inbound/web"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/audit"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/cel"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/fleetapi"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/state"
	"github.com/fleetdesk/fleetdesk/internal/config"
	"github.com/fleetdesk/fleetdesk/internal/domain/session"
	"github.com/fleetdesk/fleetdesk/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the console server",
	Long: `Start the FleetDesk console server.

The stored session is loaded and validated before the listener comes up,
so the first request already sees a resolved session.

Examples:
  # Start with config file settings
  fleetdesk start

  # Start with a specific config file
  fleetdesk --config /path/to/config.yaml start`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDefaults()
	if sessionFilePath != "" {
		cfg.Session.Path = sessionFilePath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Signal context for graceful shutdown. stop() restores default
	// handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logLevel := parseLogLevel(cfg.Console.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Console.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// Write PID file so "fleetdesk stop" can find us.
	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("fleetdesk stopped")
	return nil
}

// run wires the console together and serves until the context ends.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.SetupTracing(cfg.Tracing.Enabled)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	var recorder session.Recorder
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.Open(cfg.Audit.Path, logger)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer func() { _ = auditStore.Close() }()
		if err := auditStore.Prune(ctx, cfg.Audit.Retention); err != nil {
			logger.Warn("prune audit store", "error", err)
		}
		recorder = auditStore
		logger.Info("audit trail enabled", "path", cfg.Audit.Path)
	}

	credStore := state.NewFileStore(cfg.Session.Path, logger)
	opts := []session.ServiceOption{}
	if recorder != nil {
		opts = append(opts, session.WithRecorder(recorder))
	}
	sessions := session.NewService(credStore, logger, opts...)

	// Resolve the stored session before accepting requests. A valid
	// stored token means the operator is signed in from the first page.
	sessions.Bootstrap(ctx)
	snap := sessions.Snapshot()
	logger.Info("session resolved",
		"authenticated", snap.Authenticated,
		"username", snap.Username,
		"path", cfg.Session.Path,
	)

	client := fleetapi.NewClient(
		cfg.Backend.URL,
		sessions.Token,
		sessions.HandleUnauthorized,
		fleetapi.WithTimeout(cfg.Backend.TimeoutDuration()),
		fleetapi.WithListCacheTTL(cfg.Backend.ListCacheTTLDuration()),
		fleetapi.WithLogger(logger),
		fleetapi.WithTracer(otel.Tracer("fleetdesk/fleetapi")),
	)

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("create filter evaluator: %w", err)
	}

	var auditTrail web.AuditLog
	if auditStore != nil {
		auditTrail = auditStore
	}
	handler, err := web.NewHandler(sessions, client, evaluator, auditTrail, logger, cfg.Console.PageSize)
	if err != nil {
		return fmt.Errorf("create web handler: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Console.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console listening", "addr", cfg.Console.Addr, "backend", cfg.Backend.URL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("console server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown console server: %w", err)
	}
	return nil
}

// parseLogLevel converts a string log level to slog.Level. Returns
// slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// pidFilePath returns the standard location for the fleetdesk PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".fleetdesk", "server.pid")
	}
	return filepath.Join(os.TempDir(), "fleetdesk-server.pid")
}

// writePIDFile writes the current process PID to the given path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

// readPIDFile reads a PID from the given file path. Returns 0 if unreadable.
func readPIDFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
