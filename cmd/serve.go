package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/natefinch/lumberjack"
	"github.com/spf13/cobra"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
	"github.com/ca-srg/slackconsole/internal/observability"
	"github.com/ca-srg/slackconsole/internal/webui"
)

var (
	serveHost    string
	servePort    int
	serveLogFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Slack console web server",
	Long: `
The serve command starts a local web server that provides:
- A token registry validated against auth.test
- Channel listing for the selected token
- Posting messages and threaded replies
- A live activity feed over Server-Sent Events

Example:
  slackconsole serve                    # Start with defaults (localhost:8080)
  slackconsole serve --port 9090        # Use custom port
  slackconsole serve --log-file console.log
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host to bind the web server (default from SLACK_CONSOLE_HOST)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to bind the web server (default from SLACK_CONSOLE_PORT)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "",
		"Rotating log file, tee'd with stdout (default from SLACK_CONSOLE_LOG_FILE)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logWriter, closeLog := buildLogWriter(cfg)
	defer closeLog()
	logger := log.New(logWriter, "[webui] ", log.LstdFlags)

	// Telemetry is a no-op unless OTEL_ENABLED is set
	shutdownTelemetry, err := observability.Init(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Printf("Warning: telemetry shutdown: %v", err)
		}
	}()

	if err := metrics.Init(cfg.StatsDBPath); err != nil {
		logger.Printf("Warning: invocation stats disabled: %v", err)
	} else if err := metrics.InitOTelMetrics(); err != nil {
		logger.Printf("Warning: failed to register stats gauge: %v", err)
	}
	defer func() { _ = metrics.Close() }()

	// Flags override the environment
	serverConfig := webui.ServerConfigFromApp(cfg)
	if serveHost != "" {
		serverConfig.Host = serveHost
	}
	if servePort != 0 {
		serverConfig.Port = servePort
	}

	server, err := webui.NewServer(serverConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create console server: %w", err)
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Printf("Received signal: %v", sig)
		cancel()
	}()

	return server.Run(ctx)
}

// buildLogWriter tees stdout into a rotating file when one is configured.
func buildLogWriter(cfg *config.Config) (io.Writer, func()) {
	path := serveLogFile
	if path == "" {
		path = cfg.LogFile
	}
	if path == "" {
		return os.Stdout, func() {}
	}

	fileLogger := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, fileLogger), func() { _ = fileLogger.Close() }
}
