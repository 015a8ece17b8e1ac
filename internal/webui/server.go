package webui

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	appconfig "github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/slackservice"
)

// ServerConfig holds the web console server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ServerConfigFromApp builds a ServerConfig from the environment
// configuration.
func ServerConfigFromApp(cfg *appconfig.Config) *ServerConfig {
	return &ServerConfig{
		Host:            cfg.ServerHost,
		Port:            cfg.ServerPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

// SlackService is the slice of the Slack service layer the handlers
// use. Production code adapts *slackservice.Service; tests substitute
// fakes.
type SlackService interface {
	AuthTest(ctx context.Context) (*slackservice.AuthInfo, error)
	ListChannels(ctx context.Context) ([]slackservice.Channel, error)
	PostMessage(ctx context.Context, channelID, text string) (*slackservice.PostResult, error)
	PostReply(ctx context.Context, channelID, threadTS, text string) (*slackservice.PostResult, error)
}

// ServiceFactory builds a SlackService bound to one token.
type ServiceFactory func(token string) SlackService

// Server represents the web console server
type Server struct {
	config         *ServerConfig
	appConfig      *appconfig.Config
	httpServer     *http.Server
	templates      *TemplateManager
	state          *ConsoleState
	sseManager     *SSEManager
	serviceFactory ServiceFactory
	logger         *log.Logger
	mu             sync.RWMutex
	cancelFunc     context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer creates a new web console server
func NewServer(serverConfig *ServerConfig, logger *log.Logger) (*Server, error) {
	if serverConfig == nil {
		serverConfig = DefaultServerConfig()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[webui] ", log.LstdFlags)
	}

	// Load application config
	appCfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create SSE manager
	sseManager := NewSSEManager(DefaultSSEConfig(), logger)

	// Create state manager
	state := NewConsoleState(sseManager)

	// Create template manager
	templates, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	s := &Server{
		config:     serverConfig,
		appConfig:  appCfg,
		templates:  templates,
		state:      state,
		sseManager: sseManager,
		logger:     logger,
	}
	s.serviceFactory = s.defaultServiceFactory

	return s, nil
}

// defaultServiceFactory builds a real Slack client for the given token.
func (s *Server) defaultServiceFactory(token string) SlackService {
	return slackservice.New(token,
		slackservice.WithHTTPClient(&http.Client{Timeout: s.appConfig.SlackAPITimeout}),
		slackservice.WithDebug(s.appConfig.SlackDebug),
		slackservice.WithLogger(s.logger),
	)
}

// SetServiceFactory replaces the Slack service factory, typically with
// a fake in tests.
func (s *Server) SetServiceFactory(factory ServiceFactory) {
	s.serviceFactory = factory
}

// Run starts the server and blocks until context is cancelled
func (s *Server) Run(ctx context.Context) error {
	// Create cancellable context
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	defer cancel()

	// Start SSE manager
	s.sseManager.Start(ctx)
	defer s.sseManager.Stop()

	// Setup HTTP server
	mux := s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	// Start HTTP server in goroutine
	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting Slack console at http://%s:%d", s.config.Host, s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		return err
	}
}

// shutdown performs graceful shutdown
func (s *Server) shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})
	return shutdownErr
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Printf("Warning: failed to setup static files: %v", err)
	} else {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Pages and form posts
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/token/", s.handleAddToken)
	mux.HandleFunc("/post-message/", s.handlePostMessage)
	mux.HandleFunc("/post-reply/", s.handlePostReply)

	// JSON endpoints
	mux.HandleFunc("/channels/", s.handleChannels)
	mux.HandleFunc("/messages/", s.handleMessages)
	mux.HandleFunc("/api/status", s.handleAPIStatus)

	// Live updates
	mux.HandleFunc("/partials/activity", s.handlePartialActivity)
	mux.HandleFunc("/sse/activity", s.handleSSEActivity)

	return mux
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for static files and SSE (too noisy)
		skipLog := strings.HasPrefix(r.URL.Path, "/static/") ||
			strings.HasPrefix(r.URL.Path, "/sse/")

		if !skipLog {
			s.logger.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if !skipLog {
			s.logger.Printf("%s %s completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// GetState returns the console state
func (s *Server) GetState() *ConsoleState {
	return s.state
}
