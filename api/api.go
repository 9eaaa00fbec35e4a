package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/llm"
)

// answerStream is the slice of llm.Stream the handlers need; tests
// substitute scripted streams through the dial hook.
type answerStream interface {
	Recv() (string, error)
	Close() error
}

// Server is the local quill daemon. It holds a snapshot of the app config
// that SetAppConfig swaps atomically when the config file changes on disk.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App

	mu     sync.RWMutex
	appCfg *config.Config

	dial func(ctx context.Context, model config.ModelConfig, messages []llm.Message) (answerStream, error)
}

// NewServer creates a new API server around the given app config snapshot.
func NewServer(cfg Config, appCfg *config.Config, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: cfg,
		logger: logger,
		app:    app,
		appCfg: appCfg,
		dial:   dialUpstream,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/models", s.handleModels)
	app.Get("/v1/templates", s.handleTemplates)
	app.Post("/v1/ask", s.handleAsk)

	return s
}

// dialUpstream opens a streaming chat completion against the given model's
// endpoint.
func dialUpstream(ctx context.Context, model config.ModelConfig, messages []llm.Message) (answerStream, error) {
	client := llm.NewClient(model.BaseURL, model.APIKey)
	return client.StreamChat(ctx, model.ModelName, messages)
}

// SetAppConfig replaces the config snapshot used by subsequent requests.
// The config watcher calls this on file changes; in-flight streams keep
// the snapshot they started with.
func (s *Server) SetAppConfig(appCfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appCfg = appCfg
}

func (s *Server) snapshot() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appCfg
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
