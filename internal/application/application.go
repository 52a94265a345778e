package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/moodtunes/internal/api"
	"github.com/eugenenazirov/moodtunes/internal/config"
	"github.com/eugenenazirov/moodtunes/internal/firebaseapp"
)

// ErrFirebaseNotInitialized is returned when New is called without a Firebase handle.
var ErrFirebaseNotInitialized = errors.New("firebase handle is required")

// App encapsulates the application dependencies and HTTP server.
type App struct {
	firebase *firebaseapp.Handle
	verifier api.TokenVerifier
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// Option configures App construction.
type Option func(*options)

type options struct {
	verifier api.TokenVerifier
}

// WithTokenVerifier replaces the Firebase Auth client used to verify ID
// tokens, primarily for tests.
func WithTokenVerifier(verifier api.TokenVerifier) Option {
	return func(o *options) {
		o.verifier = verifier
	}
}

// New wires the HTTP layer around an initialized Firebase handle.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, handle *firebaseapp.Handle, opts ...Option) (*App, error) {
	if handle == nil {
		return nil, ErrFirebaseNotInitialized
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	verifier := o.verifier
	if verifier == nil {
		client, err := handle.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		verifier = client
	}

	handler := api.NewHandler(handle, verifier)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		firebase: handle,
		verifier: verifier,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("firebase_project", a.firebase.ProjectID()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
