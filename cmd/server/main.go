package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/moodtunes/internal/application"
	"github.com/eugenenazirov/moodtunes/internal/config"
	"github.com/eugenenazirov/moodtunes/internal/credentials"
	"github.com/eugenenazirov/moodtunes/internal/firebaseapp"
	"github.com/eugenenazirov/moodtunes/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("moodtunes", "MoodTunes backend - bootstraps Firebase and serves the MoodTunes API")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	projectID := kingpinApp.Flag("project-id", "Firebase project ID overriding the service account's project").String()
	credentialsDir := kingpinApp.Flag("credentials-dir", "Directory holding "+credentials.ServiceAccountFile+" (defaults to the embedded bundle)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:     *configFile,
		Port:           port,
		LogLevel:       logLevel,
		ProjectID:      projectID,
		CredentialsDir: credentialsDir,
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	app, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// bootstrap initializes Firebase and builds the application around the
// resulting handle. Nothing listens until it returns without error.
func bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application.App, error) {
	source, label := credentials.Source(cfg.Firebase.CredentialsDir)
	initializer := firebaseapp.NewInitializer(source, logger,
		firebaseapp.WithProjectID(cfg.Firebase.ProjectID),
		firebaseapp.WithSourceLabel(label),
	)

	handle, err := initializer.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}

	app, err := application.New(ctx, cfg, logger, handle)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return app, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
