package firebaseapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/eugenenazirov/moodtunes/internal/credentials"
)

// newApp is a variable so tests can substitute the SDK constructor.
var newApp = firebase.NewApp

// Initializer constructs the Firebase handle exactly once.
//
// Repeated calls to Initialize after a success return the same handle without
// touching the credential source again. A failed call stores nothing, so the
// next call starts over.
type Initializer struct {
	source      fs.FS
	sourceLabel string
	fileName    string
	projectID   string
	logger      *zap.Logger
	clock       func() time.Time

	mu     sync.Mutex
	handle *Handle
}

// Option configures Initializer behaviour.
type Option func(*Initializer)

// WithProjectID overrides the project ID stored in the service-account key.
func WithProjectID(projectID string) Option {
	return func(i *Initializer) {
		i.projectID = strings.TrimSpace(projectID)
	}
}

// WithSourceLabel sets the credential source description used in logs.
func WithSourceLabel(label string) Option {
	return func(i *Initializer) {
		i.sourceLabel = label
	}
}

// WithFileName overrides the logical name of the service-account key.
func WithFileName(name string) Option {
	return func(i *Initializer) {
		i.fileName = name
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(i *Initializer) {
		i.clock = clock
	}
}

// NewInitializer returns an Initializer reading the service-account key from source.
func NewInitializer(source fs.FS, logger *zap.Logger, opts ...Option) *Initializer {
	i := &Initializer{
		source:      source,
		sourceLabel: credentials.EmbeddedLabel,
		fileName:    credentials.ServiceAccountFile,
		logger:      logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	return i
}

// Initialize loads the service-account key, builds the Firebase app and
// returns its handle. Errors match ErrMissingConfiguration,
// ErrMalformedCredentials or ErrAppInitialization and are all fatal to startup.
func (i *Initializer) Initialize(ctx context.Context) (*Handle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.handle != nil {
		return i.handle, nil
	}

	data, err := credentials.Read(i.source, i.fileName)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingConfiguration, i.fileName, i.sourceLabel)
		}
		// An unreadable key is a packaging defect just like a missing one.
		return nil, fmt.Errorf("%w: %w", ErrMissingConfiguration, err)
	}

	creds, key, err := parseCredentials(ctx, data)
	if err != nil {
		return nil, err
	}

	projectID := i.projectID
	if projectID == "" {
		projectID = key.ProjectID
	}

	app, err := newApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAppInitialization, err)
	}

	i.handle = &Handle{
		app:           app,
		projectID:     projectID,
		clientEmail:   key.ClientEmail,
		source:        i.sourceLabel,
		initializedAt: i.clock(),
	}

	i.logger.Info("firebase initialized successfully",
		zap.String("project_id", projectID),
		zap.String("client_email", key.ClientEmail),
		zap.String("credential_source", i.sourceLabel),
	)

	return i.handle, nil
}

// Handle returns the initialized handle, or nil before a successful Initialize.
func (i *Initializer) Handle() *Handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.handle
}
