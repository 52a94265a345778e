package firebaseapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// Handle is the initialized Firebase app context. It is read-only after
// construction and safe for concurrent use.
type Handle struct {
	app           *firebase.App
	projectID     string
	clientEmail   string
	source        string
	initializedAt time.Time

	authOnce   sync.Once
	authClient *auth.Client
	authErr    error
}

// Ready reports whether the handle holds an initialized app. It is safe to
// call on a nil *Handle.
func (h *Handle) Ready() bool {
	return h != nil && h.app != nil
}

// App returns the underlying Firebase app.
func (h *Handle) App() *firebase.App {
	return h.app
}

// ProjectID returns the Firebase project the app is bound to.
func (h *Handle) ProjectID() string {
	return h.projectID
}

// ClientEmail returns the service account the app authenticates as.
func (h *Handle) ClientEmail() string {
	return h.clientEmail
}

// Source describes where the service-account key was loaded from.
func (h *Handle) Source() string {
	return h.source
}

// InitializedAt reports when the handle was constructed.
func (h *Handle) InitializedAt() time.Time {
	return h.initializedAt
}

// Auth returns the Firebase Auth client, creating it on first use.
func (h *Handle) Auth(ctx context.Context) (*auth.Client, error) {
	h.authOnce.Do(func() {
		client, err := h.app.Auth(ctx)
		if err != nil {
			h.authErr = fmt.Errorf("create auth client: %w", err)
			return
		}
		h.authClient = client
	})
	return h.authClient, h.authErr
}
