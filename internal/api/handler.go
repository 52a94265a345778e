package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	tokenContextKey     contextKey = "firebaseToken"
)

// AppStatus reports the state of the initialized Firebase app. Ready must
// tolerate a nil receiver so a typed nil status reads as not ready.
type AppStatus interface {
	Ready() bool
	ProjectID() string
	InitializedAt() time.Time
}

// TokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Handler exposes the service endpoints backed by the Firebase handle.
type Handler struct {
	status   AppStatus
	verifier TokenVerifier

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler. A nil status makes the readiness check
// fail; a nil verifier rejects every session request.
func NewHandler(status AppStatus, verifier TokenVerifier, opts ...HandlerOption) *Handler {
	h := &Handler{
		status:   status,
		verifier: verifier,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	_ = r
	if h.status == nil || !h.status.Ready() {
		writeError(w, http.StatusServiceUnavailable, "Firebase not initialized", "the service has not completed startup")
		return
	}

	resp := readyResponse{
		Status:        "ready",
		ProjectID:     h.status.ProjectID(),
		InitializedAt: h.status.InitializedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	token := tokenFromContext(r.Context())
	if token == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing verified ID token")
		return
	}

	resp := sessionResponse{
		UID:            token.UID,
		SignInProvider: token.Firebase.SignInProvider,
		IssuedAt:       time.Unix(token.IssuedAt, 0).UTC(),
		ExpiresAt:      time.Unix(token.Expires, 0).UTC(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func tokenFromContext(ctx context.Context) *auth.Token {
	if v := ctx.Value(tokenContextKey); v != nil {
		if token, ok := v.(*auth.Token); ok {
			return token
		}
	}
	return nil
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type readyResponse struct {
	Status        string    `json:"status"`
	ProjectID     string    `json:"projectId"`
	InitializedAt time.Time `json:"initializedAt"`
}

type sessionResponse struct {
	UID            string    `json:"uid"`
	SignInProvider string    `json:"signInProvider,omitempty"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}
