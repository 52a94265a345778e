package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/moodtunes/internal/firebaseapp"
)

var testNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

type staticStatus struct {
	projectID     string
	initializedAt time.Time
}

func (s staticStatus) Ready() bool { return true }
func (s staticStatus) ProjectID() string { return s.projectID }
func (s staticStatus) InitializedAt() time.Time { return s.initializedAt }

type fakeVerifier struct {
	tokens map[string]*auth.Token
	calls  int
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	f.calls++
	if token, ok := f.tokens[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("token rejected")
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		tokens: map[string]*auth.Token{
			"valid-token": {
				UID:      "user-1",
				IssuedAt: testNow.Add(-time.Minute).Unix(),
				Expires:  testNow.Add(time.Hour).Unix(),
				Firebase: auth.FirebaseInfo{SignInProvider: "password"},
			},
		},
	}
}

func setupTestRouter(t *testing.T, status AppStatus, verifier TokenVerifier) http.Handler {
	t.Helper()

	handler := NewHandler(status, verifier, WithClock(func() time.Time { return testNow }))
	return NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))
}

func defaultStatus() staticStatus {
	return staticStatus{projectID: "moodtunes-test", initializedAt: testNow.Add(-time.Hour)}
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %s", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, defaultStatus(), newFakeVerifier())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(testNow) {
		t.Fatalf("expected timestamp %s, got %s", testNow, body.Timestamp)
	}
}

func TestReadyEndpointReportsProject(t *testing.T) {
	status := defaultStatus()
	router := setupTestRouter(t, status, newFakeVerifier())

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status        string    `json:"status"`
		ProjectID     string    `json:"projectId"`
		InitializedAt time.Time `json:"initializedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ready" || body.ProjectID != "moodtunes-test" {
		t.Fatalf("unexpected readiness body %+v", body)
	}
	if !body.InitializedAt.Equal(status.initializedAt) {
		t.Fatalf("expected initializedAt %s, got %s", status.initializedAt, body.InitializedAt)
	}
}

func TestReadyEndpointWithoutFirebase(t *testing.T) {
	router := setupTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestReadyEndpointWithTypedNilHandle(t *testing.T) {
	var handle *firebaseapp.Handle
	router := setupTestRouter(t, handle, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 for nil handle, got %d", rec.Code)
	}
}

func TestSessionEndpointReturnsVerifiedToken(t *testing.T) {
	verifier := newFakeVerifier()
	router := setupTestRouter(t, defaultStatus(), verifier)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		UID            string    `json:"uid"`
		SignInProvider string    `json:"signInProvider"`
		IssuedAt       time.Time `json:"issuedAt"`
		ExpiresAt      time.Time `json:"expiresAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.UID != "user-1" {
		t.Fatalf("expected uid user-1, got %s", body.UID)
	}
	if body.SignInProvider != "password" {
		t.Fatalf("expected password provider, got %s", body.SignInProvider)
	}
	if !body.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", body.ExpiresAt)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected one verification call, got %d", verifier.calls)
	}
}

func TestSessionEndpointRejectsRequests(t *testing.T) {
	testCases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic dXNlcjpwYXNz",
		"empty bearer":   "Bearer ",
		"invalid token":  "Bearer forged-token",
	}

	for name, header := range testCases {
		t.Run(name, func(t *testing.T) {
			router := setupTestRouter(t, defaultStatus(), newFakeVerifier())

			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestSessionHandlerWithoutToken(t *testing.T) {
	handler := NewHandler(defaultStatus(), nil)

	rec := httptest.NewRecorder()
	handler.handleSession(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	router := setupTestRouter(t, defaultStatus(), newFakeVerifier())

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := setupTestRouter(t, defaultStatus(), newFakeVerifier())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	router := setupTestRouter(t, defaultStatus(), newFakeVerifier())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated UUID request id, got %q", got)
	}
}
