package api

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

const bearerPrefix = "bearer "

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// authMiddleware verifies the Firebase ID token carried in the Authorization
// header and stores it in the request context.
func authMiddleware(verifier TokenVerifier, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		if verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "Authentication unavailable", "token verification is not configured")
			return
		}

		token, err := verifier.VerifyIDToken(r.Context(), raw)
		if err != nil {
			logger.Debug("id token rejected",
				zap.String("request_id", requestIDFromContext(r.Context())),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired ID token")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithToken(r.Context(), token)))
	})
}

func contextWithToken(ctx context.Context, token *auth.Token) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}
