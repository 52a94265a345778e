package firebaseapp

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
)

const serviceAccountType = "service_account"

// firebaseScopes mirrors the scopes the Admin SDK requests for its own clients.
// Credentials built from JSON carry their scopes, so they must be set here.
var firebaseScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/devstorage.full_control",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

// serviceAccountKey holds the fields of a service-account key that must be
// present for the SDK to sign tokens.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func (k serviceAccountKey) validate() error {
	if k.Type != serviceAccountType {
		return fmt.Errorf("unexpected credential type %q, want %q", k.Type, serviceAccountType)
	}

	var missing []string
	if strings.TrimSpace(k.ProjectID) == "" {
		missing = append(missing, "project_id")
	}
	if strings.TrimSpace(k.ClientEmail) == "" {
		missing = append(missing, "client_email")
	}
	if strings.TrimSpace(k.PrivateKey) == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return validatePrivateKey(k.PrivateKey)
}

// validatePrivateKey checks that the key is a PEM-encoded PKCS#8 or PKCS#1
// private key, the two encodings Google issues.
func validatePrivateKey(raw string) error {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return errors.New("private_key is not PEM encoded")
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return nil
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return nil
	}
	return errors.New("private_key is not a valid PKCS#8 or PKCS#1 key")
}

// parseCredentials validates the service-account key and converts it into
// Google credentials. Every failure wraps ErrMalformedCredentials.
func parseCredentials(ctx context.Context, data []byte) (*google.Credentials, serviceAccountKey, error) {
	var key serviceAccountKey
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, key, fmt.Errorf("%w: file is empty", ErrMalformedCredentials)
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, key, fmt.Errorf("%w: %w", ErrMalformedCredentials, err)
	}
	if err := key.validate(); err != nil {
		return nil, key, fmt.Errorf("%w: %w", ErrMalformedCredentials, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, firebaseScopes...)
	if err != nil {
		return nil, key, fmt.Errorf("%w: %w", ErrMalformedCredentials, err)
	}
	return creds, key, nil
}
