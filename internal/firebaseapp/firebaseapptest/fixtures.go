// Package firebaseapptest provides service-account fixtures for tests that
// need an initialized Firebase handle without real credentials.
package firebaseapptest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/eugenenazirov/moodtunes/internal/credentials"
)

// ProjectID is the project the default fixture belongs to.
const ProjectID = "moodtunes-test"

// ClientEmail is the service account of the default fixture.
const ClientEmail = "firebase-adminsdk@moodtunes-test.iam.gserviceaccount.com"

var (
	keyOnce sync.Once
	keyPEM  string
	keyErr  error
)

// PrivateKeyPEM returns a PKCS#8 RSA key generated once per test binary.
func PrivateKeyPEM(t testing.TB) string {
	t.Helper()

	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			keyErr = err
			return
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			keyErr = err
			return
		}
		keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	})
	if keyErr != nil {
		t.Fatalf("generate private key: %v", keyErr)
	}
	return keyPEM
}

// ServiceAccountJSON returns a service-account key. Keys in overrides replace
// the defaults; a nil value removes the key.
func ServiceAccountJSON(t testing.TB, overrides map[string]any) []byte {
	t.Helper()

	key := map[string]any{
		"type":           "service_account",
		"project_id":     ProjectID,
		"private_key_id": "0123456789abcdef",
		"private_key":    PrivateKeyPEM(t),
		"client_email":   ClientEmail,
		"client_id":      "123456789012345678901",
		"auth_uri":       "https://accounts.google.com/o/oauth2/auth",
		"token_uri":      "https://oauth2.googleapis.com/token",
	}
	for k, v := range overrides {
		if v == nil {
			delete(key, k)
			continue
		}
		key[k] = v
	}

	data, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("marshal service account fixture: %v", err)
	}
	return data
}

// Source returns a credential source holding data under the bundled file name.
func Source(data []byte) fstest.MapFS {
	return fstest.MapFS{
		credentials.ServiceAccountFile: &fstest.MapFile{Data: data},
	}
}

// ValidSource returns a credential source holding the default fixture.
func ValidSource(t testing.TB) fstest.MapFS {
	t.Helper()
	return Source(ServiceAccountJSON(t, nil))
}
