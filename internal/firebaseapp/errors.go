package firebaseapp

import "errors"

var (
	// ErrMissingConfiguration is returned when the service-account key is absent from the credential source.
	ErrMissingConfiguration = errors.New("firebase service account file not found")
	// ErrMalformedCredentials is returned when the service-account key cannot be parsed as Google credentials.
	ErrMalformedCredentials = errors.New("firebase service account file is malformed")
	// ErrAppInitialization is returned when the Firebase SDK rejects the client options.
	ErrAppInitialization = errors.New("firebase app initialization failed")
)
