// Package firebaseapp performs the one-time startup initialization of the
// Firebase Admin SDK. It reads the bundled service-account key, turns it into
// Google credentials and constructs the Firebase app handle that the rest of
// the service receives by injection.
package firebaseapp
