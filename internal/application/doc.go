// Package application provides application initialization and dependency wiring.
// It receives the already-initialized Firebase handle from the entry point and
// builds the token verifier, handlers, routers and HTTP server around it, so
// the main package stays focused on CLI parsing and orchestration.
package application
