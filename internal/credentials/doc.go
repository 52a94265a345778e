// Package credentials locates the Firebase service-account key shipped with
// the binary. The key is embedded at build time from the bundle directory and
// can be replaced at runtime by an on-disk directory holding a file with the
// same name.
package credentials
