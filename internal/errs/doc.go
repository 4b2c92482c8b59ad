// Package errs defines the error taxonomy shared across procstream.
// The root package re-exports these types as part of the public API.
package errs
