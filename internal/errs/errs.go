// Package errs defines the error types returned to API clients.
//
// Every failure that leaves the service is shaped as an HTTPError so
// clients receive a consistent, machine-readable body: a stable code,
// a message, the HTTP status and optional field-level details.
package errs
