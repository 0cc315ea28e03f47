// Package handler is the HTTP layer. It binds and validates requests,
// calls the service layer and writes JSON responses.
package handler
