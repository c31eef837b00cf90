// Package client talks to the paaster HTTP API.
//
// Client is the transport-agnostic contract; HTTPClient implements it over
// net/http with multipart uploads and JSON responses. Server status codes
// are mapped onto the sentinel errors in internal/common, so callers match
// them with errors.Is:
//
//	400 -> common.ErrFormat
//	401 -> common.ErrorUnauthorized
//	404 -> common.ErrorNotFound
//	410 -> common.ErrAlreadyConsumed
//	413 -> common.ErrPayloadTooLarge
//
// Transport failures are wrapped in ErrUnavailable.
//
// InitDatabase opens and migrates the SQLite file that keeps the local
// share history.
package client
