// Package apperr defines the error taxonomy shared by the ingestion, grading
// and HTTP layers. Components wrap these sentinels with fmt.Errorf("...: %w")
// and handlers map them to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrUpstreamUnavailable covers network failures and non-2xx responses
	// from the sheet export or the market-data API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedPayload is returned when an upstream answered but the body
	// is empty or is an HTML page where CSV or JSON was expected.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNotFound means no record matches the requested identifier.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a request rejected before any upstream call.
	ErrValidation = errors.New("validation failed")
)
