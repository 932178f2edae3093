package service

import "errors"

// Common service errors
var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrUpstreamUnavailable is returned when SST data could not be fetched upstream
	ErrUpstreamUnavailable = errors.New("upstream SST source unavailable")

	// ErrRefreshIncomplete is returned when at least one tile failed during a refresh or preload
	ErrRefreshIncomplete = errors.New("refresh completed with errors")

	// ErrArchiveDisabled is returned when an archive operation is requested without a configured archive
	ErrArchiveDisabled = errors.New("tile archive not configured")
)
