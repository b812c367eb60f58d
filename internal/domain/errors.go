package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrUpstreamFailure is returned when a feed page request fails
	ErrUpstreamFailure = errors.New("upstream feed request failed")

	// ErrMalformedRecord is returned when an upstream record lacks a required field
	ErrMalformedRecord = errors.New("malformed upstream record")

	// ErrNotConfigured is returned when an optional collaborator was not wired
	ErrNotConfigured = errors.New("component not configured")

	// ErrSyncInProgress is returned when a stock sync is already running
	ErrSyncInProgress = errors.New("stock sync already in progress")
)
