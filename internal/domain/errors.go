package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the search index cannot be reached.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrQueryFailed signals a failed index query.
	ErrQueryFailed = errors.New("index query failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrMalformedCase signals a corpus record missing expected sections.
	ErrMalformedCase = errors.New("malformed case record")
	// ErrCaseNotFound signals a missing case document.
	ErrCaseNotFound = errors.New("case not found")
)
