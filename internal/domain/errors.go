package domain

import "errors"

var (
	// ErrCorpusUnavailable signals a missing or corrupt corpus snapshot.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrInvalidRequest signals a malformed chat request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSearchBackendError signals a search backend failure.
	ErrSearchBackendError = errors.New("search backend error")
	// ErrModelProviderError signals a chat model provider failure.
	ErrModelProviderError = errors.New("model provider error")
)
