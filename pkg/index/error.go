package index

import "errors"

var (
	// ErrNotFound is returned when a document or index is not found.
	ErrNotFound = errors.New("not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the index service connection fails.
	ErrConnection = errors.New("index service connection failed")

	// ErrNotReady is returned when a data-plane call is attempted against
	// an index that has not finished initializing.
	ErrNotReady = errors.New("index not ready")
)
