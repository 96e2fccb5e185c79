// Package index provides interfaces and implementations for hosted vector
// index storage and retrieval.
package index

import "context"

// Document represents a stored record with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the document within its namespace.
	ID string

	// Values is the vector representation of the document content.
	// Its length must match the index dimension; the remote service
	// enforces the mismatch, drivers only surface the error.
	Values []float32

	// Metadata is an arbitrary key/value map stored alongside the vector.
	// The source text conventionally lives under the "text" key.
	Metadata map[string]any
}

// Match represents a search result with its similarity score.
type Match struct {
	Document

	// Score is the similarity score (higher = more similar).
	Score float32
}

// Stats describes the current contents of an index.
type Stats struct {
	// Dimension is the vector dimension the index was created with.
	Dimension uint

	// TotalCount is the number of vectors across all namespaces.
	TotalCount uint64

	// Namespaces maps namespace name to vector count.
	Namespaces map[string]uint64
}

// Spec describes an index to be created.
type Spec struct {
	// Name is the index name.
	Name string

	// Dimension is the vector dimension (fixed by the embedding model).
	Dimension uint

	// Metric is the similarity metric ("cosine", "dotproduct", "euclidean").
	Metric string

	// Cloud and Region select the serverless placement for hosted
	// backends. Local backends ignore them.
	Cloud  string
	Region string
}

// Status describes the state of an existing index.
type Status struct {
	Name      string
	Dimension uint

	// Host is the data-plane endpoint for the index, where the
	// backend separates control and data planes.
	Host string

	// Ready reports whether the index accepts reads and writes.
	Ready bool

	// State is the backend-specific state string (e.g. "Initializing").
	State string
}

// Driver handles namespaced storage and retrieval of vector embeddings
// against a single index.
type Driver interface {
	// Upsert stores documents with their embeddings. Existing IDs are
	// overwritten.
	Upsert(ctx context.Context, namespace string, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]Match, error)

	// List returns the IDs of all vectors in the namespace.
	List(ctx context.Context, namespace string) ([]string, error)

	// Fetch retrieves documents by their IDs.
	Fetch(ctx context.Context, namespace string, ids []string) ([]Document, error)

	// Update replaces the vector values of a single document.
	Update(ctx context.Context, namespace string, id string, values []float32) error

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, namespace string, ids []string) error

	// Stats returns counts and dimension information for the index.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases any resources held by the driver.
	Close() error
}

// Lifecycle manages index creation and teardown on the control plane.
// Hosted indexes are eventually consistent: after CreateIndex the index
// may not be ready, and WaitReady must be used before data-plane calls.
type Lifecycle interface {
	// CreateIndex creates a new index from the given spec.
	CreateIndex(ctx context.Context, spec Spec) error

	// DescribeIndex returns the status of an index.
	DescribeIndex(ctx context.Context, name string) (*Status, error)

	// ListIndexes returns the names of all indexes.
	ListIndexes(ctx context.Context) ([]string, error)

	// DeleteIndex removes an index and all of its vectors.
	DeleteIndex(ctx context.Context, name string) error

	// WaitReady polls DescribeIndex until the index reports ready or ctx
	// is cancelled. Transient describe errors are retried, not returned.
	WaitReady(ctx context.Context, name string) error
}
