package pinecone

// createIndexRequest is the control-plane request body for index creation.
type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension uint      `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

// indexSpec selects serverless placement for the index.
type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// indexModel is the control-plane description of an index.
type indexModel struct {
	Name      string      `json:"name"`
	Dimension uint        `json:"dimension"`
	Metric    string      `json:"metric"`
	Host      string      `json:"host"`
	Status    indexStatus `json:"status"`
}

type indexStatus struct {
	Ready bool   `json:"ready"`
	State string `json:"state"`
}

// listIndexesResponse is the control-plane index listing.
type listIndexesResponse struct {
	Indexes []indexModel `json:"indexes"`
}

// vectorRecord is the wire form of a single vector.
type vectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// upsertRequest is the data-plane upsert body.
type upsertRequest struct {
	Vectors   []vectorRecord `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount uint64 `json:"upsertedCount"`
}

// queryRequest is the data-plane similarity query body.
type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeValues   bool      `json:"includeValues"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryResponse struct {
	Matches   []queryMatch `json:"matches"`
	Namespace string       `json:"namespace"`
}

// listVectorsResponse is the paginated vector ID listing.
type listVectorsResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

type fetchResponse struct {
	Vectors   map[string]vectorRecord `json:"vectors"`
	Namespace string                  `json:"namespace"`
}

// updateRequest replaces the values of a single vector in place.
type updateRequest struct {
	ID        string    `json:"id"`
	Values    []float32 `json:"values"`
	Namespace string    `json:"namespace,omitempty"`
}

type deleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
}

// statsResponse is the data-plane index stats body.
type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount uint64 `json:"vectorCount"`
	} `json:"namespaces"`
	Dimension        uint   `json:"dimension"`
	TotalVectorCount uint64 `json:"totalVectorCount"`
}
