package config

const (
	defaultIndexProvider  = "pinecone"
	defaultIndexName      = "test-index-rag"
	defaultIndexNamespace = "test-namespace"
	defaultIndexMetric    = "cosine"
	defaultIndexCloud     = "aws"
	defaultIndexRegion    = "us-east-1"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	defaultCompletionProvider = "openai"
	defaultCompletionModel    = "gpt-4o-mini"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultSmokeTopK = 2
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Index: IndexConfig{
			Provider:  defaultIndexProvider,
			Name:      defaultIndexName,
			Namespace: defaultIndexNamespace,
			Metric:    defaultIndexMetric,
			Cloud:     defaultIndexCloud,
			Region:    defaultIndexRegion,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Completion: CompletionConfig{
			Provider: defaultCompletionProvider,
			Model:    defaultCompletionModel,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Smoke: SmokeConfig{
			TopK: defaultSmokeTopK,
		},
	}
}
