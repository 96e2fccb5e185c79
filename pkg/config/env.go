package config

import "os"

// API keys are read from the environment only and never persisted to the
// config file.

// IndexAPIKey returns the API key for the given index provider.
func IndexAPIKey(provider string) string {
	switch provider {
	case "pinecone":
		return os.Getenv("PINECONE_API_KEY")
	case "qdrant":
		return os.Getenv("QDRANT_API_KEY")
	default:
		return ""
	}
}

// OpenAIAPIKey returns the OpenAI API key used by hosted embedding and
// completion providers.
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// TraceAPIKey returns the key used to authenticate with the tracing
// endpoint.
func TraceAPIKey() string {
	return os.Getenv("RAGCHECK_TRACE_API_KEY")
}
