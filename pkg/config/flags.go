package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --index-name
// on "ragcheck smoke" and "ragcheck index create").
type Flag struct {
	// Name is the long flag name (e.g. "index-name").
	Name string

	// Shorthand is the one-letter short flag (e.g. "n"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "index.name").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagIndexProvider  = "index-provider"
	FlagIndexTarget    = "index-target"
	FlagIndexName      = "index-name"
	FlagIndexNamespace = "namespace"
	FlagIndexMetric    = "metric"
	FlagIndexCloud     = "cloud"
	FlagIndexRegion    = "region"

	FlagEmbeddingProv  = "embedding-provider"
	FlagEmbeddingTgt   = "embedding-target"
	FlagEmbeddingModel = "embedding-model"
	FlagEmbeddingDims  = "embedding-dimensions"

	FlagCompletionProv  = "completion-provider"
	FlagCompletionTgt   = "completion-target"
	FlagCompletionModel = "completion-model"

	FlagTraceEndpoint = "trace-endpoint"
	FlagAPIListen     = "api-listen"
	FlagAPITarget     = "api-target"
	FlagTopK          = "top-k"
	FlagVerifyDelete  = "verify-delete"
)

// DefaultFlagSet returns the canonical flag definitions shared by commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagIndexProvider: {
			Name:        "index-provider",
			ViperKey:    "index.provider",
			Description: "Vector index provider (pinecone, qdrant, sqlite)",
		},
		FlagIndexTarget: {
			Name:        "index-target",
			ViperKey:    "index.target",
			Description: "Index backend target (control URL, host:port, or db path)",
		},
		FlagIndexName: {
			Name:        "index-name",
			Shorthand:   "n",
			ViperKey:    "index.name",
			Description: "Index name",
		},
		FlagIndexNamespace: {
			Name:        "namespace",
			ViperKey:    "index.namespace",
			Description: "Namespace scoping all vector operations",
		},
		FlagIndexMetric: {
			Name:        "metric",
			ViperKey:    "index.metric",
			Description: "Distance metric (cosine, euclidean, dotproduct)",
		},
		FlagIndexCloud: {
			Name:        "cloud",
			ViperKey:    "index.cloud",
			Description: "Cloud provider for hosted index creation",
		},
		FlagIndexRegion: {
			Name:        "region",
			ViperKey:    "index.region",
			Description: "Cloud region for hosted index creation",
		},
		FlagEmbeddingProv: {
			Name:        "embedding-provider",
			ViperKey:    "embedding.provider",
			Description: "Embedding provider (openai, ollama)",
		},
		FlagEmbeddingTgt: {
			Name:        "embedding-target",
			ViperKey:    "embedding.target",
			Description: "Embedding provider URL override",
		},
		FlagEmbeddingModel: {
			Name:        "embedding-model",
			ViperKey:    "embedding.model",
			Description: "Embedding model name",
		},
		FlagEmbeddingDims: {
			Name:        "embedding-dimensions",
			ViperKey:    "embedding.dimensions",
			Description: "Embedding vector dimension",
		},
		FlagCompletionProv: {
			Name:        "completion-provider",
			ViperKey:    "completion.provider",
			Description: "Completion provider (openai, ollama)",
		},
		FlagCompletionTgt: {
			Name:        "completion-target",
			ViperKey:    "completion.target",
			Description: "Completion provider URL override",
		},
		FlagCompletionModel: {
			Name:        "completion-model",
			ViperKey:    "completion.model",
			Description: "Completion model name",
		},
		FlagTraceEndpoint: {
			Name:        "trace-endpoint",
			ViperKey:    "trace.endpoint",
			Description: "Session tracing endpoint (empty disables tracing)",
		},
		FlagAPIListen: {
			Name:        "api-listen",
			Shorthand:   "a",
			ViperKey:    "api.listen",
			Description: "Address for the API server to listen on",
		},
		FlagAPITarget: {
			Name:        "api-target",
			ViperKey:    "client.api_target",
			Description: "Running API server URL",
		},
		FlagTopK: {
			Name:        "top-k",
			Shorthand:   "k",
			ViperKey:    "smoke.top_k",
			Description: "Number of matches retrieved per query",
		},
		FlagVerifyDelete: {
			Name:        "verify-delete",
			ViperKey:    "smoke.verify_delete",
			Description: "Verify the index is gone after cleanup",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
