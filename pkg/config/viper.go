package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quarrylabs/ragcheck/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the RAGCHECK_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (RAGCHECK_INDEX_PROVIDER, RAGCHECK_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: RAGCHECK_INDEX_PROVIDER, RAGCHECK_TRACE_ENDPOINT, etc.
	v.SetEnvPrefix("RAGCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state, after
// defaults, file, env, and bound flags have all been applied.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Index: IndexConfig{
			Provider:  v.GetString("index.provider"),
			Target:    v.GetString("index.target"),
			Name:      v.GetString("index.name"),
			Namespace: v.GetString("index.namespace"),
			Metric:    v.GetString("index.metric"),
			Cloud:     v.GetString("index.cloud"),
			Region:    v.GetString("index.region"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Completion: CompletionConfig{
			Provider: v.GetString("completion.provider"),
			Target:   v.GetString("completion.target"),
			Model:    v.GetString("completion.model"),
		},
		Trace: TraceConfig{
			Endpoint: v.GetString("trace.endpoint"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Smoke: SmokeConfig{
			TopK:         v.GetUint("smoke.top_k"),
			VerifyDelete: v.GetBool("smoke.verify_delete"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Index
	v.SetDefault("index.provider", d.Index.Provider)
	v.SetDefault("index.target", d.Index.Target)
	v.SetDefault("index.name", d.Index.Name)
	v.SetDefault("index.namespace", d.Index.Namespace)
	v.SetDefault("index.metric", d.Index.Metric)
	v.SetDefault("index.cloud", d.Index.Cloud)
	v.SetDefault("index.region", d.Index.Region)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Completion
	v.SetDefault("completion.provider", d.Completion.Provider)
	v.SetDefault("completion.target", d.Completion.Target)
	v.SetDefault("completion.model", d.Completion.Model)

	// Trace
	v.SetDefault("trace.endpoint", d.Trace.Endpoint)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Smoke
	v.SetDefault("smoke.top_k", d.Smoke.TopK)
	v.SetDefault("smoke.verify_delete", d.Smoke.VerifyDelete)
}
