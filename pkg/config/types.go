package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent ragcheck configuration stored as config.toml
// in the .ragcheck/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Index      IndexConfig      `toml:"index"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Completion CompletionConfig `toml:"completion"`
	Trace      TraceConfig      `toml:"trace"`
	API        APIConfig        `toml:"api"`
	Client     ClientConfig     `toml:"client"`
	Smoke      SmokeConfig      `toml:"smoke"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Name      string `toml:"name,omitempty"`
	Namespace string `toml:"namespace,omitempty"`
	Metric    string `toml:"metric,omitempty"`
	Cloud     string `toml:"cloud,omitempty"`
	Region    string `toml:"region,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// TraceConfig holds session tracing settings. An empty endpoint disables
// tracing. The API key comes from the RAGCHECK_TRACE_API_KEY environment
// variable, never from the file.
type TraceConfig struct {
	Endpoint string `toml:"endpoint,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// SmokeConfig holds smoke run tuning.
type SmokeConfig struct {
	TopK         uint `toml:"top_k,omitempty"`
	VerifyDelete bool `toml:"verify_delete,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"index.provider": {
		get: func(c *Config) string { return c.Index.Provider },
		set: func(c *Config, v string) error { c.Index.Provider = v; return nil },
	},
	"index.target": {
		get: func(c *Config) string { return c.Index.Target },
		set: func(c *Config, v string) error { c.Index.Target = v; return nil },
	},
	"index.name": {
		get: func(c *Config) string { return c.Index.Name },
		set: func(c *Config, v string) error { c.Index.Name = v; return nil },
	},
	"index.namespace": {
		get: func(c *Config) string { return c.Index.Namespace },
		set: func(c *Config, v string) error { c.Index.Namespace = v; return nil },
	},
	"index.metric": {
		get: func(c *Config) string { return c.Index.Metric },
		set: func(c *Config, v string) error { c.Index.Metric = v; return nil },
	},
	"index.cloud": {
		get: func(c *Config) string { return c.Index.Cloud },
		set: func(c *Config, v string) error { c.Index.Cloud = v; return nil },
	},
	"index.region": {
		get: func(c *Config) string { return c.Index.Region },
		set: func(c *Config, v string) error { c.Index.Region = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"completion.provider": {
		get: func(c *Config) string { return c.Completion.Provider },
		set: func(c *Config, v string) error { c.Completion.Provider = v; return nil },
	},
	"completion.target": {
		get: func(c *Config) string { return c.Completion.Target },
		set: func(c *Config, v string) error { c.Completion.Target = v; return nil },
	},
	"completion.model": {
		get: func(c *Config) string { return c.Completion.Model },
		set: func(c *Config, v string) error { c.Completion.Model = v; return nil },
	},
	"trace.endpoint": {
		get: func(c *Config) string { return c.Trace.Endpoint },
		set: func(c *Config, v string) error { c.Trace.Endpoint = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"smoke.top_k": {
		get: func(c *Config) string {
			if c.Smoke.TopK == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Smoke.TopK), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for smoke.top_k: %w", err)
			}
			c.Smoke.TopK = uint(n)
			return nil
		},
	},
	"smoke.verify_delete": {
		get: func(c *Config) string { return strconv.FormatBool(c.Smoke.VerifyDelete) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for smoke.verify_delete: %w", err)
			}
			c.Smoke.VerifyDelete = b
			return nil
		},
	},
}
