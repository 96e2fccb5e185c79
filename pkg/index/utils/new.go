// Package indexutils is the index driver factory package
package indexutils

import (
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/index/pinecone"
	"github.com/quarrylabs/ragcheck/pkg/index/qdrant"
	"github.com/quarrylabs/ragcheck/pkg/index/sqlitevec"
)

type NewDriverOpts struct {
	// ProviderType selects the backend: "pinecone", "qdrant", "sqlite".
	ProviderType string

	// Target is backend-specific: the control-plane URL for pinecone,
	// host:port for qdrant, or the database path for sqlite.
	Target string

	// IndexName is the index (or collection) data-plane calls operate on.
	IndexName string

	// APIKey authenticates hosted backends. Unused for sqlite.
	APIKey string

	// Dimensions is the embedding dimension.
	Dimensions uint

	Logger *zap.Logger
}

// Provider is the intersection of data-plane and control-plane access
// that every backend offers.
type Provider interface {
	index.Driver
	index.Lifecycle
}

func NewDriver(o *NewDriverOpts) (Provider, error) {
	switch o.ProviderType {
	case "pinecone":
		return pinecone.NewDriver(pinecone.Config{
			APIKey:     o.APIKey,
			IndexName:  o.IndexName,
			ControlURL: o.Target,
		}, o.Logger)

	case "qdrant":
		host, port, err := splitHostPort(o.Target)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     o.APIKey,
			UseTLS:     o.APIKey != "",
			Collection: o.IndexName,
			Dimension:  o.Dimensions,
		}, o.Logger)

	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Name:       o.IndexName,
			Dimensions: o.Dimensions,
		}, o.Logger)

	default:
		return nil, fmt.Errorf("unsupported index provider: %s", o.ProviderType)
	}
}

// splitHostPort parses "host", "host:port", or a URL form into the gRPC
// host and port the qdrant client expects.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("qdrant target is required")
	}

	// Tolerate scheme-prefixed targets from config files.
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		target = u.Host
	}

	host, portStr, err := splitLast(target)
	if err != nil || portStr == "" {
		return target, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

func splitLast(target string) (string, string, error) {
	for i := len(target) - 1; i >= 0; i-- {
		if target[i] == ':' {
			return target[:i], target[i+1:], nil
		}
	}
	return target, "", nil
}
