// Package qdrant provides a Qdrant-backed index driver using the official
// gRPC client.
//
// Qdrant has collections rather than namespaced indexes, so the driver maps
// an index to a collection and a namespace to a payload field that is
// filtered on every data-plane call. Qdrant point IDs must be UUIDs or
// integers, so string document IDs are mapped to deterministic UUIDs and
// the original ID is kept in the payload.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
)

const (
	// payload keys reserved by the driver.
	namespaceKey = "namespace"
	docIDKey     = "doc_id"

	// listLimit caps Scroll-based listings. Plenty for a smoke-test
	// corpus; bulk listings should go through the backend directly.
	listLimit = 10000

	// DefaultPollInterval is the wait between collection status probes.
	DefaultPollInterval = time.Second
)

// Driver implements index.Driver and index.Lifecycle against Qdrant.
type Driver struct {
	client       *qdrant.Client
	collection   string
	dimension    uint
	pollInterval time.Duration
	logger       *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host. Required.
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334.
	Port int

	// APIKey authenticates against Qdrant Cloud. Optional for local
	// instances.
	APIKey string

	// UseTLS enables TLS; required when APIKey is set against cloud.
	UseTLS bool

	// Collection is the collection data-plane calls operate on.
	Collection string

	// Dimension is the vector dimension reported by Stats.
	Dimension uint

	// PollInterval is the wait between WaitReady probes.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// NewDriver creates a new Qdrant driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	pollInterval := c.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", index.ErrConnection, err)
	}

	logger.Info("connected to qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", c.Collection),
	)

	return &Driver{
		client:       client,
		collection:   c.Collection,
		dimension:    c.Dimension,
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

// PointID derives the deterministic UUID point ID for a document ID
// within a namespace.
func PointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"/"+id)).String()
}

// distance maps the index metric name to a Qdrant distance.
func distance(metric string) qdrant.Distance {
	switch metric {
	case "euclidean":
		return qdrant.Distance_Euclid
	case "dotproduct":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// CreateIndex creates the backing collection.
func (d *Driver) CreateIndex(ctx context.Context, spec index.Spec) error {
	err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: distance(spec.Metric),
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", spec.Name, err)
	}

	d.logger.Info("created qdrant collection",
		zap.String("name", spec.Name),
		zap.Uint("dimension", spec.Dimension),
	)

	return nil
}

// DescribeIndex returns the status of the backing collection.
func (d *Driver) DescribeIndex(ctx context.Context, name string) (*index.Status, error) {
	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checking collection %q: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: collection %q", index.ErrNotFound, name)
	}

	info, err := d.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describing collection %q: %w", name, err)
	}

	return &index.Status{
		Name:      name,
		Dimension: d.dimension,
		Ready:     info.GetStatus() == qdrant.CollectionStatus_Green,
		State:     info.GetStatus().String(),
	}, nil
}

// ListIndexes returns the names of all collections.
func (d *Driver) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := d.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return names, nil
}

// DeleteIndex removes the backing collection and all of its points.
func (d *Driver) DeleteIndex(ctx context.Context, name string) error {
	if err := d.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}
	d.logger.Info("deleted qdrant collection", zap.String("name", name))
	return nil
}

// WaitReady polls the collection status until it is green. Describe
// errors are retried, not returned.
func (d *Driver) WaitReady(ctx context.Context, name string) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		status, err := d.DescribeIndex(ctx, name)
		if err != nil {
			d.logger.Debug("waiting for collection to be ready",
				zap.String("name", name),
				zap.Error(err),
			)
		} else if status.Ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for collection %q: %v", index.ErrNotReady, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Upsert stores documents with their embeddings.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []index.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := map[string]any{
			namespaceKey: namespace,
			docIDKey:     doc.ID,
		}
		for k, v := range doc.Metadata {
			payload[k] = v
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(namespace, doc.ID)),
			Vectors: qdrant.NewVectors(doc.Values...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(docs), err)
	}

	d.logger.Debug("upserted points",
		zap.Int("count", len(docs)),
		zap.String("namespace", namespace),
	)

	return nil
}

// namespaceFilter scopes a data-plane call to one namespace.
func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(namespaceKey, namespace),
		},
	}
}

// payloadToMetadata converts a Qdrant payload back into driver metadata,
// dropping the reserved keys.
func payloadToMetadata(payload map[string]*qdrant.Value) map[string]any {
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == namespaceKey || k == docIDKey {
			continue
		}
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			metadata[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			metadata[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			metadata[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			metadata[k] = kind.BoolValue
		}
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]index.Match, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         namespaceFilter(namespace),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	matches := make([]index.Match, 0, len(points))
	for _, p := range points {
		docID := p.GetPayload()[docIDKey].GetStringValue()
		if docID == "" {
			docID = p.GetId().GetUuid()
		}

		matches = append(matches, index.Match{
			Document: index.Document{
				ID:       docID,
				Metadata: payloadToMetadata(p.GetPayload()),
			},
			Score: p.GetScore(),
		})
	}

	d.logger.Debug("queried collection",
		zap.Int("matches", len(matches)),
		zap.String("namespace", namespace),
	)

	return matches, nil
}

// List returns the document IDs of all points in the namespace.
func (d *Driver) List(ctx context.Context, namespace string) ([]string, error) {
	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		Filter:         namespaceFilter(namespace),
		Limit:          qdrant.PtrOf(uint32(listLimit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling collection: %w", err)
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if docID := p.GetPayload()[docIDKey].GetStringValue(); docID != "" {
			ids = append(ids, docID)
		}
	}
	return ids, nil
}

// Fetch retrieves documents by their IDs.
func (d *Driver) Fetch(ctx context.Context, namespace string, ids []string) ([]index.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(PointID(namespace, id))
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving points: %w", err)
	}

	docs := make([]index.Document, 0, len(points))
	for _, p := range points {
		doc := index.Document{
			ID:       p.GetPayload()[docIDKey].GetStringValue(),
			Metadata: payloadToMetadata(p.GetPayload()),
		}
		if vec := p.GetVectors().GetVector(); vec != nil {
			doc.Values = vec.GetData()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update replaces the vector values of a single document.
func (d *Driver) Update(ctx context.Context, namespace string, id string, values []float32) error {
	_, err := d.client.UpdateVectors(ctx, &qdrant.UpdatePointVectors{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointVectors{
			{
				Id:      qdrant.NewIDUUID(PointID(namespace, id)),
				Vectors: qdrant.NewVectors(values...),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("updating point %q: %w", id, err)
	}
	return nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(PointID(namespace, id))
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting %d points: %w", len(ids), err)
	}
	return nil
}

// Stats returns counts for the collection. Namespace tallies come from a
// capped payload scroll; exact totals come from Count.
func (d *Driver) Stats(ctx context.Context) (*index.Stats, error) {
	total, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("counting points: %w", err)
	}

	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		Limit:          qdrant.PtrOf(uint32(listLimit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling collection: %w", err)
	}

	namespaces := make(map[string]uint64)
	for _, p := range points {
		if ns := p.GetPayload()[namespaceKey].GetStringValue(); ns != "" {
			namespaces[ns]++
		}
	}

	return &index.Stats{
		Dimension:  d.dimension,
		TotalCount: total,
		Namespaces: namespaces,
	}, nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var (
	_ index.Driver    = (*Driver)(nil)
	_ index.Lifecycle = (*Driver)(nil)
)
