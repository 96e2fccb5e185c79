// Package pinecone provides a Pinecone serverless index driver implementation.
//
// The control plane (index lifecycle) talks to api.pinecone.io; the data
// plane (vector operations) talks to the per-index host returned by
// DescribeIndex. Both planes authenticate with the Api-Key header.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
)

const (
	// DefaultControlURL is the Pinecone control-plane endpoint.
	DefaultControlURL = "https://api.pinecone.io"

	// DefaultPollInterval is the wait between index readiness probes.
	DefaultPollInterval = time.Second
)

// Driver implements index.Driver and index.Lifecycle against Pinecone's
// REST API.
type Driver struct {
	controlURL   string
	dataURL      string
	indexName    string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// Config holds configuration for the Pinecone driver.
type Config struct {
	// APIKey is the Pinecone API key. Required.
	APIKey string

	// IndexName is the index the data plane operates on. Required for
	// data-plane calls; lifecycle calls name their index explicitly.
	IndexName string

	// ControlURL overrides the control-plane endpoint.
	// Defaults to DefaultControlURL.
	ControlURL string

	// DataURL overrides data-plane host discovery. When empty the host
	// is resolved from DescribeIndex on first use.
	DataURL string

	// PollInterval is the wait between WaitReady probes.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// NewDriver creates a new Pinecone driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}

	controlURL := c.ControlURL
	if controlURL == "" {
		controlURL = DefaultControlURL
	}

	pollInterval := c.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	d := &Driver{
		controlURL:   controlURL,
		dataURL:      c.DataURL,
		indexName:    c.IndexName,
		apiKey:       c.APIKey,
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	return d, nil
}

// do issues an authenticated request and decodes the JSON response into out
// (when out is non-nil). Non-2xx statuses become errors carrying the body.
func (d *Driver) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", d.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", index.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status 404: %s", index.ErrNotFound, string(respBody))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// CreateIndex creates a new serverless index.
func (d *Driver) CreateIndex(ctx context.Context, spec index.Spec) error {
	reqBody := createIndexRequest{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    spec.Metric,
		Spec: indexSpec{
			Serverless: serverlessSpec{
				Cloud:  spec.Cloud,
				Region: spec.Region,
			},
		},
	}

	if err := d.do(ctx, http.MethodPost, d.controlURL+"/indexes", reqBody, nil); err != nil {
		return fmt.Errorf("creating index %q: %w", spec.Name, err)
	}

	d.logger.Info("created pinecone index",
		zap.String("name", spec.Name),
		zap.Uint("dimension", spec.Dimension),
		zap.String("metric", spec.Metric),
	)

	return nil
}

// DescribeIndex returns the status of an index.
func (d *Driver) DescribeIndex(ctx context.Context, name string) (*index.Status, error) {
	var model indexModel
	if err := d.do(ctx, http.MethodGet, d.controlURL+"/indexes/"+name, nil, &model); err != nil {
		return nil, fmt.Errorf("describing index %q: %w", name, err)
	}

	return &index.Status{
		Name:      model.Name,
		Dimension: model.Dimension,
		Host:      model.Host,
		Ready:     model.Status.Ready,
		State:     model.Status.State,
	}, nil
}

// ListIndexes returns the names of all indexes in the project.
func (d *Driver) ListIndexes(ctx context.Context) ([]string, error) {
	var listResp listIndexesResponse
	if err := d.do(ctx, http.MethodGet, d.controlURL+"/indexes", nil, &listResp); err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	names := make([]string, len(listResp.Indexes))
	for i, model := range listResp.Indexes {
		names[i] = model.Name
	}
	return names, nil
}

// DeleteIndex removes an index and all of its vectors.
func (d *Driver) DeleteIndex(ctx context.Context, name string) error {
	if err := d.do(ctx, http.MethodDelete, d.controlURL+"/indexes/"+name, nil, nil); err != nil {
		return fmt.Errorf("deleting index %q: %w", name, err)
	}

	// The cached data-plane host is stale once its index is gone.
	if name == d.indexName {
		d.dataURL = ""
	}

	d.logger.Info("deleted pinecone index", zap.String("name", name))
	return nil
}

// WaitReady polls DescribeIndex until the index reports ready. Describe
// errors are treated as "not ready yet" and retried on the poll interval;
// the only terminal condition besides readiness is ctx cancellation.
func (d *Driver) WaitReady(ctx context.Context, name string) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		status, err := d.DescribeIndex(ctx, name)
		if err != nil {
			d.logger.Debug("waiting for index to be ready",
				zap.String("name", name),
				zap.Error(err),
			)
		} else if status.Ready {
			d.logger.Info("index ready", zap.String("name", name))
			return nil
		} else {
			d.logger.Debug("index not ready",
				zap.String("name", name),
				zap.String("state", status.State),
			)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for index %q: %v", index.ErrNotReady, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// host resolves the data-plane base URL for the configured index,
// caching the result.
func (d *Driver) host(ctx context.Context) (string, error) {
	if d.dataURL != "" {
		return d.dataURL, nil
	}

	if d.indexName == "" {
		return "", fmt.Errorf("index name is required for data-plane operations")
	}

	status, err := d.DescribeIndex(ctx, d.indexName)
	if err != nil {
		return "", fmt.Errorf("resolving data-plane host: %w", err)
	}
	if status.Host == "" {
		return "", fmt.Errorf("%w: index %q has no host yet", index.ErrNotReady, d.indexName)
	}

	d.dataURL = "https://" + status.Host
	return d.dataURL, nil
}

// Upsert stores documents with their embeddings.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []index.Document) error {
	if len(docs) == 0 {
		return nil
	}

	host, err := d.host(ctx)
	if err != nil {
		return err
	}

	vectors := make([]vectorRecord, len(docs))
	for i, doc := range docs {
		vectors[i] = vectorRecord{
			ID:       doc.ID,
			Values:   doc.Values,
			Metadata: doc.Metadata,
		}
	}

	var upsertResp upsertResponse
	reqBody := upsertRequest{Vectors: vectors, Namespace: namespace}
	if err := d.do(ctx, http.MethodPost, host+"/vectors/upsert", reqBody, &upsertResp); err != nil {
		return fmt.Errorf("upserting %d vectors: %w", len(docs), err)
	}

	d.logger.Debug("upserted vectors",
		zap.Uint64("count", upsertResp.UpsertedCount),
		zap.String("namespace", namespace),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]index.Match, error) {
	if topK <= 0 {
		topK = 10
	}

	host, err := d.host(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := queryRequest{
		Vector:          embedding,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	}

	var queryResp queryResponse
	if err := d.do(ctx, http.MethodPost, host+"/query", reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	matches := make([]index.Match, len(queryResp.Matches))
	for i, m := range queryResp.Matches {
		matches[i] = index.Match{
			Document: index.Document{
				ID:       m.ID,
				Values:   m.Values,
				Metadata: m.Metadata,
			},
			Score: m.Score,
		}
	}

	d.logger.Debug("queried index",
		zap.Int("matches", len(matches)),
		zap.String("namespace", namespace),
	)

	return matches, nil
}

// List returns the IDs of all vectors in the namespace, following
// pagination tokens until exhausted.
func (d *Driver) List(ctx context.Context, namespace string) ([]string, error) {
	host, err := d.host(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	next := ""
	for {
		listURL := host + "/vectors/list"
		q := url.Values{}
		if namespace != "" {
			q.Set("namespace", namespace)
		}
		if next != "" {
			q.Set("paginationToken", next)
		}
		if encoded := q.Encode(); encoded != "" {
			listURL += "?" + encoded
		}

		var listResp listVectorsResponse
		if err := d.do(ctx, http.MethodGet, listURL, nil, &listResp); err != nil {
			return nil, fmt.Errorf("listing vector IDs: %w", err)
		}

		for _, v := range listResp.Vectors {
			ids = append(ids, v.ID)
		}

		next = listResp.Pagination.Next
		if next == "" {
			break
		}
	}

	return ids, nil
}

// Fetch retrieves documents by their IDs.
func (d *Driver) Fetch(ctx context.Context, namespace string, ids []string) ([]index.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	host, err := d.host(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	if namespace != "" {
		q.Set("namespace", namespace)
	}

	var fetchResp fetchResponse
	if err := d.do(ctx, http.MethodGet, host+"/vectors/fetch?"+q.Encode(), nil, &fetchResp); err != nil {
		return nil, fmt.Errorf("fetching vectors: %w", err)
	}

	// Preserve the requested order; skip IDs the service does not know.
	docs := make([]index.Document, 0, len(ids))
	for _, id := range ids {
		v, ok := fetchResp.Vectors[id]
		if !ok {
			continue
		}
		docs = append(docs, index.Document{
			ID:       v.ID,
			Values:   v.Values,
			Metadata: v.Metadata,
		})
	}

	return docs, nil
}

// Update replaces the vector values of a single document.
func (d *Driver) Update(ctx context.Context, namespace string, id string, values []float32) error {
	host, err := d.host(ctx)
	if err != nil {
		return err
	}

	reqBody := updateRequest{ID: id, Values: values, Namespace: namespace}
	if err := d.do(ctx, http.MethodPost, host+"/vectors/update", reqBody, nil); err != nil {
		return fmt.Errorf("updating vector %q: %w", id, err)
	}

	d.logger.Debug("updated vector",
		zap.String("id", id),
		zap.String("namespace", namespace),
	)

	return nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	host, err := d.host(ctx)
	if err != nil {
		return err
	}

	reqBody := deleteRequest{IDs: ids, Namespace: namespace}
	if err := d.do(ctx, http.MethodPost, host+"/vectors/delete", reqBody, nil); err != nil {
		return fmt.Errorf("deleting %d vectors: %w", len(ids), err)
	}

	return nil
}

// Stats returns counts and dimension information for the index.
func (d *Driver) Stats(ctx context.Context) (*index.Stats, error) {
	host, err := d.host(ctx)
	if err != nil {
		return nil, err
	}

	var statsResp statsResponse
	if err := d.do(ctx, http.MethodPost, host+"/describe_index_stats", struct{}{}, &statsResp); err != nil {
		return nil, fmt.Errorf("describing index stats: %w", err)
	}

	namespaces := make(map[string]uint64, len(statsResp.Namespaces))
	for name, ns := range statsResp.Namespaces {
		namespaces[name] = ns.VectorCount
	}

	return &index.Stats{
		Dimension:  statsResp.Dimension,
		TotalCount: statsResp.TotalVectorCount,
		Namespaces: namespaces,
	}, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var (
	_ index.Driver    = (*Driver)(nil)
	_ index.Lifecycle = (*Driver)(nil)
)
