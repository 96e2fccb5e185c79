package rag

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/embeddings"
	"github.com/quarrylabs/ragcheck/pkg/index"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// IngestJob is a unit of work for the ingest pool: one document to embed
// and upsert.
type IngestJob struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// PoolConfig is the configuration options for the ingest worker pool.
type PoolConfig struct {
	// Driver is the vector index for persisting documents.
	Driver index.Driver

	// Embedder generates the document embeddings.
	Embedder embeddings.Embedder

	// Namespace scopes all upserts.
	Namespace string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool embeds and upserts documents asynchronously via a worker pool,
// keeping bulk ingestion off the caller's hot path.
type Pool struct {
	config *PoolConfig
	queue  chan IngestJob
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("index driver is required")
	}
	if c.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	p := &Pool{
		config: c,
		queue:  make(chan IngestJob, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job IngestJob) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("ingest job queued", zap.String("id", job.ID))
		return true
	default:
		p.logger.Error("ingest job not queued, queue full, job dropped",
			zap.String("id", job.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", zap.Uint("worker_id", id))
}

// processJob embeds the job's text and upserts the resulting document.
// Errors are logged but not returned so one bad document never stalls the
// rest of the batch.
func (p *Pool) processJob(job IngestJob) {
	ctx := context.Background()

	embedding, err := p.config.Embedder.Embed(ctx, job.Text)
	if err != nil {
		p.logger.Warn("failed to generate embedding",
			zap.String("id", job.ID),
			zap.Error(err),
		)
		return
	}

	metadata := job.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["text"] = job.Text

	doc := index.Document{
		ID:       job.ID,
		Values:   embedding,
		Metadata: metadata,
	}

	if err := p.config.Driver.Upsert(ctx, p.config.Namespace, []index.Document{doc}); err != nil {
		p.logger.Warn("failed to upsert document",
			zap.String("id", job.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("ingested document",
		zap.String("id", job.ID),
		zap.Int("embedding_dim", len(embedding)),
	)
}
