package rag_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/rag"
)

func TestRAG(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RAG Pipeline Suite")
}

// fakeEmbedder returns a fixed-dimension vector derived from the text length.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, text)
	return []float32{float32(len(text)), 1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimensions() uint { return 4 }
func (f *fakeEmbedder) Close() error     { return nil }

// fakeDriver records upserts and serves canned query matches.
type fakeDriver struct {
	mu       sync.Mutex
	upserts  map[string][]index.Document
	matches  []index.Match
	queryErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{upserts: map[string][]index.Document{}}
}

func (f *fakeDriver) Upsert(_ context.Context, namespace string, docs []index.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[namespace] = append(f.upserts[namespace], docs...)
	return nil
}

func (f *fakeDriver) Query(_ context.Context, _ string, _ []float32, _ int) ([]index.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeDriver) List(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeDriver) Fetch(context.Context, string, []string) ([]index.Document, error) {
	return nil, nil
}
func (f *fakeDriver) Update(context.Context, string, string, []float32) error { return nil }
func (f *fakeDriver) Delete(context.Context, string, []string) error          { return nil }
func (f *fakeDriver) Stats(context.Context) (*index.Stats, error)             { return &index.Stats{}, nil }
func (f *fakeDriver) Close() error                                            { return nil }

// fakeCompleter records the prompts it was given and returns a canned answer.
type fakeCompleter struct {
	system string
	user   string
	answer string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeCompleter) Model() string { return "fake-model" }
func (f *fakeCompleter) Close() error  { return nil }

var _ = Describe("BuildPrompt", func() {
	It("includes the contexts, the question, and the fallback instruction", func() {
		prompt := rag.BuildPrompt("What about jobs?", []string{"first passage", "second passage"})
		Expect(prompt).To(ContainSubstring("first passage\n\nsecond passage"))
		Expect(prompt).To(ContainSubstring("Question: What about jobs?"))
		Expect(prompt).To(ContainSubstring(rag.FallbackAnswer))
	})

	It("produces an empty context section for no matches", func() {
		prompt := rag.BuildPrompt("anything", nil)
		Expect(prompt).To(ContainSubstring("Context:\n\n"))
	})
})

var _ = Describe("ContextsFromMatches", func() {
	It("extracts text metadata and skips matches without it", func() {
		matches := []index.Match{
			{Document: index.Document{ID: "doc0", Metadata: map[string]any{"text": "alpha"}}},
			{Document: index.Document{ID: "doc1", Metadata: map[string]any{"other": 1}}},
			{Document: index.Document{ID: "doc2", Metadata: map[string]any{"text": "beta"}}},
		}
		Expect(rag.ContextsFromMatches(matches)).To(Equal([]string{"alpha", "beta"}))
	})
})

var _ = Describe("Pipeline", func() {
	var (
		embedder  *fakeEmbedder
		driver    *fakeDriver
		completer *fakeCompleter
	)

	BeforeEach(func() {
		embedder = &fakeEmbedder{}
		driver = newFakeDriver()
		completer = &fakeCompleter{answer: "a canned answer"}
	})

	newPipeline := func() *rag.Pipeline {
		pipeline, err := rag.NewPipeline(rag.Config{
			Embedder:  embedder,
			Driver:    driver,
			Completer: completer,
			Namespace: "test-namespace",
			Logger:    zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return pipeline
	}

	Describe("NewPipeline", func() {
		It("requires an embedder", func() {
			_, err := rag.NewPipeline(rag.Config{Driver: driver})
			Expect(err).To(HaveOccurred())
		})

		It("requires a driver", func() {
			_, err := rag.NewPipeline(rag.Config{Embedder: embedder})
			Expect(err).To(HaveOccurred())
		})

		It("defaults topK", func() {
			Expect(newPipeline().TopK()).To(Equal(uint(rag.DefaultTopK)))
		})
	})

	Describe("Retrieve", func() {
		It("embeds the query and returns the driver's matches", func() {
			driver.matches = []index.Match{
				{Document: index.Document{ID: "doc0", Metadata: map[string]any{"text": "alpha"}}, Score: 0.9},
			}

			matches, err := newPipeline().Retrieve(context.Background(), "What about jobs?")
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(embedder.calls).To(ContainElement("What about jobs?"))
		})

		It("propagates query errors", func() {
			driver.queryErr = fmt.Errorf("connection refused")
			_, err := newPipeline().Retrieve(context.Background(), "query")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("querying index"))
		})
	})

	Describe("Ask", func() {
		BeforeEach(func() {
			driver.matches = []index.Match{
				{Document: index.Document{ID: "doc0", Metadata: map[string]any{"text": "jobs passage"}}, Score: 0.9},
				{Document: index.Document{ID: "doc1", Metadata: map[string]any{"text": "economy passage"}}, Score: 0.8},
			}
		})

		It("feeds retrieved contexts into the prompt and returns the answer", func() {
			answer, err := newPipeline().Ask(context.Background(), "What about jobs?")
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Text).To(Equal("a canned answer"))
			Expect(answer.Contexts).To(Equal([]string{"jobs passage", "economy passage"}))
			Expect(answer.Matches).To(HaveLen(2))

			Expect(completer.system).To(Equal(rag.SystemPrompt))
			Expect(completer.user).To(ContainSubstring("jobs passage"))
			Expect(completer.user).To(ContainSubstring("Question: What about jobs?"))
		})

		It("errors when no completer is configured", func() {
			pipeline, err := rag.NewPipeline(rag.Config{
				Embedder:  embedder,
				Driver:    driver,
				Namespace: "test-namespace",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = pipeline.Ask(context.Background(), "query")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("completer"))
		})
	})

	Describe("Ingest", func() {
		It("embeds each text and upserts with sequential IDs and text metadata", func() {
			texts := []string{"first", "second", "third"}
			Expect(newPipeline().Ingest(context.Background(), "doc", texts)).To(Succeed())

			docs := driver.upserts["test-namespace"]
			Expect(docs).To(HaveLen(3))
			Expect(docs[0].ID).To(Equal("doc0"))
			Expect(docs[2].ID).To(Equal("doc2"))
			Expect(docs[1].Metadata["text"]).To(Equal("second"))
			Expect(docs[0].Values).To(HaveLen(4))
		})

		It("propagates embedding errors", func() {
			embedder.err = fmt.Errorf("quota exceeded")
			err := newPipeline().Ingest(context.Background(), "doc", []string{"text"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embedding document"))
		})
	})
})

var _ = Describe("Pool", func() {
	It("requires a driver and an embedder", func() {
		_, err := rag.NewPool(&rag.PoolConfig{Embedder: &fakeEmbedder{}})
		Expect(err).To(HaveOccurred())

		_, err = rag.NewPool(&rag.PoolConfig{Driver: newFakeDriver()})
		Expect(err).To(HaveOccurred())
	})

	It("embeds and upserts all enqueued jobs before Close returns", func() {
		driver := newFakeDriver()
		pool, err := rag.NewPool(&rag.PoolConfig{
			Driver:    driver,
			Embedder:  &fakeEmbedder{},
			Namespace: "bulk",
			Logger:    zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		for i := range 10 {
			ok := pool.Enqueue(rag.IngestJob{
				ID:   fmt.Sprintf("doc%d", i),
				Text: fmt.Sprintf("passage %d", i),
			})
			Expect(ok).To(BeTrue())
		}

		pool.Close()

		driver.mu.Lock()
		defer driver.mu.Unlock()
		Expect(driver.upserts["bulk"]).To(HaveLen(10))
		Expect(driver.upserts["bulk"][0].Metadata["text"]).To(HavePrefix("passage"))
	})

	It("drops jobs when the queue is full", func() {
		blocked := make(chan struct{})
		driver := newFakeDriver()
		embedder := &blockingEmbedder{
			release: blocked,
			entered: make(chan struct{}, 1),
		}

		pool, err := rag.NewPool(&rag.PoolConfig{
			Driver:     driver,
			Embedder:   embedder,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		// First job occupies the worker, second fills the queue.
		Expect(pool.Enqueue(rag.IngestJob{ID: "a", Text: "a"})).To(BeTrue())
		embedder.waitUntilBlocked()
		Expect(pool.Enqueue(rag.IngestJob{ID: "b", Text: "b"})).To(BeTrue())
		Expect(pool.Enqueue(rag.IngestJob{ID: "c", Text: "c"})).To(BeFalse())

		close(blocked)
		pool.Close()
	})
})

// blockingEmbedder blocks Embed until release is closed, so tests can fill
// the pool's queue deterministically.
type blockingEmbedder struct {
	release chan struct{}
	entered chan struct{}
}

func (b *blockingEmbedder) waitUntilBlocked() {
	<-b.entered
}

func (b *blockingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return []float32{1, 0, 0, 0}, nil
}

func (b *blockingEmbedder) Dimensions() uint { return 4 }
func (b *blockingEmbedder) Close() error     { return nil }
