package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/rag"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0, 0}, nil
}
func (stubEmbedder) Dimensions() uint { return 4 }
func (stubEmbedder) Close() error     { return nil }

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, string, string) (string, error) {
	return "a grounded answer", nil
}
func (stubCompleter) Model() string { return "stub-model" }
func (stubCompleter) Close() error  { return nil }

type stubDriver struct {
	matches  []index.Match
	queryErr error
	stats    *index.Stats
	statsErr error
	lastTopK int
}

func (d *stubDriver) Upsert(context.Context, string, []index.Document) error { return nil }
func (d *stubDriver) Query(_ context.Context, _ string, _ []float32, topK int) ([]index.Match, error) {
	d.lastTopK = topK
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	return d.matches, nil
}
func (d *stubDriver) List(context.Context, string) ([]string, error) { return nil, nil }
func (d *stubDriver) Fetch(context.Context, string, []string) ([]index.Document, error) {
	return nil, nil
}
func (d *stubDriver) Update(context.Context, string, string, []float32) error { return nil }
func (d *stubDriver) Delete(context.Context, string, []string) error          { return nil }
func (d *stubDriver) Stats(context.Context) (*index.Stats, error) {
	if d.statsErr != nil {
		return nil, d.statsErr
	}
	return d.stats, nil
}
func (d *stubDriver) Close() error { return nil }

var _ = Describe("Server", func() {
	var (
		server *Server
		driver *stubDriver
	)

	BeforeEach(func() {
		driver = &stubDriver{
			matches: []index.Match{
				{Document: index.Document{ID: "doc0", Metadata: map[string]any{"text": "jobs passage"}}, Score: 0.92},
				{Document: index.Document{ID: "doc1", Metadata: map[string]any{"text": "economy passage"}}, Score: 0.81},
			},
			stats: &index.Stats{
				Dimension:  4,
				TotalCount: 5,
				Namespaces: map[string]uint64{"test-namespace": 5},
			},
		}

		pipeline, err := rag.NewPipeline(rag.Config{
			Embedder:  stubEmbedder{},
			Driver:    driver,
			Completer: stubCompleter{},
			Namespace: "test-namespace",
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, pipeline, driver, zap.NewNop())
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/ping", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var body string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body).To(Equal("pong"))
		})
	})

	Describe("GET /v1/search", func() {
		It("requires a query parameter", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/search", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})

		It("returns scored matches", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/search?query=jobs", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var body SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Query).To(Equal("jobs"))
			Expect(body.Results).To(HaveLen(2))
			Expect(body.Results[0].ID).To(Equal("doc0"))
			Expect(body.Results[0].Score).To(BeNumerically("~", 0.92, 0.001))
			Expect(body.Results[0].Metadata["text"]).To(Equal("jobs passage"))
		})

		It("honors the top_k parameter", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/search?query=jobs&top_k=7", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(driver.lastTopK).To(Equal(7))
		})

		It("falls back to the pipeline top-K when top_k is absent", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/search?query=jobs", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(driver.lastTopK).To(Equal(int(rag.DefaultTopK)))
		})

		It("surfaces pipeline errors as 500", func() {
			driver.queryErr = fmt.Errorf("index unavailable")

			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/search?query=jobs", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(500))

			var body ErrorResponse
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Error).To(ContainSubstring("index unavailable"))
		})
	})

	Describe("POST /v1/ask", func() {
		It("answers a query with contexts", func() {
			payload, _ := json.Marshal(AskRequest{Query: "What about jobs?"})
			req := httptest.NewRequest("POST", "/v1/ask", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var body AskResponse
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Answer).To(Equal("a grounded answer"))
			Expect(body.Contexts).To(Equal([]string{"jobs passage", "economy passage"}))
		})

		It("rejects an empty query", func() {
			payload, _ := json.Marshal(AskRequest{})
			req := httptest.NewRequest("POST", "/v1/ask", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})

		It("rejects malformed bodies", func() {
			req := httptest.NewRequest("POST", "/v1/ask", bytes.NewReader([]byte("{not json")))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})
	})

	Describe("GET /v1/stats", func() {
		It("returns index statistics", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/stats", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var body map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["total_count"]).To(BeNumerically("==", 5))
			Expect(body["dimension"]).To(BeNumerically("==", 4))
		})

		It("surfaces driver errors as 500", func() {
			driver.statsErr = fmt.Errorf("connection reset")

			resp, err := server.app.Test(httptest.NewRequest("GET", "/v1/stats", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(500))
		})
	})
})
