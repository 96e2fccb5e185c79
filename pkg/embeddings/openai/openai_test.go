package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrylabs/ragcheck/pkg/embeddings"
	"github.com/quarrylabs/ragcheck/pkg/embeddings/openai"
	"github.com/quarrylabs/ragcheck/pkg/index"
)

func TestOpenAI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAI Embedder Suite")
}

var _ = Describe("Embedder", func() {
	Describe("NewEmbedder", func() {
		It("requires an API key", func() {
			_, err := openai.NewEmbedder(openai.EmbedderConfig{})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("API key"))
		})

		It("defaults the model and dimensions", func() {
			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{APIKey: "sk-test"})
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.Dimensions()).To(Equal(uint(openai.DefaultDimensions)))
		})

		It("implements embeddings.Embedder", func() {
			var _ embeddings.Embedder = (*openai.Embedder)(nil)
		})
	})

	Describe("Embed", func() {
		It("requests a float embedding and converts it to float32", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/embeddings"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer sk-test"))

				var req map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req["model"]).To(Equal("text-embedding-3-small"))
				Expect(req["input"]).To(Equal("the state of the union"))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"object": "list",
					"data": []map[string]any{
						{
							"object":    "embedding",
							"index":     0,
							"embedding": []float64{0.25, -0.5, 0.75},
						},
					},
					"model": "text-embedding-3-small",
					"usage": map[string]any{"prompt_tokens": 5, "total_tokens": 5},
				})
			}))
			defer server.Close()

			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey:  "sk-test",
				BaseURL: server.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			embedding, err := embedder.Embed(context.Background(), "the state of the union")
			Expect(err).NotTo(HaveOccurred())
			Expect(embedding).To(Equal([]float32{0.25, -0.5, 0.75}))
		})

		It("wraps API errors in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
				})
			}))
			defer server.Close()

			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey:  "sk-bad",
				BaseURL: server.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(context.Background(), "text")
			Expect(err).To(MatchError(index.ErrEmbedding))
		})

		It("wraps an empty data response in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"object": "list",
					"data":   []map[string]any{},
					"model":  "text-embedding-3-small",
					"usage":  map[string]any{"prompt_tokens": 0, "total_tokens": 0},
				})
			}))
			defer server.Close()

			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey:  "sk-test",
				BaseURL: server.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(context.Background(), "text")
			Expect(err).To(MatchError(index.ErrEmbedding))
		})
	})
})
