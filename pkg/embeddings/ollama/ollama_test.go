package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrylabs/ragcheck/pkg/embeddings"
	"github.com/quarrylabs/ragcheck/pkg/embeddings/ollama"
	"github.com/quarrylabs/ragcheck/pkg/index"
)

func TestOllama(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Embedder Suite")
}

var _ = Describe("Embedder", func() {
	Describe("NewEmbedder", func() {
		It("applies defaults when config is empty", func() {
			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.Dimensions()).To(Equal(uint(ollama.DefaultDimensions)))
		})

		It("honors a configured dimension", func() {
			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{Dimensions: 1024})
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.Dimensions()).To(Equal(uint(1024)))
		})

		It("implements embeddings.Embedder", func() {
			var _ embeddings.Embedder = (*ollama.Embedder)(nil)
		})
	})

	Describe("Embed", func() {
		It("sends the model and input and returns the first embedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal("POST"))
				Expect(r.URL.Path).To(Equal("/api/embed"))

				var req map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req["model"]).To(Equal("nomic-embed-text"))
				Expect(req["input"]).To(Equal("remarkable progress"))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"embeddings": [][]float32{{0.1, 0.2, 0.3}},
				})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			embedding, err := embedder.Embed(context.Background(), "remarkable progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(embedding).To(Equal([]float32{0.1, 0.2, 0.3}))
		})

		It("wraps server errors in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(context.Background(), "text")
			Expect(err).To(MatchError(index.ErrEmbedding))
			Expect(err.Error()).To(ContainSubstring("model not found"))
		})

		It("wraps an empty embeddings response in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(context.Background(), "text")
			Expect(err).To(MatchError(index.ErrEmbedding))
		})
	})
})
