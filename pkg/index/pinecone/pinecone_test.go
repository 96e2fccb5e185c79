package pinecone_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/index/pinecone"
)

var _ = Describe("Driver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewDriver", func() {
		It("should return an error when the API key is empty", func() {
			_, err := pinecone.NewDriver(pinecone.Config{}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("API key is required"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement index.Driver and index.Lifecycle", func() {
			var _ index.Driver = (*pinecone.Driver)(nil)
			var _ index.Lifecycle = (*pinecone.Driver)(nil)
		})
	})

	Describe("Lifecycle", func() {
		It("creates an index with the serverless spec", func() {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/indexes"))
				Expect(r.Header.Get("Api-Key")).To(Equal("test-key"))
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				w.WriteHeader(http.StatusCreated)
			}))
			defer server.Close()

			driver, err := pinecone.NewDriver(pinecone.Config{
				APIKey:     "test-key",
				ControlURL: server.URL,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			err = driver.CreateIndex(context.Background(), index.Spec{
				Name:      "test-index-rag",
				Dimension: 1536,
				Metric:    "cosine",
				Cloud:     "aws",
				Region:    "us-east-1",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(got["name"]).To(Equal("test-index-rag"))
			Expect(got["dimension"]).To(BeNumerically("==", 1536))
			Expect(got["metric"]).To(Equal("cosine"))
			spec := got["spec"].(map[string]any)["serverless"].(map[string]any)
			Expect(spec["cloud"]).To(Equal("aws"))
			Expect(spec["region"]).To(Equal("us-east-1"))
		})

		It("polls WaitReady until the index reports ready", func() {
			var describes atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := describes.Add(1)

				// First describe errors entirely, second reports not
				// ready, third reports ready. WaitReady must ride
				// through the first two.
				switch {
				case n == 1:
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				case n == 2:
					json.NewEncoder(w).Encode(map[string]any{
						"name":   "test-index-rag",
						"status": map[string]any{"ready": false, "state": "Initializing"},
					})
				default:
					json.NewEncoder(w).Encode(map[string]any{
						"name":   "test-index-rag",
						"host":   "test-index-rag.svc.pinecone.io",
						"status": map[string]any{"ready": true, "state": "Ready"},
					})
				}
			}))
			defer server.Close()

			driver, err := pinecone.NewDriver(pinecone.Config{
				APIKey:       "test-key",
				ControlURL:   server.URL,
				PollInterval: 10 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.WaitReady(context.Background(), "test-index-rag")).To(Succeed())
			Expect(describes.Load()).To(BeNumerically(">=", int32(3)))
		})

		It("returns an error when WaitReady is cancelled", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"name":   "slow",
					"status": map[string]any{"ready": false, "state": "Initializing"},
				})
			}))
			defer server.Close()

			driver, err := pinecone.NewDriver(pinecone.Config{
				APIKey:       "test-key",
				ControlURL:   server.URL,
				PollInterval: 10 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err = driver.WaitReady(ctx, "slow")
			Expect(err).To(MatchError(index.ErrNotReady))
		})

		It("describes and deletes an index, and describe fails after delete", func() {
			deleted := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodDelete && r.URL.Path == "/indexes/test-index-rag":
					deleted = true
					w.WriteHeader(http.StatusAccepted)
				case r.Method == http.MethodGet && r.URL.Path == "/indexes/test-index-rag":
					if deleted {
						http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
						return
					}
					json.NewEncoder(w).Encode(map[string]any{
						"name":      "test-index-rag",
						"dimension": 1536,
						"host":      "test-index-rag.svc.pinecone.io",
						"status":    map[string]any{"ready": true, "state": "Ready"},
					})
				default:
					http.NotFound(w, r)
				}
			}))
			defer server.Close()

			driver, err := pinecone.NewDriver(pinecone.Config{
				APIKey:     "test-key",
				ControlURL: server.URL,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			status, err := driver.DescribeIndex(context.Background(), "test-index-rag")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Ready).To(BeTrue())
			Expect(status.Dimension).To(Equal(uint(1536)))

			Expect(driver.DeleteIndex(context.Background(), "test-index-rag")).To(Succeed())

			_, err = driver.DescribeIndex(context.Background(), "test-index-rag")
			Expect(err).To(MatchError(index.ErrNotFound))
		})

		It("lists index names", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"indexes": []map[string]any{
						{"name": "alpha"},
						{"name": "beta"},
					},
				})
			}))
			defer server.Close()

			driver, err := pinecone.NewDriver(pinecone.Config{
				APIKey:     "test-key",
				ControlURL: server.URL,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			names, err := driver.ListIndexes(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"alpha", "beta"}))
		})
	})

	Describe("Data plane", func() {
		var (
			driver *pinecone.Driver
			server *httptest.Server
			mux    *http.ServeMux
		)

		BeforeEach(func() {
			mux = http.NewServeMux()
			server = httptest.NewServer(mux)

			var err error
			driver, err = pinecone.NewDriver(pinecone.Config{
				APIKey:    "test-key",
				IndexName: "test-index-rag",
				DataURL:   server.URL,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			server.Close()
		})

		It("upserts documents with metadata into a namespace", func() {
			var got map[string]any
			mux.HandleFunc("/vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]any{"upsertedCount": 2})
			})

			docs := []index.Document{
				{ID: "doc0", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"text": "first"}},
				{ID: "doc1", Values: []float32{0.3, 0.4}, Metadata: map[string]any{"text": "second"}},
			}
			Expect(driver.Upsert(context.Background(), "test-namespace", docs)).To(Succeed())

			Expect(got["namespace"]).To(Equal("test-namespace"))
			vectors := got["vectors"].([]any)
			Expect(vectors).To(HaveLen(2))
			first := vectors[0].(map[string]any)
			Expect(first["id"]).To(Equal("doc0"))
			Expect(first["metadata"].(map[string]any)["text"]).To(Equal("first"))
		})

		It("queries topK matches with metadata", func() {
			mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
				var req map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req["topK"]).To(BeNumerically("==", 2))
				Expect(req["includeMetadata"]).To(BeTrue())
				Expect(req["namespace"]).To(Equal("test-namespace"))

				json.NewEncoder(w).Encode(map[string]any{
					"matches": []map[string]any{
						{"id": "doc3", "score": 0.91, "metadata": map[string]any{"text": "twelve million jobs"}},
						{"id": "doc0", "score": 0.77, "metadata": map[string]any{"text": "state of the union"}},
					},
				})
			})

			matches, err := driver.Query(context.Background(), "test-namespace", []float32{0.5, 0.5}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
			Expect(matches[0].ID).To(Equal("doc3"))
			Expect(matches[0].Score).To(BeNumerically("~", 0.91, 0.001))
			Expect(matches[0].Metadata["text"]).To(Equal("twelve million jobs"))
		})

		It("lists vector IDs across pagination pages", func() {
			mux.HandleFunc("/vectors/list", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("namespace")).To(Equal("test-namespace"))
				if r.URL.Query().Get("paginationToken") == "" {
					json.NewEncoder(w).Encode(map[string]any{
						"vectors":    []map[string]any{{"id": "doc0"}, {"id": "doc1"}},
						"pagination": map[string]any{"next": "tok"},
					})
					return
				}
				json.NewEncoder(w).Encode(map[string]any{
					"vectors": []map[string]any{{"id": "doc2"}},
				})
			})

			ids, err := driver.List(context.Background(), "test-namespace")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"doc0", "doc1", "doc2"}))
		})

		It("fetches documents preserving requested order", func() {
			mux.HandleFunc("/vectors/fetch", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query()["ids"]).To(ConsistOf("doc0", "doc1"))
				json.NewEncoder(w).Encode(map[string]any{
					"vectors": map[string]any{
						"doc1": map[string]any{"id": "doc1", "values": []float32{0.3, 0.4}},
						"doc0": map[string]any{"id": "doc0", "values": []float32{0.1, 0.2}},
					},
				})
			})

			docs, err := driver.Fetch(context.Background(), "test-namespace", []string{"doc0", "doc1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].ID).To(Equal("doc0"))
			Expect(docs[1].ID).To(Equal("doc1"))
		})

		It("updates a single vector's values", func() {
			var got map[string]any
			mux.HandleFunc("/vectors/update", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				w.WriteHeader(http.StatusOK)
			})

			Expect(driver.Update(context.Background(), "test-namespace", "doc0", []float32{0.9, 0.8})).To(Succeed())
			Expect(got["id"]).To(Equal("doc0"))
			Expect(got["namespace"]).To(Equal("test-namespace"))
		})

		It("reports index stats with per-namespace counts", func() {
			mux.HandleFunc("/describe_index_stats", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"dimension":        1536,
					"totalVectorCount": 5,
					"namespaces": map[string]any{
						"test-namespace": map[string]any{"vectorCount": 5},
					},
				})
			})

			stats, err := driver.Stats(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Dimension).To(Equal(uint(1536)))
			Expect(stats.TotalCount).To(Equal(uint64(5)))
			Expect(stats.Namespaces["test-namespace"]).To(Equal(uint64(5)))
		})

		It("surfaces service errors from the data plane", func() {
			mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"Vector dimension 3 does not match the dimension of the index 1536"}`, http.StatusBadRequest)
			})

			_, err := driver.Query(context.Background(), "test-namespace", []float32{1, 2, 3}, 2)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 400"))
			Expect(err.Error()).To(ContainSubstring("dimension"))
		})
	})
})
