package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
)

// SearchResult is a single scored match returned by /v1/search.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchResponse is the body returned by /v1/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// AskRequest is the body accepted by /v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is the body returned by /v1/ask.
type AskResponse struct {
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	Contexts []string `json:"contexts"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional): number of matches, defaults to the pipeline setting
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := c.QueryInt("top_k")

	matches, err := s.pipeline.RetrieveN(c.Context(), query, topK)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	results := make([]SearchResult, len(matches))
	for i, match := range matches {
		results[i] = SearchResult{
			ID:       match.ID,
			Score:    match.Score,
			Metadata: match.Metadata,
		}
	}

	return c.JSON(SearchResponse{Query: query, Results: results})
}

// handleAsk handles POST /v1/ask requests: retrieve context for the query
// and generate an answer.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query is required",
		})
	}

	answer, err := s.pipeline.Ask(c.Context(), req.Query)
	if err != nil {
		s.logger.Error("ask failed", zap.String("query", req.Query), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(AskResponse{
		Query:    answer.Query,
		Answer:   answer.Text,
		Contexts: answer.Contexts,
	})
}

// handleStats returns index statistics.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.driver.Stats(c.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(statsBody(stats))
}

func statsBody(stats *index.Stats) map[string]any {
	return map[string]any{
		"dimension":   stats.Dimension,
		"total_count": stats.TotalCount,
		"namespaces":  stats.Namespaces,
	}
}
