package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// HTTPTracer posts session lifecycle updates as JSON to a tracing endpoint.
type HTTPTracer struct {
	baseURL    string
	apiKey     string
	sessionID  string
	httpClient *http.Client
	logger     *zap.Logger
}

// HTTPConfig holds configuration for the HTTP tracer.
type HTTPConfig struct {
	// BaseURL is the tracing service endpoint. Required.
	BaseURL string

	// APIKey authenticates requests. Sent as a bearer token when set.
	APIKey string
}

type startRequest struct {
	SessionID string   `json:"session_id"`
	Tags      []string `json:"tags,omitempty"`
	StartedAt string   `json:"started_at"`
}

type eventRequest struct {
	SessionID string         `json:"session_id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

type endRequest struct {
	SessionID string `json:"session_id"`
	State     string `json:"end_state"`
	EndedAt   string `json:"ended_at"`
}

// NewHTTPTracer creates a tracer that reports sessions to the given endpoint.
// Each tracer owns a single session identified by a fresh uuid.
func NewHTTPTracer(cfg HTTPConfig, logger *zap.Logger) (*HTTPTracer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("trace endpoint is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPTracer{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		sessionID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}, nil
}

// SessionID returns the session identifier this tracer reports under.
func (t *HTTPTracer) SessionID() string {
	return t.sessionID
}

// Start opens the session.
func (t *HTTPTracer) Start(ctx context.Context, tags []string) error {
	err := t.post(ctx, "/v1/sessions", startRequest{
		SessionID: t.sessionID,
		Tags:      tags,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("starting trace session: %w", err)
	}

	t.logger.Debug("trace session started",
		zap.String("session_id", t.sessionID),
		zap.Strings("tags", tags),
	)
	return nil
}

// Record attaches an event to the session.
func (t *HTTPTracer) Record(ctx context.Context, event Event) error {
	err := t.post(ctx, "/v1/sessions/"+t.sessionID+"/events", eventRequest{
		SessionID: t.sessionID,
		Name:      event.Name,
		Metadata:  event.Metadata,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("recording trace event: %w", err)
	}

	t.logger.Debug("trace event recorded",
		zap.String("session_id", t.sessionID),
		zap.String("event", event.Name),
	)
	return nil
}

// End closes the session with the given terminal state.
func (t *HTTPTracer) End(ctx context.Context, state State) error {
	err := t.post(ctx, "/v1/sessions/"+t.sessionID+"/end", endRequest{
		SessionID: t.sessionID,
		State:     string(state),
		EndedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("ending trace session: %w", err)
	}

	t.logger.Debug("trace session ended",
		zap.String("session_id", t.sessionID),
		zap.String("state", string(state)),
	)
	return nil
}

// post sends a JSON body and checks for a 2xx response.
func (t *HTTPTracer) post(ctx context.Context, path string, body any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trace endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Ensure HTTPTracer implements Tracer
var _ Tracer = (*HTTPTracer)(nil)
