package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Remote HTTP reranker configuration defaults.
const (
	DefaultRemoteTimeout = 30 * time.Second
)

// RemoteConfig configures the remote HTTP cross-encoder reranker.
type RemoteConfig struct {
	// Endpoint is the reranking API URL, expected to accept a POST with a
	// query and candidate documents and return scores aligned by index.
	Endpoint string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the provider-side model identifier.
	Model string

	// Timeout bounds a single request.
	Timeout time.Duration

	// SkipHealthCheck skips the initial connectivity probe (for testing).
	SkipHealthCheck bool
}

// RemoteReranker scores (query, document) pairs via a configured HTTP
// endpoint. Like RemoteEmbedder it performs one call per Rerank invocation
// and does not retry internally.
type RemoteReranker struct {
	client *http.Client
	cfg    RemoteConfig

	mu     sync.RWMutex
	closed bool
}

var _ Reranker = (*RemoteReranker)(nil)

// NewRemoteReranker creates a remote reranker and, unless skipped, probes
// the endpoint for reachability.
func NewRemoteReranker(ctx context.Context, cfg RemoteConfig) (*RemoteReranker, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote reranker endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}

	r := &RemoteReranker{client: &http.Client{}, cfg: cfg}

	if !cfg.SkipHealthCheck {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if _, err := r.doRerank(probeCtx, "ping", []string{"ping"}, 0); err != nil {
			return nil, fmt.Errorf("remote reranker unavailable: %w", err)
		}
	}

	return r, nil
}

type remoteRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

type remoteRerankResponse struct {
	Results []struct {
		Index    int     `json:"index"`
		Score    float64 `json:"score"`
		Document string  `json:"document"`
	} `json:"results"`
}

// Rerank scores and reorders documents by relevance to the query.
func (r *RemoteReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("reranker is closed")
	}
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}
	return r.doRerank(ctx, query, documents, topK)
}

func (r *RemoteReranker) doRerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(remoteRerankRequest{Query: query, Documents: documents, Model: r.cfg.Model, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result remoteRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	out := make([]RerankResult, len(result.Results))
	for i, res := range result.Results {
		out[i] = RerankResult{Index: res.Index, Score: res.Score, Document: res.Document}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

// Available probes the endpoint with a trivial request.
func (r *RemoteReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return false
	}
	_, err := r.doRerank(ctx, "ping", []string{"ping"}, 0)
	return err == nil
}

// Close marks the reranker closed and releases idle connections.
func (r *RemoteReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if transport, ok := r.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
