package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	semerrors "github.com/aman-cerp/semindex/internal/errors"
)

// RemoteEmbedder generates embeddings by POSTing a batch to a configured
// HTTP endpoint with bearer auth. It does not retry internally;
// retries are the indexer's responsibility (internal/errors.Retry), so a
// single failed call here surfaces immediately as Transport/Timeout/
// ProviderMismatch.
type RemoteEmbedder struct {
	client *http.Client
	cfg    RemoteConfig

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*RemoteEmbedder)(nil)

// NewRemoteEmbedder creates a remote embedder and, unless skipped, probes
// the endpoint with a single-text request to confirm reachability and
// dimension agreement.
func NewRemoteEmbedder(ctx context.Context, cfg RemoteConfig) (*RemoteEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, semerrors.BadInput("remote embedding endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWarmTimeout
	}

	e := &RemoteEmbedder{
		client: &http.Client{},
		cfg:    cfg,
	}

	if !cfg.SkipHealthCheck {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		vecs, err := e.doEmbed(probeCtx, []string{"ping"})
		if err != nil {
			return nil, err
		}
		if cfg.Dimensions != 0 && len(vecs[0]) != cfg.Dimensions {
			return nil, semerrors.ProviderMismatch(
				fmt.Sprintf("remote endpoint returned %d-dimensional vectors, container expects %d", len(vecs[0]), cfg.Dimensions), nil)
		}
		if cfg.Dimensions == 0 {
			e.cfg.Dimensions = len(vecs[0])
		}
	}

	return e, nil
}

// Embed generates an embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch POSTs the batch to the configured endpoint, preserving order.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	return e.doEmbed(ctx, texts)
}

func (e *RemoteEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(remoteEmbedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, semerrors.Timeout("remote embedding request timed out", err)
		}
		return nil, semerrors.Transport("remote embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, semerrors.Transport(
			fmt.Sprintf("remote embedding endpoint returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var result remoteEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, semerrors.Transport("failed to decode remote embedding response", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, semerrors.ProviderMismatch(
			fmt.Sprintf("remote endpoint returned %d vectors for %d inputs", len(result.Embeddings), len(texts)), nil)
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		v := make([]float32, len(emb))
		for j, f := range emb {
			v[j] = float32(f)
		}
		out[i] = normalizeVector(v)
	}
	return out, nil
}

// Dimensions returns the declared embedding dimension.
func (e *RemoteEmbedder) Dimensions() int { return e.cfg.Dimensions }

// ModelName returns the configured model identifier.
func (e *RemoteEmbedder) ModelName() string { return e.cfg.Model }

// Available probes the endpoint with a trivial request.
func (e *RemoteEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return false
	}
	_, err := e.doEmbed(ctx, []string{"ping"})
	return err == nil
}

// Close marks the embedder closed; the shared http.Client needs no
// explicit teardown.
func (e *RemoteEmbedder) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// SetBatchIndex is a no-op: remote timeout scaling is handled by the
// indexer's bounded retry, not by the provider.
func (e *RemoteEmbedder) SetBatchIndex(_ int) {}

// SetFinalBatch is a no-op for the same reason.
func (e *RemoteEmbedder) SetFinalBatch(_ bool) {}
