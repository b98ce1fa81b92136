package embed

import "time"

// RemoteConfig configures the remote HTTP embedding provider.
type RemoteConfig struct {
	// Endpoint is the embedding API URL, expected to accept a POST with a
	// batch of texts and return a batch of vectors.
	Endpoint string

	// APIKey is sent as a bearer token. Read from the environment by the
	// caller (see EmbeddingsConfig.RemoteAPIKeyEnv), never stored on disk.
	APIKey string

	// Model is the provider-side model identifier sent in the request.
	Model string

	// Dimensions is the declared output dimension; the response must match
	// or the call fails with ProviderMismatch.
	Dimensions int

	// Timeout bounds a single request.
	Timeout time.Duration

	// SkipHealthCheck skips the initial connectivity probe (for testing).
	SkipHealthCheck bool
}

// DefaultRemoteConfig returns sensible defaults for a remote embedder.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Timeout: DefaultWarmTimeout,
	}
}

// remoteEmbedRequest is the generic batch embedding request body.
type remoteEmbedRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

// remoteEmbedResponse is the generic batch embedding response body.
type remoteEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}
