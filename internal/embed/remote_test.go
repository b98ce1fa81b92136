package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aman-cerp/semindex/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEmbedServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := remoteEmbedResponse{Embeddings: make([][]float64, len(req.Input))}
		for i := range req.Input {
			vec := make([]float64, dims)
			for j := range vec {
				vec[j] = 1.0
			}
			resp.Embeddings[i] = vec
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewRemoteEmbedder_MissingEndpoint(t *testing.T) {
	_, err := NewRemoteEmbedder(context.Background(), RemoteConfig{})
	require.Error(t, err)
}

func TestNewRemoteEmbedder_ProbesAndDerivesDimensions(t *testing.T) {
	srv := fakeEmbedServer(t, 384)
	defer srv.Close()

	e, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 384, e.Dimensions())
}

func TestNewRemoteEmbedder_DimensionMismatchFails(t *testing.T) {
	srv := fakeEmbedServer(t, 384)
	defer srv.Close()

	_, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL, Dimensions: 768})
	require.Error(t, err)
	var idxErr *errors.IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, errors.ErrCodeProviderMismatch, idxErr.Code)
}

func TestRemoteEmbedder_EmbedBatch_PreservesOrderAndNormalizes(t *testing.T) {
	srv := fakeEmbedServer(t, 4)
	defer srv.Close()

	e, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL, SkipHealthCheck: true, Dimensions: 4})
	require.NoError(t, err)
	defer e.Close()

	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, vec := range out {
		require.Len(t, vec, 4)
		var sumSq float32
		for _, v := range vec {
			sumSq += v * v
		}
		assert.InDelta(t, 1.0, sumSq, 1e-4, "vector should be unit-normalized")
	}
}

func TestRemoteEmbedder_EmbedBatch_EmptyInputReturnsEmpty(t *testing.T) {
	e := &RemoteEmbedder{cfg: RemoteConfig{Endpoint: "http://unused"}}
	out, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRemoteEmbedder_NonOKStatus_ReturnsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL})
	require.Error(t, err)
	var idxErr *errors.IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, errors.ErrCodeTransport, idxErr.Code)
}

func TestRemoteEmbedder_EmbeddingCountMismatch_ReturnsProviderMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(remoteEmbedResponse{Embeddings: [][]float64{{1, 2, 3}}})
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL, SkipHealthCheck: true, Dimensions: 3})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	var idxErr *errors.IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, errors.ErrCodeProviderMismatch, idxErr.Code)
}

func TestRemoteEmbedder_CloseThenEmbedBatchFails(t *testing.T) {
	srv := fakeEmbedServer(t, 4)
	defer srv.Close()

	e, err := NewRemoteEmbedder(context.Background(), RemoteConfig{Endpoint: srv.URL, SkipHealthCheck: true, Dimensions: 4})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestRemoteEmbedder_AuthorizationHeaderSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req remoteEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := remoteEmbedResponse{Embeddings: [][]float64{{1, 1}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(context.Background(), RemoteConfig{
		Endpoint: srv.URL, APIKey: "secret-token", SkipHealthCheck: true, Dimensions: 2,
	})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}
