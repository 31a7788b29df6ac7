package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vecdb/config"
)

func newTestServer(t *testing.T, handler func(req embeddingRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "secret")
	srv := newTestServer(t, func(req embeddingRequest) (int, any) {
		assert.Equal(t, "m", req.Model)
		data := make([]embeddingData, len(req.Input))
		for i := range req.Input {
			// Reply in reverse order.
			j := len(req.Input) - 1 - i
			data[i] = embeddingData{Index: j, Embedding: []float32{float32(j)}}
		}
		return http.StatusOK, embeddingResponse{Data: data}
	})

	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", srv.URL)
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0}, {1}, {2}}, got)
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "secret")

	srv := newTestServer(t, func(embeddingRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]string{"error": "slow down"}
	})
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", srv.URL)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "status 429")

	short := newTestServer(t, func(embeddingRequest) (int, any) {
		return http.StatusOK, embeddingResponse{}
	})
	e, err = NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", short.URL)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "no embedding for input 0")
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", "http://unused")
	assert.Error(t, err)
}

func TestMockEmbedderIsStable(t *testing.T) {
	e := NewMockEmbedder(4)
	a, err := e.Embed(context.Background(), []string{"héllo", "hi"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"héllo", "hi"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a[0], 4)
	assert.Equal(t, []float32{0.104, 0.105, 0, 0}, a[1])
}

func TestNewProvider(t *testing.T) {
	e, err := New(config.EmbeddingConfig{}, 8)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = New(config.EmbeddingConfig{Provider: "mock"}, 8)
	require.NoError(t, err)
	assert.Equal(t, "mock", e.ModelName())

	_, err = New(config.EmbeddingConfig{Provider: "nope"}, 8)
	assert.Error(t, err)
}
