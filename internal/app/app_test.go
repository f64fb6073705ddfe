package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsense/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CACHE_DIR", t.TempDir())
	return config.LoadConfig()
}

func TestNewPipeline_ExtractionOnly(t *testing.T) {
	cfg := testConfig(t)

	p, err := NewPipeline(context.Background(), cfg, nil, false)
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Store)
	assert.NotNil(t, p.Ingestor)
	assert.NotNil(t, p.Documents)
	assert.Nil(t, p.Retriever)
	assert.False(t, p.Documents.CanSynthesize())
}

func TestNewPipeline_OpenAIRetrievalWithoutSynthesis(t *testing.T) {
	cfg := testConfig(t)
	cfg.EmbedProvider = "openai"
	cfg.OpenAIBaseURL = "http://127.0.0.1:1/v1"
	cfg.AIAPIKey = ""

	p, err := NewPipeline(context.Background(), cfg, nil, true)
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Retriever)
	assert.NotNil(t, p.Embedder)
	assert.Equal(t, "text-embedding-3-small", p.Embedder.ModelName())
	assert.Equal(t, 1536, p.Embedder.Dimensions())
	assert.Nil(t, p.Synthesizer)
	assert.Equal(t, cfg.RankTopK, p.Retriever.Policy().TopK)
}

func TestNewPipeline_BadBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheBackend = "s3"
	cfg.AwsRegion = ""

	_, err := NewPipeline(context.Background(), cfg, nil, false)
	assert.Error(t, err)
}

func TestRouter_Auth(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPipeline(context.Background(), cfg, nil, false)
	require.NoError(t, err)
	defer p.Close()

	open := NewRouter(p.Documents, "")
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	secured := NewRouter(p.Documents, "s3cret")
	rec = httptest.NewRecorder()
	secured.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	secured.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	secured.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
