package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("UPSTAGE_API_KEY", "up-key")
	t.Setenv("SERP_API_KEY", "serp-key")
	t.Setenv("NAVER_CLIENT_ID", "naver-id")
	t.Setenv("NAVER_CLIENT_SECRET", "naver-secret")
	t.Setenv("OPENAI_API_KEY", "openai-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "up-key", cfg.UpstageAPIKey)
	assert.Equal(t, "naver-secret", cfg.NaverClientSecret)
	assert.Equal(t, "8000", cfg.Port)
	assert.True(t, cfg.ServerMode)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 20, cfg.MMRFetchK)
	assert.InDelta(t, 0.5, cfg.MMRLambda, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.AssistantRunTimeout)
	assert.Equal(t, VectorStoreMemory, cfg.VectorStore)
	assert.Equal(t, "gpt-4o", cfg.AssistantModel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ASSISTANT_RUN_TIMEOUT", "90s")
	t.Setenv("SERVER_MODE", "false")
	t.Setenv("VECTOR_STORE", "qdrant")
	t.Setenv("QDRANT_PORT", "7000")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AssistantRunTimeout)
	assert.False(t, cfg.ServerMode)
	assert.Equal(t, VectorStoreQdrant, cfg.VectorStore)
	assert.Equal(t, 7000, cfg.QdrantPort)
}

func TestLoad_MissingCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("SERP_API_KEY", "")
	t.Setenv("NAVER_CLIENT_SECRET", "")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfig))
	assert.Contains(t, err.Error(), "SERP_API_KEY")
	assert.Contains(t, err.Error(), "NAVER_CLIENT_SECRET")
	assert.NotContains(t, err.Error(), "UPSTAGE_API_KEY")
}

func TestValidate_RejectsBadRetrievalSettings(t *testing.T) {
	base := Config{
		UpstageAPIKey:       "a",
		SerpAPIKey:          "b",
		NaverClientID:       "c",
		NaverClientSecret:   "d",
		OpenAIAPIKey:        "e",
		ChunkSize:           500,
		ChunkOverlap:        100,
		MMRFetchK:           20,
		MMRLambda:           0.5,
		AssistantRunTimeout: time.Minute,
		VectorStore:         VectorStoreMemory,
	}
	require.NoError(t, base.Validate())

	overlap := base
	overlap.ChunkOverlap = 500
	assert.Error(t, overlap.Validate())

	fetchK := base
	fetchK.MMRFetchK = 0
	assert.Error(t, fetchK.Validate())

	lambda := base
	lambda.MMRLambda = 1.5
	assert.Error(t, lambda.Validate())

	store := base
	store.VectorStore = "chroma"
	assert.Error(t, store.Validate())
}
