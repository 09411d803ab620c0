package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MATCH_THRESHOLD", "")
	t.Setenv("PROVIDER_TIMEOUT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OPENAI_EMBEDDING_MODEL", "")
	t.Setenv("EMBEDDING_DIMENSION", "")

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, 1536, cfg.EmbeddingDimension)
	assert.InDelta(t, 0.3, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 3, cfg.MatchCount)
	assert.InDelta(t, 0.0, cfg.RecommendThreshold, 1e-9)
	assert.Equal(t, 5, cfg.RecommendCount)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10, cfg.ChatHistoryLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MATCH_THRESHOLD", "0.5")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("MCP_ENABLED", "true")
	t.Setenv("EMBEDDING_DIMENSION", "not-a-number")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OPENAI_EMBEDDING_MODEL", "")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.InDelta(t, 0.5, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.True(t, cfg.MCPEnabled)
	assert.Equal(t, 1536, cfg.EmbeddingDimension, "unparseable values fall back")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:        "postgres://x",
			JWTSecret:          "secret",
			AIProvider:         "openai",
			OpenAIAPIKey:       "sk-test",
			EmbeddingDimension: 1536,
			MatchThreshold:     0.3,
			MatchCount:         3,
			RecommendCount:     5,
			ProviderMaxRetries: 3,
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.OpenAIAPIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "OPENAI_API_KEY")

	cfg = valid()
	cfg.AIProvider = "ollama"
	cfg.OpenAIAPIKey = ""
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.AIProvider = "anthropic"
	assert.ErrorContains(t, cfg.Validate(), "AI_PROVIDER")

	cfg = valid()
	cfg.JWTSecret = ""
	cfg.MatchThreshold = 1.5
	err := cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "MATCH_THRESHOLD")
}

func TestEmbeddingDimensionFollowsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		modelEnv string
		want     int
	}{
		{"openai default", "openai", "", "OPENAI_EMBEDDING_MODEL", 1536},
		{"openai large", "openai", "text-embedding-3-large", "OPENAI_EMBEDDING_MODEL", 3072},
		{"ollama default", "ollama", "", "OLLAMA_EMBED_MODEL", 1024},
		{"ollama tagged", "ollama", "nomic-embed-text:latest", "OLLAMA_EMBED_MODEL", 768},
		{"unknown model", "ollama", "my-embedder", "OLLAMA_EMBED_MODEL", 1536},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AI_PROVIDER", tt.provider)
			t.Setenv("OPENAI_EMBEDDING_MODEL", "")
			t.Setenv("OLLAMA_EMBED_MODEL", "")
			t.Setenv(tt.modelEnv, tt.model)
			t.Setenv("EMBEDDING_DIMENSION", "")
			t.Setenv("JWT_SECRET", "s")
			t.Setenv("OPENAI_API_KEY", "sk-test")

			cfg := Load()
			assert.Equal(t, tt.want, cfg.EmbeddingDimension)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsModelDimensionMismatch(t *testing.T) {
	t.Setenv("AI_PROVIDER", "ollama")
	t.Setenv("OLLAMA_EMBED_MODEL", "bge-m3")
	t.Setenv("EMBEDDING_DIMENSION", "1536")
	t.Setenv("JWT_SECRET", "s")

	cfg := Load()
	assert.Equal(t, "bge-m3", cfg.EmbeddingModel())
	err := cfg.Validate()
	assert.ErrorContains(t, err, "EMBEDDING_DIMENSION is 1536 but bge-m3 produces 1024-dimension vectors")

	cfg.EmbeddingDimension = 1024
	assert.NoError(t, cfg.Validate())
}

func TestValidateDimensionRange(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", EmbeddingDimension: 3072}
	assert.NoError(t, cfg.ValidateStore())

	cfg.EmbeddingDimension = 4001
	assert.ErrorContains(t, cfg.ValidateStore(), "at most 4000")

	cfg.EmbeddingDimension = 0
	assert.ErrorContains(t, cfg.ValidateStore(), "must be positive")
}

func TestValidateStoreIgnoresServeSettings(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", AIProvider: "openai", EmbeddingDimension: 1536}

	assert.NoError(t, cfg.ValidateStore())

	err := cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	cfg.DatabaseURL = ""
	assert.ErrorContains(t, cfg.ValidateStore(), "DATABASE_URL")
}
