package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendKeyword, cfg.Extraction.Backend)
	assert.Equal(t, 0.5, cfg.Extraction.ConfidenceThreshold)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, uint64(3), cfg.LLM.MaxRetries)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INVNORM_SERVER_ADDR", ":9090")
	t.Setenv("INVNORM_EXTRACTION_BACKEND", "llm")
	t.Setenv("INVNORM_EXTRACTION_CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("INVNORM_LLM_API_KEY", "secret")
	t.Setenv("INVNORM_LLM_RETRY_DELAY", "250ms")
	t.Setenv("INVNORM_LLM_MAX_RETRIES", "5")
	t.Setenv("INVNORM_CACHE_BACKEND", "redis")
	t.Setenv("INVNORM_CACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("INVNORM_LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendLLM, cfg.Extraction.Backend)
	assert.Equal(t, 0.75, cfg.Extraction.ConfidenceThreshold)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.RetryDelay)
	assert.Equal(t, uint64(5), cfg.LLM.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Log.JSON)

	assert.Equal(t, "secret", cfg.LLM.ToExtractor().APIKey)
	assert.Equal(t, "invnorm:", cfg.Cache.ToCache().KeyPrefix)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"INVNORM_EXTRACTION_CONFIDENCE_THRESHOLD": "1.5",
		"INVNORM_EXTRACTION_BACKEND":              "regex",
		"INVNORM_CACHE_BACKEND":                   "redis",
		"INVNORM_LLM_TEMPERATURE":                 "2",
		"INVNORM_SERVER_READ_TIMEOUT":             "0s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLLMBackendNeedsKey(t *testing.T) {
	cfg := Default()
	cfg.Extraction.Backend = BackendLLM
	assert.Error(t, cfg.Validate())

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}

func TestTransformEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", transformEnvKey("INVNORM_LLM_API_KEY"))
	assert.Equal(t, "cache.redis_addr", transformEnvKey("INVNORM_CACHE_REDIS_ADDR"))
	assert.Equal(t, "debug", transformEnvKey("INVNORM_DEBUG"))
}
