package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return getConfig(v)
}

func TestGetConfigDefaults(t *testing.T) {
	config, err := readConfig(t, "sources:\n  files: [jobs.csv]\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"jobs.csv"}, config.Sources.Files)
	assert.Equal(t, 0.4, config.Matching.Threshold)
	assert.Equal(t, 4, config.Matching.Limit)
	assert.Equal(t, 4, config.AI.Concurrency)
	assert.Equal(t, 3, config.AI.Gemini.MaxRetries)
	assert.Equal(t, 60*time.Second, config.AI.Gemini.Timeout)
	assert.Equal(t, "memory", config.Index.Backend)
	assert.Equal(t, "memory", config.Cache.Backend)
	assert.Equal(t, 168*time.Hour, config.Cache.TTL)
	assert.Equal(t, app, config.Metrics.Job)
}

func TestGetConfigFull(t *testing.T) {
	config, err := readConfig(t, `
resume: cv.pdf
exclude-file: excluded.json
sources:
  headhunter:
    enabled: true
    details: true
    limit: 50
    search:
      text: golang
      area: [1, 2]
      per_page: "20"
filters:
  companies: [Acme]
  red-flags: [unpaid]
  disabled: [dedupe]
ai:
  concurrency: 8
  gemini:
    model: gemini-2.5-pro
    timeout: 30s
embeddings:
  provider: hashing
  dimensions: 256
index:
  backend: qdrant
  qdrant:
    url: http://localhost:6334
cache:
  backend: redis
  redis-url: redis://localhost:6379/0
matching:
  threshold: 0.55
  limit: 10
`)
	require.NoError(t, err)

	assert.Equal(t, "cv.pdf", config.Resume)
	require.NotNil(t, config.Sources.Headhunter)
	assert.True(t, config.Sources.Headhunter.Details)
	assert.Equal(t, "golang", config.Sources.Headhunter.Search.Text)
	assert.Equal(t, "20", config.Sources.Headhunter.Search.PerPage)
	assert.Equal(t, []string{"unpaid"}, config.Filters.RedFlags)
	assert.Equal(t, 30*time.Second, config.AI.Gemini.Timeout)
	assert.Equal(t, "hashing", config.Embeddings.Provider)
	assert.Equal(t, "redis://localhost:6379/0", config.Cache.RedisURL)
	assert.Equal(t, 0.55, config.Matching.Threshold)
}

func TestGetConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"threshold above one":   "matching:\n  threshold: 1.5\n",
		"negative threshold":    "matching:\n  threshold: -0.1\n",
		"zero limit":            "matching:\n  limit: 0\n",
		"unknown index backend": "index:\n  backend: faiss\n",
		"redis without url":     "cache:\n  backend: redis\n",
		"unknown filter":        "filters:\n  disabled: [ai_fit]\n",
		"unknown embeddings":    "embeddings:\n  provider: openai\n",
	}

	for name, yaml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readConfig(t, yaml)
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "SMART_APPLY_AI_GEMINI_API_KEY_FILE", envKey("ai.gemini.api-key-file"))
}
