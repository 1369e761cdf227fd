package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.Overlap)
	assert.Equal(t, 100, cfg.Ingest.BatchSize)
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.Equal(t, 5, cfg.Chat.MemorySize)
	assert.Equal(t, "memory", cfg.Search.Type)
}

func TestLoad_AppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
search:
  type: azure
  azure:
    endpoint: https://example.search.windows.net
chat:
  mode: public
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Chat.Mode)
	require.NotNil(t, cfg.Search.Azure)
	assert.Equal(t, "AZURE_SEARCH_API_KEY", cfg.Search.Azure.APIKeyEnv)
	assert.Equal(t, "kb-documents", cfg.Search.Azure.IndexName)
	assert.Equal(t, 5, cfg.Chat.TopK)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Chat.Mode = "public"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
