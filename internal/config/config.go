// Package config loads the application configuration from YAML. API
// keys never live in the file; the config names the environment
// variables that hold them.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig points at the embedding sidecar service.
type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// AzureSearchConfig holds connection details for Azure AI Search.
type AzureSearchConfig struct {
	Endpoint    string `yaml:"endpoint"`
	APIKeyEnv   string `yaml:"api_key_env"`
	IndexName   string `yaml:"index_name"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SearchConfig selects and configures the vector index implementation.
type SearchConfig struct {
	Type  string             `yaml:"type"`
	Azure *AzureSearchConfig `yaml:"azure,omitempty"`
}

// IngestConfig configures chunking and upload batching.
type IngestConfig struct {
	ChunkSize   int `yaml:"chunk_size"`
	Overlap     int `yaml:"overlap"`
	BatchSize   int `yaml:"batch_size"`
	Concurrency int `yaml:"concurrency"`
}

// GenerationConfig configures the language-model client.
type GenerationConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// ChatConfig configures session behaviour.
type ChatConfig struct {
	Mode         string `yaml:"mode"`
	TopK         int    `yaml:"top_k"`
	MemorySize   int    `yaml:"memory_size"`
	ProbeTTLSecs int    `yaml:"probe_ttl_secs"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	LogLevel   string           `yaml:"log_level"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Generation GenerationConfig `yaml:"generation"`
	Chat       ChatConfig       `yaml:"chat"`
}

// Load parses the YAML file at path and fills in defaults for any
// setting it leaves out. A missing file is not an error; it means
// run with the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault resolves the config without an explicit path: a
// config.yaml in the working directory wins, otherwise the per-user
// file under ~/.config/kbchat is used. On first run neither exists, so
// the defaults are written to the user path for later editing. The
// second return value is the path that was used.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save marshals the config to YAML at path, creating parent
// directories on the way.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kbchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:5000"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 384
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Search.Type == "" {
		cfg.Search.Type = "memory"
	}
	if cfg.Search.Type == "azure" && cfg.Search.Azure != nil {
		if cfg.Search.Azure.APIKeyEnv == "" {
			cfg.Search.Azure.APIKeyEnv = "AZURE_SEARCH_API_KEY"
		}
		if cfg.Search.Azure.IndexName == "" {
			cfg.Search.Azure.IndexName = "kb-documents"
		}
		if cfg.Search.Azure.TimeoutSecs == 0 {
			cfg.Search.Azure.TimeoutSecs = 30
		}
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.Overlap == 0 {
		cfg.Ingest.Overlap = 200
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 4
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 60
	}
	if cfg.Chat.Mode == "" {
		cfg.Chat.Mode = "private"
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 5
	}
	if cfg.Chat.MemorySize == 0 {
		cfg.Chat.MemorySize = 5
	}
	if cfg.Chat.ProbeTTLSecs == 0 {
		cfg.Chat.ProbeTTLSecs = 300
	}
}
