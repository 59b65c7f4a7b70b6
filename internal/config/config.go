package config

import (
	"os"
	"time"
)

// Duration aliases time.Duration so config structs read cleanly.
type Duration = time.Duration

// Config holds runtime configuration for the service.
type Config struct {
	Port     string
	PageSize int
	Store    StoreConfig
	Content  ContentConfig
	Enrich   EnrichConfig
	Metrics  MetricsConfig
}

// StoreConfig selects and tunes the document store backend.
type StoreConfig struct {
	Backend      string
	PostgresDSN  string
	PollInterval Duration
}

// ContentConfig controls where uploaded binaries are kept.
// An empty Dir keeps blobs in memory.
type ContentConfig struct {
	Dir string
}

// EnrichConfig controls the external player-data lookup.
type EnrichConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  Duration
}

// Load reads configuration from environment variables with sensible defaults.
// When CONFIG_FILE points at a YAML file, its values override the environment.
func Load() Config {
	cfg := Config{
		Port:     envOrDefault(envPort, defaultPort),
		PageSize: intEnvOrDefault(envPageSize, defaultPageSize),
		Store: StoreConfig{
			Backend:      envOrDefault(envStoreBackend, defaultBackend),
			PostgresDSN:  envOrDefault(envPostgresDSN, ""),
			PollInterval: durationEnvOrDefault(envStorePoll, defaultStorePoll),
		},
		Content: ContentConfig{
			Dir: envOrDefault(envContentDir, ""),
		},
		Enrich:  loadEnrich(),
		Metrics: loadMetrics(),
	}

	if path := os.Getenv(envConfigFile); path != "" {
		cfg = applyFile(cfg, path)
	}
	return cfg
}

func loadEnrich() EnrichConfig {
	return EnrichConfig{
		Provider: envOrDefault(envEnrichOn, defaultEnrichProvider),
		BaseURL:  envOrDefault(envEnrichURL, ""),
		APIKey:   envOrDefault(envEnrichKey, ""),
		Timeout:  durationEnvOrDefault(envEnrichWait, defaultEnrichTimeout),
	}
}
