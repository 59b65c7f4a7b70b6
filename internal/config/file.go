package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with optional fields so an absent key
// leaves the environment-derived value untouched.
type fileConfig struct {
	Port     *string `yaml:"port"`
	PageSize *int    `yaml:"pageSize"`
	Store    struct {
		Backend      *string        `yaml:"backend"`
		PostgresDSN  *string        `yaml:"postgresDsn"`
		PollInterval *time.Duration `yaml:"pollInterval"`
	} `yaml:"store"`
	Content struct {
		Dir *string `yaml:"dir"`
	} `yaml:"content"`
	Enrich struct {
		Provider *string        `yaml:"provider"`
		BaseURL  *string        `yaml:"baseUrl"`
		APIKey   *string        `yaml:"apiKey"`
		Timeout  *time.Duration `yaml:"timeout"`
	} `yaml:"enrich"`
	Metrics struct {
		Enabled *bool   `yaml:"enabled"`
		Port    *string `yaml:"port"`
	} `yaml:"metrics"`
}

// applyFile overlays values from a YAML file onto cfg. Unreadable or
// malformed files are ignored so a bad mount cannot take the service down.
func applyFile(cfg Config, path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg
	}

	setString(&cfg.Port, fc.Port)
	setInt(&cfg.PageSize, fc.PageSize)
	setString(&cfg.Store.Backend, fc.Store.Backend)
	setString(&cfg.Store.PostgresDSN, fc.Store.PostgresDSN)
	setDuration(&cfg.Store.PollInterval, fc.Store.PollInterval)
	setString(&cfg.Content.Dir, fc.Content.Dir)
	setString(&cfg.Enrich.Provider, fc.Enrich.Provider)
	setString(&cfg.Enrich.BaseURL, fc.Enrich.BaseURL)
	setString(&cfg.Enrich.APIKey, fc.Enrich.APIKey)
	setDuration(&cfg.Enrich.Timeout, fc.Enrich.Timeout)
	if fc.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *fc.Metrics.Enabled
	}
	setString(&cfg.Metrics.Port, fc.Metrics.Port)

	return cfg
}

func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil && *src > 0 {
		*dst = *src
	}
}

func setDuration(dst *Duration, src *time.Duration) {
	if src != nil && *src > 0 {
		*dst = *src
	}
}
