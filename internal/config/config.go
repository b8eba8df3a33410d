// Package config loads run settings from defaults, an optional YAML or TOML
// file, and environment variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Providers lists the supported extraction backends.
var Providers = []string{"ollama", "openai", "gemini"}

// Catalog configures the Open Library client.
type Catalog struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
	EditionCeiling    int     `yaml:"edition_ceiling" toml:"edition_ceiling"`
	SearchLimit       int     `yaml:"search_limit" toml:"search_limit"`
	Retries           int     `yaml:"retries" toml:"retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" toml:"user_agent"`
}

// Extraction configures the LLM extraction stage.
type Extraction struct {
	Provider    string  `yaml:"provider" toml:"provider"`
	OllamaModel string  `yaml:"ollama_model" toml:"ollama_model"`
	OpenAIModel string  `yaml:"openai_model" toml:"openai_model"`
	GeminiModel string  `yaml:"gemini_model" toml:"gemini_model"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
	HeadWords   int     `yaml:"head_words" toml:"head_words"`
	TailWords   int     `yaml:"tail_words" toml:"tail_words"`
}

// Run configures where run artifacts go.
type Run struct {
	DataDir string `yaml:"data_dir" toml:"data_dir"`
}

// Config is the full application configuration.
type Config struct {
	Catalog    Catalog    `yaml:"catalog" toml:"catalog"`
	Extraction Extraction `yaml:"extraction" toml:"extraction"`
	Run        Run        `yaml:"run" toml:"run"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Catalog: Catalog{
			BaseURL:           catalog.DefaultBaseURL,
			TimeoutSeconds:    int(catalog.DefaultTimeout / time.Second),
			EditionCeiling:    catalog.DefaultEditionCeiling,
			SearchLimit:       catalog.DefaultSearchLimit,
			Retries:           2,
			RequestsPerSecond: 1,
			UserAgent:         catalog.DefaultUserAgent,
		},
		Extraction: Extraction{
			Provider:    "ollama",
			OllamaModel: "mistral-small3.2:24b",
			OpenAIModel: "gpt-4o",
			GeminiModel: "gemini-2.5-flash",
			Temperature: 0,
			HeadWords:   6000,
			TailWords:   2500,
		},
		Run: Run{
			DataDir: "data",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		return fmt.Errorf("unsupported config format %q (supported: .yaml, .yml, .toml)", ext)
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENLIBRARY_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("OPENLIBRARY_TIMEOUT"); v != "" {
		secs, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("OPENLIBRARY_TIMEOUT: %w", err)
		}
		c.Catalog.TimeoutSeconds = secs
	}
	if v := os.Getenv("OPENLIBRARY_EDITION_CEILING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OPENLIBRARY_EDITION_CEILING: %w", err)
		}
		c.Catalog.EditionCeiling = n
	}
	if v := os.Getenv("OPENLIBRARY_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OPENLIBRARY_RETRIES: %w", err)
		}
		c.Catalog.Retries = n
	}
	if v := os.Getenv("OPENLIBRARY_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OPENLIBRARY_RPS: %w", err)
		}
		c.Catalog.RequestsPerSecond = rps
	}
	if v := os.Getenv("CATALOGING_PROVIDER"); v != "" {
		c.Extraction.Provider = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Extraction.OllamaModel = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Extraction.OpenAIModel = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Extraction.GeminiModel = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Run.DataDir = v
	}
	return nil
}

// parseSeconds accepts either whole seconds ("45") or a Go duration ("1m30s").
func parseSeconds(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	return int(d / time.Second), nil
}

func (c *Config) normalize() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Extraction.Provider = strings.ToLower(strings.TrimSpace(c.Extraction.Provider))
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url must be set")
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return errors.New("catalog.timeout_seconds must be positive")
	}
	if c.Catalog.EditionCeiling <= 0 {
		return errors.New("catalog.edition_ceiling must be positive")
	}
	if c.Catalog.SearchLimit <= 0 {
		return errors.New("catalog.search_limit must be positive")
	}
	if c.Catalog.Retries < 0 {
		return errors.New("catalog.retries must not be negative")
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return errors.New("catalog.requests_per_second must not be negative")
	}
	if c.ModelFor(c.Extraction.Provider) == "" {
		return fmt.Errorf("extraction.provider %q is not one of %s", c.Extraction.Provider, strings.Join(Providers, ", "))
	}
	if c.Extraction.HeadWords < 0 || c.Extraction.TailWords < 0 {
		return errors.New("extraction word windows must not be negative")
	}
	return nil
}

// ModelFor returns the configured model for provider, or "" for an unknown
// provider.
func (c *Config) ModelFor(provider string) string {
	switch provider {
	case "ollama":
		return c.Extraction.OllamaModel
	case "openai":
		return c.Extraction.OpenAIModel
	case "gemini":
		return c.Extraction.GeminiModel
	default:
		return ""
	}
}

// CatalogOptions converts the catalog section into client options.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		BaseURL:           c.Catalog.BaseURL,
		Timeout:           time.Duration(c.Catalog.TimeoutSeconds) * time.Second,
		EditionCeiling:    c.Catalog.EditionCeiling,
		SearchLimit:       c.Catalog.SearchLimit,
		Retries:           c.Catalog.Retries,
		RequestsPerSecond: c.Catalog.RequestsPerSecond,
		UserAgent:         c.Catalog.UserAgent,
	}
}

// RunsDir is where run summaries are written.
func (c *Config) RunsDir() string {
	return filepath.Join(c.Run.DataDir, "runs")
}
