// Package config provides configuration loading and structs for the MedLingua server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/medlingua/medlingua/internal/recommend"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Glossary   GlossaryConfig   `yaml:"glossary"`
	Translator TranslatorConfig `yaml:"translator"`
	OCR        OCRConfig        `yaml:"ocr"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Storage    StorageConfig    `yaml:"storage"`
	Uploads    UploadsConfig    `yaml:"uploads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GlossaryConfig holds the glossary source. An empty path selects the
// built-in glossary.
type GlossaryConfig struct {
	Path string `yaml:"path"`
}

// TranslatorConfig holds the translation backend endpoint.
type TranslatorConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OCRConfig holds the OCR collaborator endpoint. An empty base URL disables
// OCR; embedded document images are then skipped.
type OCRConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Workers        int    `yaml:"workers"`
}

// PipelineConfig holds processing behavior.
type PipelineConfig struct {
	RecommendationMode string   `yaml:"recommendation_mode"`
	NormalizeLanguages []string `yaml:"normalize_languages"`
}

// StorageConfig holds the translation cache path.
type StorageConfig struct {
	CachePath string `yaml:"cache_path"`
}

// UploadsConfig holds the document upload scratch directory and the TTL
// after which orphaned artifacts are collected.
type UploadsConfig struct {
	Dir        string `yaml:"dir"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and validates. Returns an error if the file cannot be read or
// parsed, or if a setting is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Glossary.Path != "" {
		cfg.Glossary.Path = expandPath(cfg.Glossary.Path, configDir)
	}
	cfg.Storage.CachePath = expandPath(cfg.Storage.CachePath, configDir)
	cfg.Uploads.Dir = expandPath(cfg.Uploads.Dir, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would only fail later at request time.
func Validate(cfg *Config) error {
	if _, err := recommend.ParseMode(cfg.Pipeline.RecommendationMode); err != nil {
		return fmt.Errorf("invalid recommendation_mode: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Translator.BaseURL == "" {
		return fmt.Errorf("translator base_url is required")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
