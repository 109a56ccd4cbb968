package config

import "github.com/medlingua/medlingua/internal/recommend"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Translator.BaseURL == "" {
		cfg.Translator.BaseURL = "http://localhost:5000"
	}
	if cfg.Translator.TimeoutSeconds == 0 {
		cfg.Translator.TimeoutSeconds = 60
	}
	if cfg.OCR.TimeoutSeconds == 0 {
		cfg.OCR.TimeoutSeconds = 30
	}
	if cfg.OCR.Workers == 0 {
		cfg.OCR.Workers = 4
	}
	if cfg.Pipeline.RecommendationMode == "" {
		cfg.Pipeline.RecommendationMode = string(recommend.ModePerConcept)
	}
	if cfg.Pipeline.NormalizeLanguages == nil {
		cfg.Pipeline.NormalizeLanguages = []string{"hi"}
	}
	if cfg.Storage.CachePath == "" {
		cfg.Storage.CachePath = "/usr/local/var/medlingua/data/db/translations.db"
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "/usr/local/var/medlingua/data/uploads"
	}
	if cfg.Uploads.TTLSeconds == 0 {
		cfg.Uploads.TTLSeconds = 600
	}
}
