// Package config provides configuration loading and structs for doccompare.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	OCR     OCRConfig     `yaml:"ocr"`
	Render  RenderConfig  `yaml:"render"`
	Compare CompareConfig `yaml:"compare"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Enabled     *bool         `yaml:"enabled"`
	Languages   []string      `yaml:"languages"`
	PageSegMode int           `yaml:"psm"`
	DPI         int           `yaml:"dpi"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EnabledOrDefault returns whether OCR is enabled; defaults to true when unset.
func (o *OCRConfig) EnabledOrDefault() bool {
	if o.Enabled != nil {
		return *o.Enabled
	}
	return true
}

// RenderConfig holds PDF report settings.
type RenderConfig struct {
	PDFEngine       string        `yaml:"pdf_engine"`
	WkhtmltopdfPath string        `yaml:"wkhtmltopdf_path"`
	PageSize        string        `yaml:"page_size"`
	Timeout         time.Duration `yaml:"timeout"`
}

// CompareConfig holds comparison settings.
type CompareConfig struct {
	Concurrency  int  `yaml:"concurrency"`
	ContextLines *int `yaml:"context_lines"`
}

// ContextLinesOrDefault returns the hunk context; 3 when unset. Zero is a valid setting.
func (c *CompareConfig) ContextLinesOrDefault() int {
	if c.ContextLines != nil {
		return *c.ContextLines
	}
	return 3
}

// CacheConfig holds the extraction cache settings.
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// WatchConfig holds file watch settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Cache.DatabasePath = expandPath(cfg.Cache.DatabasePath, configDir)
	if strings.ContainsRune(cfg.Render.WkhtmltopdfPath, filepath.Separator) {
		cfg.Render.WkhtmltopdfPath = expandPath(cfg.Render.WkhtmltopdfPath, configDir)
	}

	return &cfg, nil
}

// Validate rejects settings that cannot work.
func Validate(cfg *Config) error {
	switch cfg.Render.PDFEngine {
	case "native", "wkhtmltopdf":
	default:
		return fmt.Errorf("invalid render.pdf_engine %q (supported: native, wkhtmltopdf)", cfg.Render.PDFEngine)
	}
	if cfg.Compare.Concurrency < 1 {
		return fmt.Errorf("invalid compare.concurrency %d: must be at least 1", cfg.Compare.Concurrency)
	}
	if cfg.Compare.ContextLines != nil && *cfg.Compare.ContextLines < 0 {
		return fmt.Errorf("invalid compare.context_lines %d: must not be negative", *cfg.Compare.ContextLines)
	}
	if cfg.OCR.DPI < 0 {
		return fmt.Errorf("invalid ocr.dpi %d", cfg.OCR.DPI)
	}
	return nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
