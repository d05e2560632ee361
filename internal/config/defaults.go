package config

import "time"

// DefaultPath is where the config file is looked up when none is given.
const DefaultPath = "/usr/local/etc/doccompare/config.yaml"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{"eng"}
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 300
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 2 * time.Minute
	}
	if cfg.Render.PDFEngine == "" {
		cfg.Render.PDFEngine = "native"
	}
	if cfg.Render.WkhtmltopdfPath == "" {
		cfg.Render.WkhtmltopdfPath = "wkhtmltopdf"
	}
	if cfg.Render.PageSize == "" {
		cfg.Render.PageSize = "A4"
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = time.Minute
	}
	if cfg.Compare.Concurrency == 0 {
		cfg.Compare.Concurrency = 1
	}
	if cfg.Cache.DatabasePath == "" {
		cfg.Cache.DatabasePath = "/usr/local/var/doccompare/cache.db"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
