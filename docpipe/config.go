package docpipe

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/docforge/ocr"
	"github.com/hazyhaar/docforge/translate"
)

// Config tunes the extraction pipeline. The zero value is usable; defaults()
// fills in anything left unset.
type Config struct {
	// MaxFileSize is the per-file ceiling in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// MaxBatchSize caps how many files one batch call may carry.
	MaxBatchSize int `yaml:"max_batch_size"`
	// EventDB, when set, is the path of the SQLite extraction event log.
	EventDB string `yaml:"event_db"`

	OCR       ocr.Config       `yaml:"ocr"`
	Translate translate.Config `yaml:"translate"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 20 << 20
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML pipeline configuration.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("docpipe: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("docpipe: parse config %s: %w", path, err)
	}
	return cfg, nil
}
