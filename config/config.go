package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MaxWorkers sizes the batch worker pool. Clamped to [1, NumCPU-1]
	// by Workers(); parse failures fall back to 1.
	MaxWorkers int `envconfig:"MAX_WORKERS" default:"1"`
	// DataDir holds the conversion history database.
	DataDir  string `envconfig:"ANYCONV_DATA_DIR"`
	LogLevel string `envconfig:"ANYCONV_LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		// A malformed MAX_WORKERS must not kill the run.
		cfg = Config{MaxWorkers: 1, LogLevel: "info"}
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.DataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(cacheDir, "anyconv")
	}
	return &cfg, nil
}

// Workers clamps the configured pool size to [1, NumCPU-1].
func (c *Config) Workers() int {
	w := c.MaxWorkers
	if w < 1 {
		w = 1
	}
	if max := runtime.NumCPU() - 1; max >= 1 && w > max {
		w = max
	}
	return w
}
