package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Config struct {
	APIBaseURL string `env:"RFP_API_URL" envDefault:"http://localhost:8000"`

	DBPath       string `env:"DB_PATH" envDefault:"data/app.db"`
	StateBackend string `env:"STATE_BACKEND" envDefault:"sqlite"`
	StateDir     string `env:"STATE_DIR" envDefault:"data/state"`
	OutputDir    string `env:"OUTPUT_DIR" envDefault:"out"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DashboardRefreshSec int `env:"DASHBOARD_REFRESH_SEC" envDefault:"30"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	cfg.DBPath = absFrom(cwd, cfg.DBPath)
	cfg.StateDir = absFrom(cwd, cfg.StateDir)
	cfg.OutputDir = absFrom(cwd, cfg.OutputDir)

	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))
	switch cfg.StateBackend {
	case BackendSQLite, BackendFile:
	default:
		return Config{}, fmt.Errorf("unsupported STATE_BACKEND: %s", cfg.StateBackend)
	}
	if cfg.DashboardRefreshSec <= 0 {
		cfg.DashboardRefreshSec = 30
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func absFrom(cwd, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}
