package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yumyai/calypso/logger"
	"github.com/yumyai/calypso/pkg/dca"
	"go.uber.org/zap"
)

// Config holds the settings shared by the server and the command line tools.
type Config struct {
	DataDir      string         `yaml:"data"`
	DBPath       string         `yaml:"db"`
	ExportDir    string         `yaml:"export_dir"`
	Addr         string         `yaml:"addr"`
	LogLevel     string         `yaml:"log_level"`
	Thresholds   dca.Thresholds `yaml:"thresholds"`
	FetchWorkers int            `yaml:"fetch_workers"`
	Engine       string         `yaml:"engine"`
	PageSize     int            `yaml:"page_size"`
}

// Load reads .env, then the YAML file named by CALYPSO_CONFIG if any, then the CALYPSO_*
// environment variables. Defaults fill whatever is still unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env found, using local environment")
	}

	cfg := &Config{}
	if path := os.Getenv("CALYPSO_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
		logger.Info("Loaded config file", zap.String("path", path))
	}

	if err := applyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvironmentOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("CALYPSO_DATA", &cfg.DataDir)
	setString("CALYPSO_DB", &cfg.DBPath)
	setString("CALYPSO_EXPORT_DIR", &cfg.ExportDir)
	setString("CALYPSO_ADDR", &cfg.Addr)
	setString("CALYPSO_LOG_LEVEL", &cfg.LogLevel)
	setString("CALYPSO_ENGINE", &cfg.Engine)

	floats := []struct {
		key string
		dst *float64
	}{
		{"CALYPSO_PVALUE", &cfg.Thresholds.PValue},
		{"CALYPSO_FOLD_CHANGE", &cfg.Thresholds.FoldChange},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CALYPSO_FETCH_WORKERS", &cfg.FetchWorkers},
		{"CALYPSO_PAGE_SIZE", &cfg.PageSize},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.key, err)
			}
			*i.dst = parsed
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		logger.Warn("No local environment (CALYPSO_DATA), using default value (./data)")
		cfg.DataDir = "./data"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "db", "coverage.db")
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = filepath.Join(cfg.DataDir, "exports")
	}
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0:8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	defaults := dca.DefaultThresholds()
	if cfg.Thresholds.PValue == 0 {
		cfg.Thresholds.PValue = defaults.PValue
	}
	if cfg.Thresholds.FoldChange == 0 {
		cfg.Thresholds.FoldChange = defaults.FoldChange
	}
	if cfg.FetchWorkers == 0 {
		cfg.FetchWorkers = 1
	}
	if cfg.Engine == "" {
		cfg.Engine = "edger"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 100
	}
}

func validate(cfg *Config) error {
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}
	if cfg.FetchWorkers < 1 {
		return fmt.Errorf("fetch_workers must be at least 1, got %d", cfg.FetchWorkers)
	}
	if cfg.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got %d", cfg.PageSize)
	}
	if _, err := dca.EngineByName(cfg.Engine); err != nil {
		return err
	}
	return nil
}
