package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// envPrefix prefixes every environment override, e.g. LINECHAT_ADDR.
	envPrefix = "LINECHAT"
	// envConfigDir names the directory searched for config.yaml when no
	// explicit path is given.
	envConfigDir   = "LINECHAT_CONFIG_DIR"
	configFileName = "config.yaml"
)

// defaults maps every config key to its starting value.
func defaults(cfg Config) map[string]any {
	return map[string]any{
		"addr":                cfg.Addr,
		"http_addr":           cfg.HTTPAddr,
		"log_level":           cfg.LogLevel,
		"read_header_timeout": cfg.ReadHeaderTimeout,
		"shutdown_timeout":    cfg.ShutdownTimeout,
		"evict_empty_rooms":   cfg.EvictEmptyRooms,
		"send_rate_limit":     cfg.SendRateLimit,
		"database_path":       cfg.DatabasePath,
		"redis_url":           cfg.RedisURL,
	}
}

// Load layers Default(), the YAML file at explicitPath (or the default
// location) and LINECHAT_* variables, later layers winning. A missing file
// is created with the defaults so operators have something to edit. The
// returned string is the file path that was used.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	path := configPath(explicitPath)
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	if err != nil && !isMissing(err) {
		return cfg, path, fmt.Errorf("read config %s: %w", path, err)
	}
	if err != nil {
		seedConfigFile(logger, path, cfg)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("decode config: %w", err)
	}
	return cfg, path, nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// seedConfigFile writes cfg to path. Failure only costs the operator a
// template, so it is logged and ignored.
func seedConfigFile(logger *zerolog.Logger, path string, cfg Config) {
	err := writeConfig(path, cfg)
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not write default config")
		return
	}
	logger.Info().Str("path", path).Msg("wrote default config")
}

func configPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		return filepath.Join(dir, configFileName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, configFileName)
	}
	return configFileName
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
