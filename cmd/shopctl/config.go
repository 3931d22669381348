package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// cliConfig is the shopctl configuration.
type cliConfig struct {
	APIBaseURL      string
	APITimeout      time.Duration
	SessionPath     string
	AddressBaseURL  string
	AddressCacheTTL time.Duration
	LogLevel        string
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shopctl")
	}
	return ".shopctl"
}

// loadConfig reads config.toml from path, or from the user config directory
// when path is empty. SHOPCTL_ environment variables override the file
// (SHOPCTL_API_BASE_URL, SHOPCTL_LOG_LEVEL, ...).
func loadConfig(path string) (*cliConfig, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDir())
	}

	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("session.path", filepath.Join(configDir(), "session.json"))
	v.SetDefault("address.base_url", "https://provinces.open-api.vn/api/v1")
	v.SetDefault("address.cache_ttl", 24*time.Hour)
	v.SetDefault("log.level", "warn")

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !(path == "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &cliConfig{
		APIBaseURL:      v.GetString("api.base_url"),
		APITimeout:      v.GetDuration("api.timeout"),
		SessionPath:     v.GetString("session.path"),
		AddressBaseURL:  v.GetString("address.base_url"),
		AddressCacheTTL: v.GetDuration("address.cache_ttl"),
		LogLevel:        v.GetString("log.level"),
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	return cfg, nil
}
