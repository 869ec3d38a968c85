package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FEEDHARVEST_"

// ParseConfig 在默认配置之上解析 YAML(或 JSON)配置
func ParseConfig(byteConfig []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(byteConfig, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.absPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the config at path (empty path means defaults only), applies
// .env and FEEDHARVEST_* overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg, err = ParseConfig(data)
		if err != nil {
			return nil, err
		}
	}
	// .env 不存在时忽略
	_ = godotenv.Load()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.absPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "DRIVER"); v != "" {
		c.Driver = v
	}
	if v := os.Getenv(envPrefix + "CONTROL_URL"); v != "" {
		c.Rod.ControlURL = v
	}
	if v := os.Getenv(envPrefix + "USER_DATA_DIR"); v != "" {
		c.Rod.UserDataDir = v
		c.Chromedp.UserDataDir = v
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "ES_ADDRESS"); v != "" {
		c.Elasticsearch.Address = v
		c.Elasticsearch.Enabled = true
	}
	if v := os.Getenv(envPrefix + "ES_USERNAME"); v != "" {
		c.Elasticsearch.Username = v
	}
	if v := os.Getenv(envPrefix + "ES_PASSWORD"); v != "" {
		c.Elasticsearch.Password = v
	}

	ints := map[string]*int{
		"TARGET":            &c.Harvest.Target,
		"NAV_RETRIES":       &c.Harvest.NavRetries,
		"SCAN_CHECKS":       &c.Harvest.ScanChecks,
		"MAX_SCROLL_ROUNDS": &c.Harvest.MaxScrollRounds,
		"STALE_ROUNDS":      &c.Harvest.StaleRounds,
		"PARALLELISM":       &c.Batch.Parallelism,
	}
	for key, dst := range ints {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"NAV_DELAY":     &c.Harvest.NavDelay,
		"SCAN_DELAY":    &c.Harvest.ScanDelay,
		"SCROLL_SETTLE": &c.Harvest.ScrollSettle,
	}
	for key, dst := range durations {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}
	return nil
}

func (c *Config) absPaths() error {
	for _, p := range []*string{&c.Rod.UserDataDir, &c.Chromedp.UserDataDir} {
		if *p == "" {
			continue
		}
		absPath, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = absPath
	}
	return nil
}
