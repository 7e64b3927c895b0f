// Package config builds the effective settings for every subcommand:
// built-in defaults, then ~/.endangered-ocean/config.yaml, then OCEAN_*
// environment variables, with a .env file honored for local dev.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every tunable for the scraper, store, and API.
type Config struct {
	Scrape ScrapeConfig `yaml:"scrape" mapstructure:"scrape"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	DB     DBConfig     `yaml:"db" mapstructure:"db"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
}

// ScrapeConfig tunes the NOAA pipeline.
type ScrapeConfig struct {
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Delay       time.Duration `yaml:"delay" mapstructure:"delay"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers     int           `yaml:"workers" mapstructure:"workers"`
	Limit       int           `yaml:"limit" mapstructure:"limit"`
	Cache       bool          `yaml:"cache" mapstructure:"cache"`
	CheckRobots bool          `yaml:"check_robots" mapstructure:"check_robots"`
	HTTPProxy   string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// DataConfig locates artifacts and caches.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DBConfig carries the Postgres connection string. DATABASE_URL is the
// conventional source and wins over the config file.
type DBConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// APIConfig tunes the read API server.
type APIConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
	CORSOrigins string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// EnrichConfig tunes the optional blurb generation.
type EnrichConfig struct {
	OpenAIKey string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxWords  int    `yaml:"max_words" mapstructure:"max_words"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			UserAgent:   "endangered-ocean/0.1 (local dev)",
			Delay:       600 * time.Millisecond,
			Timeout:     30 * time.Second,
			Workers:     4,
			Limit:       0,
			Cache:       true,
			CheckRobots: true,
		},
		Data: DataConfig{
			Dir: "data",
		},
		API: APIConfig{
			Addr:        ":8000",
			MetricsAddr: ":9091",
			CORSOrigins: "http://localhost:3000,http://127.0.0.1:3000",
		},
		Enrich: EnrichConfig{
			Model:    "gpt-4o-mini",
			MaxWords: 60,
		},
	}
}

// Load builds the effective configuration from viper's current state.
// The config file itself is discovered by the CLI before this runs.
func Load() (*Config, error) {
	// .env in the working directory; the real environment wins.
	_ = godotenv.Load()

	v := viper.GetViper()
	v.SetEnvPrefix("OCEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvAliases(v)

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// CacheDir is where fetched NOAA pages are kept between runs.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Data.Dir, "cache", "noaa")
}

// ImageCacheDir is where background-removed images are kept.
func (c *Config) ImageCacheDir() string {
	return filepath.Join(c.Data.Dir, "cache", "bg_remove")
}

// ArtifactPath resolves an artifact filename under the data directory.
func (c *Config) ArtifactPath(name string) string {
	return filepath.Join(c.Data.Dir, name)
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("scrape.user_agent", d.Scrape.UserAgent)
	v.SetDefault("scrape.delay", d.Scrape.Delay)
	v.SetDefault("scrape.timeout", d.Scrape.Timeout)
	v.SetDefault("scrape.workers", d.Scrape.Workers)
	v.SetDefault("scrape.limit", d.Scrape.Limit)
	v.SetDefault("scrape.cache", d.Scrape.Cache)
	v.SetDefault("scrape.check_robots", d.Scrape.CheckRobots)
	v.SetDefault("scrape.http_proxy", d.Scrape.HTTPProxy)
	v.SetDefault("scrape.https_proxy", d.Scrape.HTTPSProxy)
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("db.url", d.DB.URL)
	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("api.metrics_addr", d.API.MetricsAddr)
	v.SetDefault("api.cors_origins", d.API.CORSOrigins)
	v.SetDefault("enrich.openai_api_key", d.Enrich.OpenAIKey)
	v.SetDefault("enrich.model", d.Enrich.Model)
	v.SetDefault("enrich.max_words", d.Enrich.MaxWords)
}

// bindEnvAliases maps conventional environment variables onto config
// keys so DATABASE_URL and OPENAI_API_KEY work without the OCEAN_
// prefix.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("db.url", "OCEAN_DB_URL", "DATABASE_URL")
	_ = v.BindEnv("enrich.openai_api_key", "OCEAN_ENRICH_OPENAI_API_KEY", "OPENAI_API_KEY")
}
