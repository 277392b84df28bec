package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when a key is not set.
const (
	DefaultServerPort  = "8080"
	DefaultTimeout     = 30 * time.Second
	DefaultSourcesFile = "config.json"
)

// Config holds application configuration. Every backend is optional; with
// none configured the service keeps its state in memory.
type Config struct {
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL        string        `yaml:"redis_url" env:"REDIS_URL"`
	BoltPath        string        `yaml:"bolt_path" env:"BOLT_PATH"`
	ServerPort      string        `yaml:"server_port" env:"SERVER_PORT"`
	Timeout         time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`
	SourcesFile     string        `yaml:"sources_file" env:"SOURCES_FILE"`
	JWTSecret       string        `yaml:"admin_jwt_secret" env:"ADMIN_JWT_SECRET"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL"`
}

// Load builds config from environment variables.
// When none of the backend URLs is set, .env.local and .env in the current
// directory are loaded first; variables already in the environment win.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("REDIS_URL") == "" && os.Getenv("BOLT_PATH") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		BoltPath:    os.Getenv("BOLT_PATH"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		SourcesFile: os.Getenv("SOURCES_FILE"),
		JWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
	}
	var err error
	if c.Timeout, err = parseDuration("FETCHER_TIMEOUT", os.Getenv("FETCHER_TIMEOUT")); err != nil {
		return nil, err
	}
	if c.RefreshInterval, err = parseDuration("REFRESH_INTERVAL", os.Getenv("REFRESH_INTERVAL")); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SourcesFile == "" {
		c.SourcesFile = DefaultSourcesFile
	}
	if c.RefreshInterval < 0 {
		c.RefreshInterval = 0
	}
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		// A missing file is not an error.
		_ = godotenv.Load(name)
	}
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
