package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	RedisURL        string `yaml:"redis_url"`
	BoltPath        string `yaml:"bolt_path"`
	ServerPort      string `yaml:"server_port"`
	Timeout         string `yaml:"timeout"`
	SourcesFile     string `yaml:"sources_file"`
	JWTSecret       string `yaml:"admin_jwt_secret"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// LoadFromFile loads config from a YAML file. Durations use Go syntax
// ("30s", "15m").
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c := &Config{
		DatabaseURL: f.DatabaseURL,
		RedisURL:    f.RedisURL,
		BoltPath:    f.BoltPath,
		ServerPort:  f.ServerPort,
		SourcesFile: f.SourcesFile,
		JWTSecret:   f.JWTSecret,
	}
	if c.Timeout, err = parseDuration("timeout", f.Timeout); err != nil {
		return nil, err
	}
	if c.RefreshInterval, err = parseDuration("refresh_interval", f.RefreshInterval); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}
