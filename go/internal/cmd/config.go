package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's file configuration. Everything has a default so
// the server runs without a config file at all.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Gateway struct {
		PingIntervalSeconds int `yaml:"ping_interval_seconds"`
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
		SendBufferSize      int `yaml:"send_buffer_size"`
	} `yaml:"gateway"`
	Outbox struct {
		Enabled             bool `yaml:"enabled"`
		PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
		BatchSize           int  `yaml:"batch_size"`
	} `yaml:"outbox"`
	Nats struct {
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	var config Config
	config.Server.Port = "8080"
	config.Outbox.Enabled = true
	return &config
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
