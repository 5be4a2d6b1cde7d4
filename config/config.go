package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Warehouse
	DatabaseURL   string `yaml:"database_url"`
	HistorySource string `yaml:"history_source"`
	HistoryTable  string `yaml:"history_table"`
	RetentionDays int    `yaml:"retention_days"`

	// Artifact stage
	StageBucket string `yaml:"stage_bucket"`
	StagePrefix string `yaml:"stage_prefix"`

	// Server
	ServerPort string `yaml:"server_port"`

	// AWS
	AWSRegion string `yaml:"aws_region"`
}

// Load loads configuration from environment variables, with an optional
// YAML overlay pointed to by CONFIG_FILE.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost/pipeline_analytics?sslmode=disable"),
		HistorySource: getEnv("HISTORY_SOURCE", "execution_history"),
		HistoryTable:  getEnv("HISTORY_TABLE", "nxf_execution_history"),
		RetentionDays: getEnvInt("RETENTION_DAYS", 7),
		StageBucket:   getEnv("STAGE_BUCKET", "nxf-workdir"),
		StagePrefix:   getEnv("STAGE_PREFIX", ""),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
