package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL        string
	HTTPListenAddr     string
	MetricsListenAddr  string
	MCPListenAddr      string
	APIURL             string
	LogLevel           string
	ServiceName        string
	StepTimeoutMinutes int
	DelaySweepSeconds  int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		HTTPListenAddr:     getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr:  getEnv("METRICS_LISTEN_ADDR", ":9090"),
		MCPListenAddr:      getEnv("MCP_LISTEN_ADDR", ":8091"),
		APIURL:             getEnv("API_URL", "http://localhost:8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ServiceName:        getEnv("SERVICE_NAME", "flowline"),
		StepTimeoutMinutes: getEnvInt("STEP_TIMEOUT_MINUTES", 10),
		DelaySweepSeconds:  getEnvInt("DELAY_SWEEP_SECONDS", 30),
	}

	return cfg, nil
}

// Validate checks that the settings the given binary depends on are present.
func (c *Config) Validate(binary string) error {
	switch binary {
	case "flowline-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", binary)
		}
	case "mcp-server":
		if c.APIURL == "" {
			return fmt.Errorf("API_URL is required for %s", binary)
		}
	}
	if c.StepTimeoutMinutes <= 0 {
		return fmt.Errorf("STEP_TIMEOUT_MINUTES must be positive")
	}
	if c.DelaySweepSeconds <= 0 {
		return fmt.Errorf("DELAY_SWEEP_SECONDS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
