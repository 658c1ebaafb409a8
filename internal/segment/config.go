package segment

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultOpacity = 128
	DefaultTimeout = 60 * time.Second
)

// Config é lida do ambiente da função.
type Config struct {
	OutputBucket string
	OutputPrefix string
	Endpoint     string
	Timeout      time.Duration
	Opacity      int
	LogLevel     string
}

// LoadConfig lê a configuração das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		OutputBucket: getEnv("OUTPUT_BUCKET", ""),
		OutputPrefix: getEnv("OUTPUT_PREFIX", ""),
		Endpoint:     getEnv("SEGMENTATION_ENDPOINT", ""),
		Timeout:      getEnvDuration("SEGMENTATION_TIMEOUT", DefaultTimeout),
		Opacity:      getEnvInt("OVERLAY_OPACITY", DefaultOpacity),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
	if cfg.OutputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("SEGMENTATION_ENDPOINT is required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration aceita uma duração Go ("90s") ou um número de segundos.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	return def
}
