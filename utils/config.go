package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/KumudBhatt/Code-Nexus/internal/config"
)

type Config struct {
	DomainName        string
	AllowedOrigins    []string
	StagingDir        string
	ExecTimeout       time.Duration
	MaxConcurrentRuns int
	MetricsToken      string
	TrustProxy        bool
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	return &Config{
		DomainName:        os.Getenv("DOMAIN_NAME"),
		AllowedOrigins:    envList("ALLOWED_ORIGINS", []string{"*"}),
		StagingDir:        envString("STAGING_DIR", "codes"),
		ExecTimeout:       envDuration("EXEC_TIMEOUT", config.DefaultExecTimeout),
		MaxConcurrentRuns: envInt("MAX_CONCURRENT_RUNS", config.DefaultMaxConcurrentRuns),
		MetricsToken:      os.Getenv("METRICS_TOKEN"),
		TrustProxy:        envBool("TRUST_PROXY", false),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %t", key, v, fallback)
		return fallback
	}
	return b
}
