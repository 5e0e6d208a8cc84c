// Package config loads settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Upload  UploadConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port        string
	Mode        string // "debug" | "release" | "test"
	CORSOrigins []string
}

type StorageConfig struct {
	Backend     string // "sqlite" | "memory"
	DBPath      string
	DocumentKey string
}

type UploadConfig struct {
	MaxBytes int64
}

type LogConfig struct {
	Level  string
	Format string // "json" | "console"
	Path   string
}

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Load reads configuration with precedence environment > .env file > default.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	fileVals, err := godotenv.Read(envFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		fileVals = map[string]string{}
	}
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := fileVals[key]; v != "" {
			return v
		}
		return fallback
	}

	mode := getEnv("GIN_MODE", "debug")
	defaultFormat := "json"
	if mode == "debug" {
		defaultFormat = "console"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3210"),
			Mode:        mode,
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", BackendSQLite),
			DBPath:      getEnv("DB_PATH", "./eventure.db"),
			DocumentKey: getEnv("DOCUMENT_KEY", "data/modules.json"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultFormat),
			Path:   getEnv("LOG_FILE", ""),
		},
	}

	raw := getEnv("UPLOAD_MAX_BYTES", "10485760")
	cfg.Upload.MaxBytes, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES %q: %w", raw, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate lists every setting that is missing or out of range.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port == "" {
		problems = append(problems, "PORT is required")
	} else if n, err := strconv.Atoi(c.Server.Port); err != nil || n <= 0 || n > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %q is not a valid port", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("GIN_MODE %q must be debug, release or test", c.Server.Mode))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			problems = append(problems, "DB_PATH is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND %q must be sqlite or memory", c.Storage.Backend))
	}
	if c.Storage.DocumentKey == "" {
		problems = append(problems, "DOCUMENT_KEY is required")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "UPLOAD_MAX_BYTES must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
