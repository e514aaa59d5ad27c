// Package config provides configuration management for the docket server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// Backend selects the persistence implementation.
type Backend string

const (
	// BackendPostgres stores records in a PostgreSQL database.
	BackendPostgres Backend = "postgres"
	// BackendSQLite stores records in a local SQLite database file.
	BackendSQLite Backend = "sqlite"
	// BackendFile stores records in a pair of JSON files.
	BackendFile Backend = "file"
)

// ServerConfig holds server configuration. Values come from an optional YAML
// file named by DOCKET_CONFIG, with environment variables taking precedence.
type ServerConfig struct {
	Environment Environment `yaml:"environment,omitempty"`
	ListenAddr  string      `yaml:"listen_addr,omitempty"`

	// Backend selects the storage implementation. When unset, postgres is
	// used if DatabaseURL is set, otherwise the flat-file backend.
	Backend     Backend `yaml:"backend,omitempty"`
	DatabaseURL string  `yaml:"database_url,omitempty"`
	DataDir     string  `yaml:"data_dir,omitempty"`

	// CORSOrigins is the origin allow-list. Empty allows all origins; the
	// docket front end is hosted separately.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`

	RateLimitRequests int64  `yaml:"rate_limit_requests,omitempty"`
	RateLimitPeriod   string `yaml:"rate_limit_period,omitempty"`
}

// LoadServerConfig builds the server configuration from the optional YAML
// file and environment variables.
func LoadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Environment:       EnvDevelopment,
		ListenAddr:        ":5000",
		DataDir:           "./data",
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
	}

	if path := os.Getenv("DOCKET_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}

	if env := Environment(os.Getenv("ENV")); env != "" {
		cfg.Environment = env
	}
	switch cfg.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		cfg.Environment = EnvDevelopment
	}

	if addr := os.Getenv("DOCKET_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	if dir := os.Getenv("DOCKET_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if backend := os.Getenv("DOCKET_BACKEND"); backend != "" {
		cfg.Backend = Backend(backend)
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitOrigins(origins)
	}
	if n := getEnvInt64("RATE_LIMIT_REQUESTS", 0); n > 0 {
		cfg.RateLimitRequests = n
	}
	if p := os.Getenv("RATE_LIMIT_PERIOD"); p != "" {
		cfg.RateLimitPeriod = p
	}

	if cfg.Backend == "" {
		if cfg.DatabaseURL != "" {
			cfg.Backend = BackendPostgres
		} else {
			cfg.Backend = BackendFile
		}
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c ServerConfig) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("backend %q requires DATABASE_URL", c.Backend)
		}
	case BackendSQLite, BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("backend %q requires a data directory", c.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}

// loadFile reads YAML configuration into cfg. A missing file is not an error;
// the env-only path stays usable.
func loadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// splitOrigins parses a comma-separated origin list.
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// getEnvInt64 reads an integer from an environment variable, returning the
// default if unset or invalid.
func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
