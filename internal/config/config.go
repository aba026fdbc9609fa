// Package config loads the service configuration from layered sources:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skillcompass/config.yaml",
	"/etc/skillcompass/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the full service configuration tree.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Index   IndexConfig   `koanf:"index"`
	Cache   CacheConfig   `koanf:"cache"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig covers the HTTP API and MCP transports.
type ServerConfig struct {
	HTTPAddr        string        `koanf:"http_addr" validate:"required"`
	MCPTransport    string        `koanf:"mcp_transport" validate:"oneof=stdio sse none"`
	SSEAddr         string        `koanf:"sse_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig covers the libSQL taxonomy database.
type StoreConfig struct {
	URL            string `koanf:"url" validate:"required"`
	AuthToken      string `koanf:"auth_token"`
	MaxOpenConns   int    `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns   int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxIdleSec int    `koanf:"conn_max_idle_sec" validate:"min=0"`
	ConnMaxLifeSec int    `koanf:"conn_max_life_sec" validate:"min=0"`
}

// IndexConfig points at the prebuilt vector index artifact pair.
type IndexConfig struct {
	VectorPath  string `koanf:"vector_path" validate:"required"`
	MappingPath string `koanf:"mapping_path" validate:"required"`
}

// CacheConfig covers the optional Redis embedding cache. An empty address
// disables caching entirely.
type CacheConfig struct {
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"min=0"`
	TTL           time.Duration `koanf:"ttl"`
}

// LoggingConfig tunes the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			MCPTransport:    "none",
			SSEAddr:         ":8081",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			URL:            "file:./taxonomy.db",
			MaxOpenConns:   10,
			MaxIdleConns:   5,
			ConnMaxIdleSec: 60,
			ConnMaxLifeSec: 300,
		},
		Index: IndexConfig{
			VectorPath:  "./index/occupations.scvx",
			MappingPath: "./index/occupations.csv",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// configSections are the recognized top-level env var prefixes:
// SERVER_HTTP_ADDR -> server.http_addr, STORE_URL -> store.url.
var configSections = []string{"SERVER", "STORE", "INDEX", "CACHE", "LOGGING"}

func envTransform(key string) string {
	for _, section := range configSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return strings.ToLower(section) + "." + strings.ToLower(key[len(prefix):])
		}
	}
	// Unrecognized variables (PATH, HOME, provider keys) are ignored.
	return ""
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load builds the configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
