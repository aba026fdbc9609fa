package graphstore

import (
	"os"
)

// Config holds the graph store configuration
type Config struct {
	URL            string
	AuthToken      string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxIdleSec int
	ConnMaxLifeSec int
}

// NewConfig creates a new Config from environment variables
func NewConfig() *Config {
	url := os.Getenv("LIBSQL_URL")
	if url == "" {
		url = "file:./taxonomy.db"
	}

	authToken := os.Getenv("LIBSQL_AUTH_TOKEN")

	return &Config{
		URL:       url,
		AuthToken: authToken,
	}
}
