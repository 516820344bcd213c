package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds the runtime configuration of the invoice client.
type Config struct {
	// APIBaseURL is the root of the invoice API. Defaults to the local
	// development endpoint.
	APIBaseURL string `env:"API_BASE_URL,default=http://localhost:5000/api"`

	// HTTPTimeout bounds each in-flight request.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT,default=10s"`

	// SessionFile is the path of the persisted session store. When empty a
	// per-user default under the OS config directory is used.
	SessionFile string `env:"SESSION_FILE"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file and then the environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}
	return cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "invoicectl", "session.json")
}
