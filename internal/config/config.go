package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port              int              `json:"port" env:"PORT"`
	JWTSecret         string           `json:"jwt_secret" env:"JWT_SECRET"`
	JWTTTLMinutes     int              `json:"jwt_ttl_minutes" env:"JWT_TTL_MINUTES"`
	BcryptCost        int              `json:"bcrypt_cost" env:"BCRYPT_COST"`
	PostsPerPage      int              `json:"posts_per_page" env:"POSTS_PER_PAGE"`
	UploadMaxBytes    int64            `json:"upload_max_bytes" env:"UPLOAD_MAX_BYTES"`
	UploadRateLimitMs int              `json:"upload_rate_limit_ms" env:"UPLOAD_RATE_LIMIT_MS"`
	CORSAllowOrigins  []string         `json:"cors_allow_origins" env:"CORS_ALLOW_ORIGINS"`
	Database          DatabaseConfig   `json:"database" envPrefix:"DB_"`
	LogConfig         logger.LogConfig `json:"log_config"`
	FileStore         FileStoreConfig  `json:"file_store"`
}

type DatabaseConfig struct {
	// Driver is one of mongo, sqlite or postgres.
	Driver string `json:"driver" env:"DRIVER"`
	URI    string `json:"uri" env:"URI"`
	// Name is the mongo database name; unused by sql drivers.
	Name string `json:"name" env:"NAME"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	envPrefix = "POSTBOARD_"

	defaultJWTTTLMinutes  = 180
	defaultBcryptCost     = 12
	defaultPostsPerPage   = 2
	defaultUploadMaxBytes = 10 * 1024 * 1024
)

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTTTLMinutes <= 0 {
		cfg.JWTTTLMinutes = defaultJWTTTLMinutes
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = defaultPostsPerPage
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = defaultUploadMaxBytes
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mongo"
	}
	switch cfg.Database.Driver {
	case "mongo":
		if cfg.Database.URI == "" {
			return fmt.Errorf("database.uri is required")
		}
		if cfg.Database.Name == "" {
			cfg.Database.Name = "postboard"
		}
	case "sqlite", "postgres":
		if cfg.Database.URI == "" {
			return fmt.Errorf("database.uri is required")
		}
	default:
		return fmt.Errorf("database.driver must be mongo, sqlite or postgres")
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		if cfg.FileStore.Data == nil {
			cfg.FileStore.Data = map[string]interface{}{"dir": "images"}
		}
	}
	return nil
}
