package config

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// FrontendURL is the single allowed CORS origin and the base for OAuth
	// redirects back into the web client.
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Google GoogleConfig
	Tokens TokenConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=proveloce"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL, default=http://localhost:8080/api/auth/google/callback"`
}

type TokenConfig struct {
	// AccessTTLHours is the signed access token lifetime.
	AccessTTLHours int `env:"ACCESS_TTL_HOURS,  default=168"`
	// RefreshTTLHours is the opaque refresh token lifetime.
	RefreshTTLHours int `env:"REFRESH_TTL_HOURS, default=720"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}
