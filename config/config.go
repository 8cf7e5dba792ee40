package config

import (
	"errors"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// minTokenKeyLen is the smallest signing key accepted for HS512 (512 bits).
const minTokenKeyLen = 64

type Config struct {
	AppName      string `env:"AUTH_APP_NAME" envDefault:"social-auth"`
	AppEnv       string `env:"AUTH_APP_ENV" envDefault:"local"`
	HTTPHost     string `env:"AUTH_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort     string `env:"AUTH_HTTP_PORT" envDefault:"8080"`
	HTTPBasePath string `env:"AUTH_HTTP_BASE_PATH" envDefault:"/api"`

	DBHost     string `env:"AUTH_DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"AUTH_DB_PORT" envDefault:"5432"`
	DBUser     string `env:"AUTH_DB_USER" envDefault:"app"`
	DBPassword string `env:"AUTH_DB_PASSWORD" envDefault:"app_password"`
	DBName     string `env:"AUTH_DB_NAME" envDefault:"socialauth"`
	DBSSLMode  string `env:"AUTH_DB_SSLMODE" envDefault:"disable"`

	TokenKey   string        `env:"AUTH_TOKEN_KEY"`
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"10m"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`

	FacebookAppID     string        `env:"AUTH_FACEBOOK_APP_ID"`
	FacebookAppSecret string        `env:"AUTH_FACEBOOK_APP_SECRET"`
	FacebookGraphURL  string        `env:"AUTH_FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com"`
	FacebookTimeout   time.Duration `env:"AUTH_FACEBOOK_TIMEOUT" envDefault:"5s"`

	RefreshCookieName   string `env:"AUTH_REFRESH_COOKIE_NAME" envDefault:"refreshToken"`
	RefreshCookieSecure bool   `env:"AUTH_REFRESH_COOKIE_SECURE" envDefault:"true"`

	NATSURL                   string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSVerifySubject         string `env:"NATS_SUBJECT_VERIFY_SESSION" envDefault:"auth.verifySession"`
	NATSAccountCreatedSubject string `env:"NATS_SUBJECT_ACCOUNT_CREATED" envDefault:"auth.accountCreated"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if len(cfg.TokenKey) < minTokenKeyLen {
		return nil, errors.New("AUTH_TOKEN_KEY must be at least 64 bytes")
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
