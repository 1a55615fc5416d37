package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	RedisAddr string `envconfig:"REDIS_ADDR" required:"true"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	RabbitMQURL string `envconfig:"RABBITMQ_URL" required:"true"`

	PSQLHost     string `envconfig:"PSQL_HOST" required:"true"`
	PSQLPort     int    `envconfig:"PSQL_PORT" default:"5432"`
	PSQLUser     string `envconfig:"PSQL_USER" required:"true"`
	PSQLPassword string `envconfig:"PSQL_PASSWORD" required:"true"`
	PSQLDBName   string `envconfig:"PSQL_DB" required:"true"`
	PSQLSSLMode  string `envconfig:"PSQL_SSLMODE" default:"disable"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	StorageRoot string        `envconfig:"STORAGE_ROOT" default:"storage"`
	ProjectTTL  time.Duration `envconfig:"PROJECT_TTL" default:"24h"`

	RateLimit       int           `envconfig:"RATE_LIMIT" default:"100"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	QueueKeepCount  int64         `envconfig:"QUEUE_KEEP_COUNT" default:"5"`
}

// Load reads .env.local when present and then parses the environment.
// Missing required variables fail fast.
func Load() (*Config, error) {
	_ = godotenv.Load("./.env.local")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
