package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`

	DBDriver string `env:"DB_DRIVER, default=postgres"`

	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Clerk    ClerkConfig
	S3       S3Config
	Otel     OtelConfig
}

type PostgresConfig struct {
	URL         string `env:"DATABASE_URL"`
	MaxConns    int32  `env:"DATABASE_MAX_CONNS,    default=10"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE, default=true"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=volunteer_hours"`
}

// RedisConfig configures the identity-profile cache. An empty Addr turns
// the cache off.
type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,          default=0"`
	ProfileTTL time.Duration `env:"PROFILE_CACHE_TTL, default=5m"`
}

type ClerkConfig struct {
	SecretKey         string   `env:"CLERK_SECRET_KEY"`
	APIURL            string   `env:"CLERK_API_URL, default=https://api.clerk.com/v1"`
	JWKSURL           string   `env:"CLERK_JWKS_URL"`
	Issuer            string   `env:"CLERK_ISSUER"`
	AuthorizedParties []string `env:"CLERK_AUTHORIZED_PARTIES"`
}

type S3Config struct {
	Region     string `env:"AWS_REGION, default=us-east-1"`
	BucketName string `env:"AWS_S3_BUCKET_NAME"`
	Endpoint   string `env:"AWS_S3_ENDPOINT"`
}

// OtelConfig leaves tracing off when Endpoint is empty.
type OtelConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=volunteer-api"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through an arbitrary lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when DB_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMongo, c.DBDriver))
	}

	if c.Clerk.SecretKey == "" {
		errs = append(errs, errors.New("CLERK_SECRET_KEY is required"))
	}
	if c.S3.BucketName == "" {
		errs = append(errs, errors.New("AWS_S3_BUCKET_NAME is required"))
	}
	if c.Redis.Addr != "" && c.Redis.ProfileTTL <= 0 {
		errs = append(errs, errors.New("PROFILE_CACHE_TTL must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
