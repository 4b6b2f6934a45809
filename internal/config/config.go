// Package config loads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Upload backends
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds every setting of the server. Field tags name the environment
// variables; command line flags override them.
type Config struct {
	// Postgres
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// HTTP
	Port              string        `envconfig:"PORT" default:"8081"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	MaxUploadBytes    int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Uploads
	UploadBackend string `envconfig:"UPLOAD_BACKEND" default:"local"`
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"image/"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT"`
	S3AccessKey   string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"S3_SECRET_KEY"`
	S3Bucket      string `envconfig:"S3_BUCKET" default:"pressroom-images"`
	S3UseSSL      bool   `envconfig:"S3_USE_SSL"`

	// Identity
	JWTSecret     string  `envconfig:"JWT_SECRET"`
	SessionSecret string  `envconfig:"SESSION_SECRET"`
	AdminUserIDs  []int64 `envconfig:"ADMIN_USER_IDS"`

	// Events
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"posts"`

	// Logging and tracing
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string `envconfig:"LOG_FORMAT" default:"json"`
	OTLPEndpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"pressroom"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.UploadBackend {
	case BackendLocal:
	case BackendS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			errs = append(errs, errors.New("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 upload backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("UPLOAD_BACKEND must be %q or %q, got %q", BackendLocal, BackendS3, c.UploadBackend))
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.RateLimitRequests < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must not be negative"))
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return ":" + c.Port
}
