package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	TransportRedis  = "redis"
	TransportOutbox = "outbox"
	TransportBoth   = "both"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"chatbox"`
	GRPCAddr    string `envconfig:"GRPC_ADDR" default:":50051"`
	HTTPAddr    string `envconfig:"OBS_HTTP_ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"chat.messages"`

	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	JaegerURL      string `envconfig:"JAEGER_URL"`

	// Bearer token verification. Empty secret trusts x-user-id.
	JWTSecret   string `envconfig:"AUTH_JWT_SECRET"`
	JWTIssuer   string `envconfig:"AUTH_JWT_ISSUER"`
	JWTAudience string `envconfig:"AUTH_JWT_AUDIENCE"`

	// Chat core switches.
	UsersTable         string `envconfig:"CHAT_USERS_TABLE"`
	BroadcastEnabled   bool   `envconfig:"CHAT_BROADCAST_ENABLED" default:"false"`
	BroadcastTransport string `envconfig:"CHAT_BROADCAST_TRANSPORT" default:"redis"`
	AutoPromotePublic  bool   `envconfig:"CHAT_AUTO_PROMOTE_PUBLIC" default:"true"`

	OutboxBatchSize  int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	OutboxPollDelay  time.Duration `envconfig:"OUTBOX_POLL_DELAY" default:"500ms"`
	OutboxMaxRetries int           `envconfig:"OUTBOX_MAX_RETRIES" default:"5"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.StorageDriver)
	}

	switch c.BroadcastTransport {
	case TransportRedis, TransportOutbox, TransportBoth:
	default:
		return fmt.Errorf("%w: unknown CHAT_BROADCAST_TRANSPORT %q", ErrInvalidConfig, c.BroadcastTransport)
	}

	if c.BroadcastEnabled && c.UsesRedisBroadcast() && c.RedisAddr == "" {
		return fmt.Errorf("%w: REDIS_ADDR is required for redis broadcasting", ErrInvalidConfig)
	}
	if c.BroadcastEnabled && c.UsesOutbox() && c.StorageDriver != DriverPostgres {
		return fmt.Errorf("%w: outbox broadcasting needs the postgres driver", ErrInvalidConfig)
	}
	if c.TracingEnabled && c.JaegerURL == "" {
		return fmt.Errorf("%w: JAEGER_URL is required when tracing is enabled", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) UsesRedisBroadcast() bool {
	return c.BroadcastTransport == TransportRedis || c.BroadcastTransport == TransportBoth
}

func (c *Config) UsesOutbox() bool {
	return c.BroadcastTransport == TransportOutbox || c.BroadcastTransport == TransportBoth
}
