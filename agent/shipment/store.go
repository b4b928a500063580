package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is the persistence contract shared by every chat turn.
// Create is atomic per record: List never observes a partially written record.
type Store interface {
	Create(ctx context.Context, rec NewRecord) (Record, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]Record, error)
	UpdateStatus(ctx context.Context, id string, status string) (Record, error)
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverUpstash  = "upstash"
)

type Config struct {
	Driver         string        `envconfig:"DRIVER" default:"memory"`
	DSN            string        `envconfig:"DSN"`
	RedisAddr      string        `split_words:"true" default:"localhost:6379"`
	RedisPassword  string        `split_words:"true"`
	RedisDB        int           `split_words:"true" default:"0"`
	UpstashURL     string        `split_words:"true"`
	UpstashToken   string        `split_words:"true"`
	UpstashTimeout time.Duration `split_words:"true" default:"10s"`
	KeyPrefix      string        `split_words:"true" default:"cargo:shipment:"`
	AutoMigrate    bool          `split_words:"true" default:"true"`
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverMemory, DriverRedis:
		return nil
	case DriverPostgres, DriverSQLite:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("store dsn is required for driver=%s", c.Driver)
		}
		return nil
	case DriverUpstash:
		if strings.TrimSpace(c.UpstashURL) == "" || strings.TrimSpace(c.UpstashToken) == "" {
			return errors.New("upstash url and token are required for driver=upstash")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store driver=%q", c.Driver)
	}
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.AutoMigrate)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, cfg.AutoMigrate)
	case DriverRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, WithKeyPrefix(cfg.KeyPrefix))
	case DriverUpstash:
		return NewUpstashStore(cfg.UpstashURL, cfg.UpstashToken, cfg.UpstashTimeout, WithUpstashKeyPrefix(cfg.KeyPrefix))
	default:
		return NewMemoryStore(), nil
	}
}

func validateStatus(id string, status string) (string, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("%w: id is empty", ErrInvalidRecord)
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return "", "", fmt.Errorf("%w: status is empty", ErrInvalidRecord)
	}
	return id, status, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
