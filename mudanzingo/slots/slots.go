// Package slots provides the key-value storage underneath the record stores.
// A slot holds one serialized document (a JSON array of records for entity
// kinds) and is only ever replaced whole.
package slots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// ModifyFunc receives the current payload of a slot (nil when the slot is
// absent) and returns the payload to store. Returning a nil payload leaves
// the slot untouched; returning an error aborts without writing.
type ModifyFunc func(current []byte) ([]byte, error)

// Slots is a store of named payloads.
type Slots interface {
	// Load returns the payload stored under key, or nil when the slot is absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Modify atomically reads, transforms and writes one slot. Concurrent
	// Modify calls on the same key never observe each other's partial state.
	Modify(ctx context.Context, key string, fn ModifyFunc) error

	// Close releases the backend.
	Close() error
}

// Driver names accepted by Config.Driver.
const (
	DriverFile      = "file"
	DriverMemory    = "memory"
	DriverIndexedDB = "indexeddb"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverS3        = "s3"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Config selects and configures a backend.
type Config struct {
	Driver      string   `mapstructure:"driver"`
	Dir         string   `mapstructure:"dir"`
	SQLitePath  string   `mapstructure:"sqlite_path"`
	PostgresDSN string   `mapstructure:"postgres_dsn"`
	IndexedDB   string   `mapstructure:"indexeddb"`
	S3          S3Config `mapstructure:"s3"`
}

// S3Config configures the s3 driver. Without static keys the default AWS
// credential chain is used.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Open creates the backend named by cfg.Driver. An empty driver selects the
// file driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Slots, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", driverName(cfg.Driver))

	switch driverName(cfg.Driver) {
	case DriverFile:
		dir := cfg.Dir
		if dir == "" {
			dir = "data"
		}
		return NewFileSlots(dir, WithLogger(logger))
	case DriverMemory:
		return NewMemorySlots(WithLogger(logger))
	case DriverIndexedDB:
		return openIndexedDB(ctx, cfg.IndexedDB, logger)
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Dir, "mudanzingo.db")
		}
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		return OpenS3(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func driverName(name string) string {
	if name == "" {
		return DriverFile
	}
	return name
}
