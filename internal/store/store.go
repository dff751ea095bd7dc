// Package store opens the client store selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/store/postgres"
	"github.com/JonMunkholm/clientdesk/internal/store/sqlite"
)

// Backend is a client store with lifecycle operations.
type Backend interface {
	core.Store
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
)

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
