// Package postgres is a core.Store backed by a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/store/migrate"
	"github.com/JonMunkholm/clientdesk/internal/store/postgres/migrations"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var clientColumns = []string{"id", "company_name", "postal_code", "city", "owner_id", "created_at"}

// Store persists clients in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open creates a pool from cfg and verifies the connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes all pool connections.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate applies all pending migrations, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	all, err := migrate.Load(migrations.FS)
	if err != nil {
		return err
	}
	for _, m := range migrate.Pending(all, current) {
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migrate.Migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing migration %s: %w", m.Name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
		return fmt.Errorf("recording migration %s: %w", m.Name, err)
	}
	return tx.Commit(ctx)
}

// InsertBatch copies all clients into the table in one transaction.
// A unique violation aborts the whole batch and is reported as
// core.ErrDuplicateKey.
func (s *Store) InsertBatch(ctx context.Context, clients []core.NewClient) ([]core.Client, error) {
	if len(clients) == 0 {
		return nil, nil
	}

	out, rows := buildRows(clients, time.Now().UTC())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"clients"}, clientColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return nil, fmt.Errorf("copy clients: %w", mapError(err))
	}
	if n != int64(len(rows)) {
		return nil, fmt.Errorf("copy clients: inserted %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", mapError(err))
	}
	return out, nil
}

// buildRows assigns ids and timestamps and lays the clients out in
// clientColumns order.
func buildRows(clients []core.NewClient, now time.Time) ([]core.Client, [][]any) {
	out := make([]core.Client, len(clients))
	rows := make([][]any, len(clients))
	for i, c := range clients {
		out[i] = core.Client{
			ID:          uuid.New(),
			CompanyName: c.CompanyName,
			PostalCode:  c.PostalCode,
			City:        c.City,
			OwnerID:     c.OwnerID,
			CreatedAt:   now,
		}
		rows[i] = []any{out[i].ID, c.CompanyName, c.PostalCode, c.City, c.OwnerID, now}
	}
	return out, rows
}

// mapError turns a unique violation into core.ErrDuplicateKey, keeping the
// server's detail for the user message.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		detail := pgErr.Detail
		if detail == "" {
			detail = pgErr.Message
		}
		return fmt.Errorf("%w: %s", core.ErrDuplicateKey, detail)
	}
	return err
}
