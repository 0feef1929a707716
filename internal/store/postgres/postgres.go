// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) AddGatedChannel(ctx context.Context, guildID, channelID int64) error {
	return queryAddGatedChannel(ctx, s.db, guildID, channelID)
}

func (s *PostgresStore) RemoveGatedChannel(ctx context.Context, guildID, channelID int64) (bool, error) {
	return queryRemoveGatedChannel(ctx, s.db, guildID, channelID)
}

func (s *PostgresStore) ListGatedChannels(ctx context.Context, guildID int64) ([]int64, error) {
	return queryListGatedChannels(ctx, s.db, guildID)
}

func (s *PostgresStore) ListAllGatedChannels(ctx context.Context) ([]*model.GatedChannel, error) {
	return queryListAllGatedChannels(ctx, s.db)
}

// ReplaceGatedChannels swaps the guild's gate list inside a transaction so
// a failed prune never leaves the list half-written.
func (s *PostgresStore) ReplaceGatedChannels(ctx context.Context, guildID int64, channelIDs []int64) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.ReplaceGatedChannels(ctx, guildID, channelIDs)
	})
}

func (s *PostgresStore) GetVerification(ctx context.Context, userID int64) (*model.UserVerification, error) {
	return queryGetVerification(ctx, s.db, userID)
}

func (s *PostgresStore) SetPending(ctx context.Context, userID int64, day model.Date, affirmation string) error {
	return querySetPending(ctx, s.db, userID, day, affirmation)
}

func (s *PostgresStore) CompleteVerification(ctx context.Context, userID int64, day model.Date) error {
	return queryCompleteVerification(ctx, s.db, userID, day)
}

func (s *PostgresStore) DeleteVerification(ctx context.Context, userID int64) error {
	return queryDeleteVerification(ctx, s.db, userID)
}

func (s *PostgresStore) ClearStale(ctx context.Context, today model.Date) (int64, error) {
	return queryClearStale(ctx, s.db, today)
}

func (s *PostgresStore) ListVerifications(ctx context.Context) ([]*model.UserVerification, error) {
	return queryListVerifications(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) AddGatedChannel(ctx context.Context, guildID, channelID int64) error {
	return queryAddGatedChannel(ctx, s.tx, guildID, channelID)
}

func (s *txStore) RemoveGatedChannel(ctx context.Context, guildID, channelID int64) (bool, error) {
	return queryRemoveGatedChannel(ctx, s.tx, guildID, channelID)
}

func (s *txStore) ListGatedChannels(ctx context.Context, guildID int64) ([]int64, error) {
	return queryListGatedChannels(ctx, s.tx, guildID)
}

func (s *txStore) ListAllGatedChannels(ctx context.Context) ([]*model.GatedChannel, error) {
	return queryListAllGatedChannels(ctx, s.tx)
}

func (s *txStore) ReplaceGatedChannels(ctx context.Context, guildID int64, channelIDs []int64) error {
	return queryReplaceGatedChannels(ctx, s.tx, guildID, channelIDs)
}

func (s *txStore) GetVerification(ctx context.Context, userID int64) (*model.UserVerification, error) {
	return queryGetVerification(ctx, s.tx, userID)
}

func (s *txStore) SetPending(ctx context.Context, userID int64, day model.Date, affirmation string) error {
	return querySetPending(ctx, s.tx, userID, day, affirmation)
}

func (s *txStore) CompleteVerification(ctx context.Context, userID int64, day model.Date) error {
	return queryCompleteVerification(ctx, s.tx, userID, day)
}

func (s *txStore) DeleteVerification(ctx context.Context, userID int64) error {
	return queryDeleteVerification(ctx, s.tx, userID)
}

func (s *txStore) ClearStale(ctx context.Context, today model.Date) (int64, error) {
	return queryClearStale(ctx, s.tx, today)
}

func (s *txStore) ListVerifications(ctx context.Context) ([]*model.UserVerification, error) {
	return queryListVerifications(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
