package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"

	"fleets-server/internal/shared/config"
	"fleets-server/internal/world"
)

// PostgresStore keeps the world as a JSONB document in a single-row table.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	logger := slog.With("component", "postgres_store", "operation", "connect")
	logger.Debug("Initializing database connection")

	logger.Info("Connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"user", cfg.User,
		"database", cfg.Name,
		"sslmode", cfg.SSLMode,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		logger.Error("Failed to open database connection",
			"error", err, "host", cfg.Host, "database", cfg.Name)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Debug("Testing database connection with ping")
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database",
			"error", err, "host", cfg.Host, "database", cfg.Name)
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully",
		"host", cfg.Host, "database", cfg.Name)

	return &PostgresStore{
		db:     sqlDB,
		logger: slog.With("component", "postgres_store"),
	}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*world.World, error) {
	logger := s.logger.With("operation", "load")

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM world_documents WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("World document not found")
			return nil, ErrWorldNotFound
		}
		logger.Error("Database error loading world", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	return decodeDocument(raw)
}

// Replace deletes the old document and inserts the new one inside one
// transaction.
func (s *PostgresStore) Replace(ctx context.Context, w *world.World) error {
	logger := s.logger.With("operation", "replace")

	raw, err := encodeDocument(w)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM world_documents`); err != nil {
		logger.Error("Failed to delete world document", "error", err)
		return fmt.Errorf("failed to delete world: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO world_documents (id, document, updated_at) VALUES (1, $1, NOW())`,
		string(raw),
	); err != nil {
		logger.Error("Failed to insert world document", "error", err)
		return fmt.Errorf("failed to insert world: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit world replacement", "error", err)
		return fmt.Errorf("failed to commit world: %w", err)
	}

	logger.Debug("World replaced", "size", humanize.Bytes(uint64(len(raw))), "players", len(w.Accounts))
	return nil
}

func (s *PostgresStore) Seed(ctx context.Context) (bool, error) {
	logger := s.logger.With("operation", "seed")

	raw, err := encodeDocument(world.New())
	if err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO world_documents (id, document) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		string(raw),
	)
	if err != nil {
		logger.Error("Failed to seed world document", "error", err)
		return false, fmt.Errorf("failed to seed world: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Error("Failed to get rows affected", "error", err)
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
