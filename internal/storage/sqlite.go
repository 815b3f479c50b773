package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"fleets-server/internal/world"
)

// SQLiteStore keeps the world as a zstd-compressed JSON blob in a
// single-row table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	logger := slog.With("component", "sqlite_store", "path", path)
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer keeps the delete+insert replace serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite store ready")
	return &SQLiteStore{db: db, logger: logger}, nil
}

func initSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS world_documents (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite init %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*world.World, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM world_documents WHERE id = 1`).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorldNotFound
		}
		return nil, fmt.Errorf("failed to load world: %w", err)
	}
	return decodeCompressed(blob)
}

func (s *SQLiteStore) Replace(ctx context.Context, w *world.World) error {
	blob, err := encodeCompressed(w)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM world_documents`); err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO world_documents (id, document, updated_at) VALUES (1, ?, ?)`,
		blob, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to insert world: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit world: %w", err)
	}

	s.logger.Debug("World replaced", "size", humanize.Bytes(uint64(len(blob))), "players", len(w.Accounts))
	return nil
}

func (s *SQLiteStore) Seed(ctx context.Context) (bool, error) {
	blob, err := encodeCompressed(world.New())
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO world_documents (id, document, updated_at) VALUES (1, ?, ?)`,
		blob, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("failed to seed world: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
