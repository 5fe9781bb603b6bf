// Package db opens and migrates NewsLook's single SQLite database file.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures how the SQLite file is opened.
type Config struct {
	Path            string
	BusyTimeout     time.Duration
	CacheSizePages  int // negative-KB convention isn't used here; this is a row count per spec's cache_size≈10000
	ReaderMaxOpen   int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the pragmas spec §4.4 mandates: WAL journal mode,
// synchronous=NORMAL, foreign_keys=ON, busy_timeout=5000ms, cache_size≈10000.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		BusyTimeout:     5 * time.Second,
		CacheSizePages:  10000,
		ReaderMaxOpen:   8,
		ConnMaxLifetime: 1 * time.Hour,
	}
}

// DB holds two pools over the same SQLite file: Writer is capped at a
// single connection so writes serialize in-process ahead of SQLite's own
// single-writer rule, and Reader is a small pool for concurrent queries.
// Both share the same WAL-mode file and pragmas.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// Open creates (if absent) and opens the SQLite file at cfg.Path,
// applying the configured pragmas to both pools and verifying
// connectivity.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dsn := dataSourceName(cfg)

	writer, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	reader, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(cfg.ReaderMaxOpen)
	reader.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := writer.PingContext(pingCtx); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}
	if err := reader.PingContext(pingCtx); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	slog.Info("sqlite store opened",
		slog.String("path", cfg.Path),
		slog.Duration("busy_timeout", cfg.BusyTimeout),
		slog.Int("cache_size_pages", cfg.CacheSizePages),
		slog.Int("reader_max_open", cfg.ReaderMaxOpen))

	return &DB{Writer: writer, Reader: reader, path: cfg.Path}, nil
}

// Close closes both pools.
func (d *DB) Close() error {
	werr := d.Writer.Close()
	rerr := d.Reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// Path returns the underlying file path this DB was opened against.
func (d *DB) Path() string {
	return d.path
}

func dataSourceName(cfg Config) string {
	v := url.Values{}
	v.Set("_journal_mode", "WAL")
	v.Set("_synchronous", "NORMAL")
	v.Set("_foreign_keys", "on")
	v.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds()))
	v.Set("_cache_size", fmt.Sprintf("%d", cfg.CacheSizePages))
	return cfg.Path + "?" + v.Encode()
}
