package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds relational store connection settings
type Config struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// DefaultConfig returns connection pool defaults
func DefaultConfig() Config {
	return Config{
		MaxConns: 25,
		MinConns: 5,
		Timeout:  5 * time.Second,
	}
}

// Store provides access to accounts, credentials, and events
type Store struct {
	db *sql.DB
}

// New wraps an injected database handle. Used directly in tests and by Open.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying handle for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
