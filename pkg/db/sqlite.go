package db

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds configuration for a local SQLite warehouse.
type SQLiteConfig struct {
	// Path is a file path or ":memory:".
	Path string
}

// SQLiteClient is a warehouse in a local SQLite file.
type SQLiteClient struct {
	handle
	cfg SQLiteConfig
}

func NewSQLiteClient(cfg SQLiteConfig) *SQLiteClient {
	return &SQLiteClient{cfg: cfg}
}

// Connect opens the database file. The pool holds one connection: SQLite has a
// single writer and an in-memory database lives inside one connection.
func (c *SQLiteClient) Connect(ctx context.Context) error {
	if c.cfg.Path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	return c.open(ctx, "sqlite", "sqlite", c.cfg.Path, PoolConfig{MaxOpenConns: 1})
}
