package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PoolConfig tunes a sql.DB connection pool. Zero values keep driver defaults.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdle)
	}
	if p.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLife)
	}
}

// handle is the database/sql connection shared by the relational clients.
type handle struct {
	db *sql.DB
}

// open connects through driver and keeps the pool only if the server answers a ping.
func (h *handle) open(ctx context.Context, name, driver, dsn string, pool PoolConfig) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	pool.apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s: %w", name, err)
	}
	h.db = db
	return nil
}

// DB is nil until Connect succeeds.
func (h *handle) DB() *sql.DB {
	return h.db
}

func (h *handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}
