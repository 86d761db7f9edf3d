package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// PostgresClient, SupabaseClient and SQLiteClient can be used interchangeably.
type DBProvider interface {
	DB() *sql.DB
}

// RelationalClient is a DBProvider with a connection lifecycle.
type RelationalClient interface {
	DBProvider
	Connect(ctx context.Context) error
	Close() error
}

// RelationalConfig selects and configures the relational store.
type RelationalConfig struct {
	// DSN is postgres://..., postgresql://..., sqlite://<path> or sqlite::memory:.
	DSN string

	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string
}

// OpenRelational picks a client from the DSN scheme and connects it.
// A DSN on a supabase.co host, or an empty DSN with a Supabase URL, uses the
// Supabase client.
func OpenRelational(ctx context.Context, cfg RelationalConfig) (RelationalClient, error) {
	client, err := newRelational(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if client.DB() == nil {
		_ = client.Close()
		return nil, fmt.Errorf("relational store has no direct database connection")
	}
	return client, nil
}

func newRelational(cfg RelationalConfig) (RelationalClient, error) {
	dsn := strings.TrimSpace(cfg.DSN)

	switch {
	case dsn == "" && cfg.SupabaseURL != "":
		return NewSupabaseClient(SupabaseConfig{
			ProjectURL: cfg.SupabaseURL,
			APIKey:     cfg.SupabaseKey,
			Password:   cfg.SupabasePassword,
		}), nil

	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteClient(SQLiteConfig{Path: strings.TrimPrefix(dsn, "sqlite://")}), nil

	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteClient(SQLiteConfig{Path: strings.TrimPrefix(dsn, "sqlite:")}), nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		if strings.Contains(dsn, ".supabase.co") || strings.Contains(dsn, ".supabase.com") {
			return NewSupabaseClient(SupabaseConfig{
				DSN:        dsn,
				ProjectURL: cfg.SupabaseURL,
				APIKey:     cfg.SupabaseKey,
			}), nil
		}
		return NewPostgresClient(PostgresConfig{DSN: dsn}), nil

	case dsn == "":
		return nil, fmt.Errorf("relational DSN is required")

	default:
		return nil, fmt.Errorf("unsupported relational DSN scheme: %q", dsn)
	}
}
