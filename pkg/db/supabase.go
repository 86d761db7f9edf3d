package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig describes a Supabase-hosted warehouse. Either DSN, or
// ProjectURL together with Password, must be set.
type SupabaseConfig struct {
	// DSN is a postgres:// URL for the project database or its pooler.
	DSN string

	// ProjectURL is https://<project-ref>.supabase.co.
	ProjectURL string
	// Password is the database password, not the API key.
	Password string
	// APIKey is optional. When set, the project's REST API is available
	// through RowCount and PingREST.
	APIKey string

	Pool PoolConfig
}

// ErrNoREST is returned by the REST methods when no API key is configured.
var ErrNoREST = errors.New("supabase REST API not configured")

// SupabaseClient is a PostgresClient variant for Supabase projects. The
// warehouse is written through the direct Postgres connection; the REST
// client reads back what the project API exposes.
type SupabaseClient struct {
	handle
	cfg  SupabaseConfig
	rest *supabase.Client
}

func NewSupabaseClient(cfg SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{cfg: cfg}
}

func (c *SupabaseClient) Connect(ctx context.Context) error {
	dsn, err := c.cfg.resolveDSN()
	if err != nil {
		return err
	}
	if c.cfg.APIKey != "" {
		if err := c.connectREST(); err != nil {
			return err
		}
	}

	dsn, err = poolerSafe(dsn)
	if err != nil {
		return err
	}

	return c.open(ctx, "supabase postgres", "pgx", dsn, c.cfg.Pool)
}

func (c *SupabaseClient) connectREST() error {
	if c.cfg.ProjectURL == "" {
		return fmt.Errorf("supabase API key given without a project URL")
	}
	rest, err := supabase.NewClient(strings.TrimRight(c.cfg.ProjectURL, "/"), c.cfg.APIKey, nil)
	if err != nil {
		return fmt.Errorf("supabase REST client: %w", err)
	}
	c.rest = rest
	return nil
}

// HasREST reports whether an API key was configured.
func (c *SupabaseClient) HasREST() bool {
	return c.rest != nil
}

// RowCount counts a table's rows through the project REST API (a HEAD request
// with an exact count). It fails if the key cannot read the table.
func (c *SupabaseClient) RowCount(ctx context.Context, table string) (int64, error) {
	if c.rest == nil {
		return 0, ErrNoREST
	}

	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, n, err := c.rest.From(table).Select("*", "exact", true).Execute()
		done <- result{n, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return 0, fmt.Errorf("supabase REST count %s: %w", table, r.err)
		}
		return r.n, nil
	}
}

// PingREST checks that the REST API serves the channels table.
func (c *SupabaseClient) PingREST(ctx context.Context) error {
	_, err := c.RowCount(ctx, "channels")
	return err
}

func (cfg SupabaseConfig) resolveDSN() (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.ProjectURL == "" || cfg.Password == "" {
		return "", fmt.Errorf("supabase needs a DSN, or a project URL and database password")
	}
	ref, err := projectRef(cfg.ProjectURL)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword("postgres", cfg.Password),
		Host:     "db." + ref + ".supabase.co:5432",
		Path:     "/postgres",
		RawQuery: "sslmode=require",
	}
	return u.String(), nil
}

// projectRef extracts <ref> from https://<ref>.supabase.co.
func projectRef(projectURL string) (string, error) {
	u, err := url.Parse(projectURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase project URL: %w", err)
	}
	ref, ok := strings.CutSuffix(u.Hostname(), ".supabase.co")
	if !ok || ref == "" || strings.Contains(ref, ".") {
		return "", fmt.Errorf("supabase project URL %q is not of the form https://<ref>.supabase.co", projectURL)
	}
	return ref, nil
}

// poolerSafe disables named prepared statements, which the Supabase
// transaction pooler rejects. Parameters already in the DSN win.
func poolerSafe(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse supabase DSN: %w", err)
	}
	q := u.Query()
	for k, v := range map[string]string{
		"statement_cache_capacity": "0",
		"default_query_exec_mode":  "simple_protocol",
	} {
		if !q.Has(k) {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
