package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestSupabaseConfig_ResolveDSNFromProject(t *testing.T) {
	cfg := SupabaseConfig{ProjectURL: "https://abcref.supabase.co", Password: "p@ss word"}

	dsn, err := cfg.resolveDSN()
	if err != nil {
		t.Fatalf("resolveDSN failed: %v", err)
	}
	if !strings.Contains(dsn, "@db.abcref.supabase.co:5432/postgres") {
		t.Errorf("Unexpected host in %q", dsn)
	}
	if !strings.Contains(dsn, "p%40ss%20word") {
		t.Errorf("Expected escaped password in %q", dsn)
	}
	if !strings.HasSuffix(dsn, "?sslmode=require") {
		t.Errorf("Expected sslmode=require in %q", dsn)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("DSN does not parse: %v", err)
	}
	if pw, _ := u.User.Password(); pw != "p@ss word" {
		t.Errorf("Password round-trip got %q", pw)
	}
}

func TestSupabaseConfig_ResolveDSNPrefersExplicitDSN(t *testing.T) {
	cfg := SupabaseConfig{DSN: "postgres://u:p@pooler.supabase.com:6543/postgres", ProjectURL: "https://x.supabase.co", Password: "pw"}

	dsn, err := cfg.resolveDSN()
	if err != nil {
		t.Fatalf("resolveDSN failed: %v", err)
	}
	if dsn != cfg.DSN {
		t.Errorf("Got %q, want the explicit DSN", dsn)
	}
}

func TestSupabaseConfig_ResolveDSNErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  SupabaseConfig
	}{
		{"nothing", SupabaseConfig{}},
		{"missing url", SupabaseConfig{Password: "pw"}},
		{"missing password", SupabaseConfig{ProjectURL: "https://abc.supabase.co"}},
		{"not supabase", SupabaseConfig{ProjectURL: "https://localhost", Password: "pw"}},
		{"nested subdomain", SupabaseConfig{ProjectURL: "https://a.b.supabase.co", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.resolveDSN(); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestProjectRef(t *testing.T) {
	ref, err := projectRef("https://abcref.supabase.co/")
	if err != nil {
		t.Fatalf("projectRef failed: %v", err)
	}
	if ref != "abcref" {
		t.Errorf("Got %q", ref)
	}
}

func TestPoolerSafe(t *testing.T) {
	got, err := poolerSafe("postgres://u:p@h:5432/db?sslmode=require")
	if err != nil {
		t.Fatalf("poolerSafe failed: %v", err)
	}
	want := "postgres://u:p@h:5432/db?default_query_exec_mode=simple_protocol&sslmode=require&statement_cache_capacity=0"
	if got != want {
		t.Errorf("Got %q\nwant %q", got, want)
	}

	kept, err := poolerSafe("postgres://h/db?statement_cache_capacity=16")
	if err != nil {
		t.Fatalf("poolerSafe failed: %v", err)
	}
	if !strings.Contains(kept, "statement_cache_capacity=16") {
		t.Errorf("Existing parameter should be kept, got %q", kept)
	}
}

func TestSupabaseClient_ConnectErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  SupabaseConfig
	}{
		{"no credentials", SupabaseConfig{}},
		{"api key without project", SupabaseConfig{DSN: "postgres://h/db", APIKey: "key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSupabaseClient(tt.cfg)
			if err := c.Connect(t.Context()); err == nil {
				t.Fatal("Expected error, got nil")
			}
			if c.DB() != nil {
				t.Error("Expected no DB after failed Connect")
			}
		})
	}
}

func TestSupabaseClient_RowCountOverREST(t *testing.T) {
	var gotMethod, gotPath, gotKey, gotPrefer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotKey, gotPrefer = r.Header.Get("apikey"), r.Header.Get("Prefer")
		w.Header().Set("Content-Range", "*/3")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewSupabaseClient(SupabaseConfig{ProjectURL: server.URL + "/", APIKey: "anon-key"})
	if err := c.connectREST(); err != nil {
		t.Fatalf("connectREST failed: %v", err)
	}
	if !c.HasREST() {
		t.Fatal("Expected REST client")
	}

	n, err := c.RowCount(t.Context(), "channels")
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Got count %d, want 3", n)
	}
	if gotMethod != http.MethodHead || gotPath != "/rest/v1/channels" {
		t.Errorf("Got %s %s", gotMethod, gotPath)
	}
	if gotKey != "anon-key" {
		t.Errorf("Got apikey %q", gotKey)
	}
	if gotPrefer != "count=exact" {
		t.Errorf("Got Prefer %q", gotPrefer)
	}
	if err := c.PingREST(t.Context()); err != nil {
		t.Errorf("PingREST failed: %v", err)
	}
}

func TestSupabaseClient_RowCountRejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewSupabaseClient(SupabaseConfig{ProjectURL: server.URL, APIKey: "bad-key"})
	if err := c.connectREST(); err != nil {
		t.Fatalf("connectREST failed: %v", err)
	}
	if err := c.PingREST(t.Context()); err == nil {
		t.Fatal("Expected error for rejected key, got nil")
	}
}

func TestSupabaseClient_RowCountHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewSupabaseClient(SupabaseConfig{ProjectURL: server.URL, APIKey: "key"})
	if err := c.connectREST(); err != nil {
		t.Fatalf("connectREST failed: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := c.RowCount(ctx, "channels"); !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, want context.Canceled", err)
	}
}

func TestSupabaseClient_RowCountWithoutKey(t *testing.T) {
	c := NewSupabaseClient(SupabaseConfig{DSN: "postgres://h/db"})
	if c.HasREST() {
		t.Fatal("Expected no REST client without a key")
	}
	if _, err := c.RowCount(t.Context(), "channels"); !errors.Is(err, ErrNoREST) {
		t.Errorf("Got %v, want ErrNoREST", err)
	}
}
