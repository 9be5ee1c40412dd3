package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds the Supabase connection settings.
type SupabaseConfig struct {
	// ConnectionString is the direct Postgres connection string. When empty it is
	// derived from ProjectURL and Password.
	ConnectionString string

	// ProjectURL looks like https://<project-ref>.supabase.co.
	ProjectURL string

	// APIKey enables the REST client. Use the service_role key for writes.
	APIKey string

	// Password is the database password, not the API key.
	Password string
}

// SupabaseClient gives access to a Supabase project through a direct Postgres
// connection, the REST API, or both.
type SupabaseClient struct {
	sql *SQLClient
	sdk *supabase.Client
	cfg SupabaseConfig
}

// NewSupabaseClient constructs a client. Call Connect before use.
func NewSupabaseClient(cfg SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{cfg: cfg}
}

// Connect sets up the REST client when a key is configured and the direct
// connection when a connection string or password is. At least one is required.
func (c *SupabaseClient) Connect(ctx context.Context) error {
	if c.cfg.ProjectURL != "" && c.cfg.APIKey != "" {
		sdk, err := supabase.NewClient(strings.TrimRight(c.cfg.ProjectURL, "/"), c.cfg.APIKey, nil)
		if err != nil {
			return fmt.Errorf("initialize supabase SDK: %w", err)
		}
		c.sdk = sdk
	}

	connStr := c.cfg.ConnectionString
	if connStr == "" && c.cfg.Password != "" {
		var err error
		if connStr, err = BuildSupabaseDSN(c.cfg.ProjectURL, c.cfg.Password); err != nil {
			return err
		}
	}

	if connStr != "" {
		// Poolers reject named prepared statements that outlive a transaction.
		connStr = addConnectionParam(connStr, "statement_cache_capacity", "0")

		client := NewSQLClient(SQLConfig{Driver: DriverPostgres, DSN: connStr})
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("supabase: %w", err)
		}
		c.sql = client
	}

	if c.sql == nil && c.sdk == nil {
		return fmt.Errorf("supabase: either a connection string/password or URL+key must be provided")
	}
	return nil
}

// Close closes the direct connection, if any.
func (c *SupabaseClient) Close() error {
	if c.sql == nil {
		return nil
	}
	return c.sql.Close()
}

// DB returns the direct connection, nil in REST-only mode.
func (c *SupabaseClient) DB() *sql.DB {
	if c.sql == nil {
		return nil
	}
	return c.sql.DB()
}

// HasDirectDB reports whether a direct connection is available.
func (c *SupabaseClient) HasDirectDB() bool {
	return c.DB() != nil
}

// SDK returns the REST client, nil when no API key was configured.
func (c *SupabaseClient) SDK() *supabase.Client {
	return c.sdk
}

// BuildSupabaseDSN derives the direct connection string of a project.
func BuildSupabaseDSN(projectURL, password string) (string, error) {
	if projectURL == "" {
		return "", fmt.Errorf("supabase URL is required when connection string is not provided")
	}
	parsed, err := url.Parse(projectURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase URL: %w", err)
	}
	parts := strings.Split(parsed.Host, ".")
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid supabase URL %q: expected <project-ref>.supabase.co", projectURL)
	}
	return fmt.Sprintf("postgresql://postgres:%s@db.%s.supabase.co:5432/postgres?sslmode=require",
		url.QueryEscape(password), parts[0]), nil
}

func addConnectionParam(connStr, key, value string) string {
	if strings.Contains(connStr, key+"=") {
		return connStr
	}
	sep := "?"
	if strings.Contains(connStr, "?") {
		sep = "&"
	}
	return connStr + sep + key + "=" + value
}
