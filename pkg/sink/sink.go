package sink

import (
	"context"
	"errors"
	"fmt"

	"channel-metrics/pkg/config"
	"channel-metrics/pkg/db"
	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/telemetry"

	"go.uber.org/zap"
)

// ErrNoDirectDB is returned when the supabase driver is selected without a
// direct database connection.
var ErrNoDirectDB = errors.New("supabase direct database connection is not configured")

// Writer persists tables with full-replace semantics: after Replace the
// destination holds exactly the rows of the given table.
type Writer interface {
	Replace(ctx context.Context, t domain.Table) error
	Close(ctx context.Context) error
}

// Options carries the ambient dependencies of a writer.
type Options struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.SinkConfig, opts Options) (Writer, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openSQL(ctx, db.SQLConfig{Driver: db.DriverPostgres, DSN: cfg.DatabaseURL}, Postgres, opts)
	case config.DriverMySQL:
		return openSQL(ctx, db.SQLConfig{Driver: db.DriverMySQL, DSN: cfg.MySQLDSN()}, MySQL, opts)
	case config.DriverSQLite:
		return openSQL(ctx, db.SQLConfig{Driver: db.DriverSQLite, DSN: cfg.DatabaseURL}, SQLite, opts)

	case config.DriverSupabase:
		client := db.NewSupabaseClient(db.SupabaseConfig{
			ConnectionString: cfg.DatabaseURL,
			ProjectURL:       cfg.SupabaseURL,
			APIKey:           cfg.SupabaseKey,
			Password:         cfg.SupabasePassword,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		if !client.HasDirectDB() {
			_ = client.Close()
			return nil, ErrNoDirectDB
		}
		return NewSQLWriter(client, Postgres, opts), nil

	case config.DriverSupabaseREST:
		client := db.NewSupabaseClient(db.SupabaseConfig{
			ProjectURL: cfg.SupabaseURL,
			APIKey:     cfg.SupabaseKey,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return NewSupabaseRESTWriter(client, opts)

	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return NewMongoWriter(client, opts), nil

	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, cfg db.SQLConfig, dialect Dialect, opts Options) (Writer, error) {
	client := db.NewSQLClient(cfg)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return NewSQLWriter(client, dialect, opts), nil
}

// checkShape verifies every row carries one value per column.
func checkShape(t domain.Table) error {
	if t.Name == "" {
		return errors.New("table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s row %d: %d values for %d columns", t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}
