package sink

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"channel-metrics/pkg/db"
	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/telemetry"

	"go.uber.org/zap"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name string

	quote      string
	numbered   bool
	types      map[domain.Kind]string
	renameStmt string
}

var (
	// Postgres also serves Supabase direct connections.
	Postgres = Dialect{
		Name:     "postgres",
		quote:    `"`,
		numbered: true,
		types: map[domain.Kind]string{
			domain.KindText:    "TEXT",
			domain.KindInteger: "BIGINT",
			domain.KindReal:    "DOUBLE PRECISION",
		},
		renameStmt: "ALTER TABLE %s RENAME TO %s",
	}

	// MySQL commits implicitly around DDL, so a failed Replace can leave the
	// staging table behind. It is dropped on the next run.
	MySQL = Dialect{
		Name:  "mysql",
		quote: "`",
		types: map[domain.Kind]string{
			domain.KindText:    "TEXT",
			domain.KindInteger: "BIGINT",
			domain.KindReal:    "DOUBLE",
		},
		renameStmt: "RENAME TABLE %s TO %s",
	}

	SQLite = Dialect{
		Name:  "sqlite",
		quote: `"`,
		types: map[domain.Kind]string{
			domain.KindText:    "TEXT",
			domain.KindInteger: "INTEGER",
			domain.KindReal:    "REAL",
		},
		renameStmt: "ALTER TABLE %s RENAME TO %s",
	}
)

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	return d.quote + strings.ReplaceAll(ident, d.quote, d.quote+d.quote) + d.quote
}

func (d Dialect) placeholder(i int) string {
	if d.numbered {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

func (d Dialect) createTable(name string, cols []domain.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.Quote(c.Name) + " " + d.types[c.Kind]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(name), strings.Join(defs, ", "))
}

func (d Dialect) insert(name string, cols []domain.Column) string {
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.Quote(c.Name)
		params[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.Quote(name), strings.Join(names, ", "), strings.Join(params, ", "))
}

func (d Dialect) dropIfExists(name string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(name)
}

func (d Dialect) rename(from, to string) string {
	return fmt.Sprintf(d.renameStmt, d.Quote(from), d.Quote(to))
}

// SQLWriter replaces tables through database/sql.
type SQLWriter struct {
	db      db.DBProvider
	dialect Dialect
	log     *zap.Logger
	metrics *telemetry.Metrics
}

// NewSQLWriter writes through provider using dialect. Close closes provider when
// it implements io.Closer.
func NewSQLWriter(provider db.DBProvider, dialect Dialect, opts Options) *SQLWriter {
	return &SQLWriter{
		db:      provider,
		dialect: dialect,
		log:     opts.logger(),
		metrics: opts.Metrics,
	}
}

// Replace loads t into a staging table and swaps it in place of the old one
// inside a single transaction.
func (w *SQLWriter) Replace(ctx context.Context, t domain.Table) error {
	if err := checkShape(t); err != nil {
		return err
	}
	if w.db.DB() == nil {
		return fmt.Errorf("%s DB not connected", w.dialect.Name)
	}

	tx, err := w.db.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	staging := t.Name + "_staging"
	if err := w.exec(ctx, tx, w.dialect.dropIfExists(staging)); err != nil {
		return err
	}
	if err := w.exec(ctx, tx, w.dialect.createTable(staging, t.Columns)); err != nil {
		return err
	}
	if err := w.insertRows(ctx, tx, staging, t); err != nil {
		return err
	}
	if err := w.exec(ctx, tx, w.dialect.dropIfExists(t.Name)); err != nil {
		return err
	}
	if err := w.exec(ctx, tx, w.dialect.rename(staging, t.Name)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", t.Name, err)
	}

	w.metrics.ObserveRows(t.Name, len(t.Rows))
	w.log.Info("table replaced",
		zap.String("table", t.Name),
		zap.String("dialect", w.dialect.Name),
		zap.Int("rows", len(t.Rows)),
	)
	return nil
}

func (w *SQLWriter) exec(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("exec %q: %w", stmt, err)
	}
	return nil
}

func (w *SQLWriter) insertRows(ctx context.Context, tx *sql.Tx, into string, t domain.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, w.dialect.insert(into, t.Columns))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// Close closes the underlying connection when the writer owns it.
func (w *SQLWriter) Close(ctx context.Context) error {
	if c, ok := w.db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
