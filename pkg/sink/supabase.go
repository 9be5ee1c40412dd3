package sink

import (
	"context"
	"errors"
	"fmt"

	"channel-metrics/pkg/db"
	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/telemetry"

	supabase "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// restBatchSize bounds the number of rows sent per insert request.
const restBatchSize = 500

// SupabaseRESTWriter replaces rows through the PostgREST API. The destination
// tables must already exist, since the REST API cannot run DDL.
type SupabaseRESTWriter struct {
	client  *db.SupabaseClient
	sdk     *supabase.Client
	log     *zap.Logger
	metrics *telemetry.Metrics
}

// NewSupabaseRESTWriter requires a connected client with an API key.
func NewSupabaseRESTWriter(client *db.SupabaseClient, opts Options) (*SupabaseRESTWriter, error) {
	if client.SDK() == nil {
		return nil, errors.New("supabase REST writer needs SUPABASE_URL and SUPABASE_KEY")
	}
	return &SupabaseRESTWriter{
		client:  client,
		sdk:     client.SDK(),
		log:     opts.logger(),
		metrics: opts.Metrics,
	}, nil
}

// Replace deletes every row of the table, then inserts t's rows in batches.
// The requests are not wrapped in a transaction.
func (w *SupabaseRESTWriter) Replace(ctx context.Context, t domain.Table) error {
	if err := checkShape(t); err != nil {
		return err
	}

	// PostgREST refuses an unfiltered DELETE; this filter matches every row.
	key := t.Columns[0].Name
	_, _, err := w.sdk.From(t.Name).
		Delete("minimal", "").
		Or(fmt.Sprintf("%s.is.null,%s.not.is.null", key, key), "").
		Execute()
	if err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}

	records := toRecords(t)
	for start := 0; start < len(records); start += restBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+restBatchSize, len(records))
		if _, _, err := w.sdk.From(t.Name).Insert(records[start:end], false, "", "minimal", "").Execute(); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", t.Name, start, end, err)
		}
	}

	w.metrics.ObserveRows(t.Name, len(t.Rows))
	w.log.Info("table replaced", zap.String("table", t.Name), zap.String("dialect", "supabase-rest"), zap.Int("rows", len(t.Rows)))
	return nil
}

func (w *SupabaseRESTWriter) Close(ctx context.Context) error {
	return w.client.Close()
}

func toRecords(t domain.Table) []map[string]any {
	records := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			rec[c.Name] = row[j]
		}
		records[i] = rec
	}
	return records
}
