package sink

import (
	"context"
	"fmt"

	"channel-metrics/pkg/db"
	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/telemetry"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// MongoWriter stores each table as a collection of the same name.
type MongoWriter struct {
	client  *db.MongoClient
	log     *zap.Logger
	metrics *telemetry.Metrics
}

func NewMongoWriter(client *db.MongoClient, opts Options) *MongoWriter {
	return &MongoWriter{client: client, log: opts.logger(), metrics: opts.Metrics}
}

// Replace drops the collection and inserts one document per row. The two steps
// are not atomic.
func (w *MongoWriter) Replace(ctx context.Context, t domain.Table) error {
	if err := checkShape(t); err != nil {
		return err
	}
	coll := w.client.Collection(t.Name)
	if err := coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop collection %s: %w", t.Name, err)
	}

	if docs := toDocuments(t); len(docs) > 0 {
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert into %s: %w", t.Name, err)
		}
	}

	w.metrics.ObserveRows(t.Name, len(t.Rows))
	w.log.Info("collection replaced", zap.String("collection", t.Name), zap.Int("documents", len(t.Rows)))
	return nil
}

func (w *MongoWriter) Close(ctx context.Context) error {
	return w.client.Close(ctx)
}

// toDocuments keeps column order; nil values become BSON null.
func toDocuments(t domain.Table) []interface{} {
	docs := make([]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		doc := make(bson.D, len(t.Columns))
		for i, c := range t.Columns {
			doc[i] = bson.E{Key: c.Name, Value: row[i]}
		}
		docs = append(docs, doc)
	}
	return docs
}
