package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient wraps a MongoDB client bound to one database.
type MongoClient struct {
	mongoClient *mongo.Client
	database    *mongo.Database
}

// NewMongoClient creates a client for databaseName. The connection is lazy; use
// Connect to verify it.
func NewMongoClient(ctx context.Context, connectionString, databaseName string) (*MongoClient, error) {
	if databaseName == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	return &MongoClient{
		mongoClient: mongoClient,
		database:    mongoClient.Database(databaseName),
	}, nil
}

// Connect pings the server.
func (c *MongoClient) Connect(ctx context.Context) error {
	if err := c.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (c *MongoClient) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// Collection returns a handle to name in the bound database.
func (c *MongoClient) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}
