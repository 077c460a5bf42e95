// Package database owns the MongoDB connection shared by all repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/sehatly/config"
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// Connect opens the Mongo client, verifies the connection with a ping, and
// ensures the indexes the application relies on.
func Connect(ctx context.Context) error {
	opts := options.Client().ApplyURI(config.MongoURI()).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(25)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return fmt.Errorf("database: ping: %w", err)
	}

	client = c
	db = c.Database(config.MongoDB())

	return ensureIndexes(ctx)
}

// Disconnect closes the client. Call on shutdown.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Client returns the connected Mongo client (needed for transactions).
func Client() *mongo.Client { return client }

// DB returns the application database handle.
func DB() *mongo.Database { return db }

// Collection is shorthand for DB().Collection(name).
func Collection(name string) *mongo.Collection { return db.Collection(name) }

func ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"vendors": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"medicines": {
			{Keys: bson.D{{Key: "vendorId", Value: 1}, {Key: "categoryId", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		"orders": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		"order_details": {
			{Keys: bson.D{{Key: "orderId", Value: 1}}},
			{Keys: bson.D{{Key: "medicineId", Value: 1}}},
		},
		"payments": {
			{Keys: bson.D{{Key: "orderId", Value: 1}}},
		},
		"incompatibles": {
			{Keys: bson.D{{Key: "drugA", Value: 1}, {Key: "drugB", Value: 1}}},
		},
		"reminders": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "nextTrigger", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("database: ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}
