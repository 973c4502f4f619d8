// internal/database/mongo.go
package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/store/mongostore"
)

// Connect opens a client, pings the primary and returns the configured database.
// The store writes inside transactions, so a standalone server is rejected.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	if err := requireTransactions(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client.Database(cfg.DBName), nil
}

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func requireTransactions(ctx context.Context, client *mongo.Client) error {
	var reply helloReply
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply); err != nil {
		return fmt.Errorf("database: hello: %w", err)
	}
	if !supportsTransactions(reply) {
		return errors.New("database: server is not part of a replica set; set mongo.uri with ?replicaSet=<name>")
	}
	return nil
}

// supportsTransactions reports whether the topology is a replica set member
// or a mongos router.
func supportsTransactions(reply helloReply) bool {
	return reply.SetName != "" || reply.Msg == "isdbgrid"
}

// EnsureIndexes creates the indexes the store relies on. The unique indexes
// back the duplicate checks on users, bids and jobs.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		mongostore.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userType", Value: 1}}},
			{Keys: bson.D{{Key: "location.coordinates", Value: "2dsphere"}}},
		},
		mongostore.ConsignmentsCollection: {
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "origin.coordinates", Value: "2dsphere"}}},
		},
		mongostore.BidsCollection: {
			{Keys: bson.D{{Key: "consignmentId", Value: 1}, {Key: "bidderId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bidderId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		mongostore.JobsCollection: {
			{Keys: bson.D{{Key: "consignmentId", Value: 1}, {Key: "transporterId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "status", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("database: create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
