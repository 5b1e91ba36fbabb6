package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/multierr"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary separately: Connect succeeds even when the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. All collections are
// attempted; failures are combined into one error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	var err error
	ensure := func(name string, fn func(context.Context, *mongo.Collection) error) {
		if e := fn(ctx, db.Collection(name)); e != nil {
			err = multierr.Append(err, fmt.Errorf("indexes for %s: %w", name, e))
		}
	}
	ensure(userCollectionName, EnsureUserIndexes)
	ensure(protocolCollectionName, EnsureProtocolIndexes)
	ensure(assignmentCollectionName, EnsureAssignmentIndexes)
	ensure(historyCollectionName, EnsureHistoryIndexes)
	ensure(checkInCollectionName, EnsureCheckInIndexes)
	return err
}
