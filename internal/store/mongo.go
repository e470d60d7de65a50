package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// Defaults for the Mongo backend.
const (
	DefaultMongoDatabase   = "transferwindow"
	DefaultMongoCollection = "resources"
)

// Mongo is a Store backed by a MongoDB collection keyed by _id.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// OpenMongo connects to uri and uses database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string, timeout time.Duration) (*Mongo, error) {
	if uri == "" {
		return nil, errors.NewValidationError("mongo store requires a dsn").WithField("store.dsn")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	connCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewStoreError("connect", err).WithBackend(DriverMongo)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.NewStoreError("ping", err).WithBackend(DriverMongo)
	}

	return NewMongo(client, database, collection, timeout), nil
}

// NewMongo wraps a connected client.
func NewMongo(client *mongo.Client, database, collection string, timeout time.Duration) *Mongo {
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
		timeout:    timeout,
	}
}

func (m *Mongo) Fetch(ctx context.Context, id string) (resource.Record, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	var rec resource.Record
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return resource.Record{}, errors.NewNotFoundError("resource", id)
	}
	if err != nil {
		return resource.Record{}, m.storeErr("fetch", id, err)
	}
	return rec, nil
}

func (m *Mongo) ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDocument(status, holder))
	if err != nil {
		return false, m.storeErr("update", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) Seed(ctx context.Context, rec resource.Record) error {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return m.storeErr("seed", rec.ID, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := withTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) storeErr(op, id string, cause error) *errors.StoreError {
	return errors.NewStoreError(op, cause).WithBackend(DriverMongo).WithResourceID(id)
}

// updateDocument sets status and holder, removing the holder field when
// the resource becomes available.
func updateDocument(status resource.Status, holder string) bson.M {
	if holder == resource.HolderNone {
		return bson.M{
			"$set":   bson.M{"status": string(status)},
			"$unset": bson.M{"holder": ""},
		}
	}
	return bson.M{"$set": bson.M{"status": string(status), "holder": holder}}
}
