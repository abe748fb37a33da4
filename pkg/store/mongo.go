package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// MongoConfig configures OpenMongo.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string // defaults to "artifacts"
}

// Mongo stores artifacts in a MongoDB collection. A TTL index on
// expires_at lets the server expire documents; Get also checks expiry
// because the TTL monitor only runs once a minute.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects, pings and ensures the collection's indexes.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Database == "" {
		cfg.Database = "gvbind"
	}
	if cfg.Collection == "" {
		cfg.Collection = "artifacts"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	m := &Mongo{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "graph_hash", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create artifact indexes")
	}
	return nil
}

func (m *Mongo) Put(ctx context.Context, a *Artifact) error {
	prepare(a)
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store artifact %s", a.ID)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, id string) (*Artifact, error) {
	if err := errors.ValidateArtifactID(id); err != nil {
		return nil, err
	}
	var a Artifact
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load artifact %s", id)
	}
	if a.IsExpired() {
		return nil, notFound(id)
	}
	return &a, nil
}

func (m *Mongo) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete artifact %s", id)
	}
	return nil
}

func (m *Mongo) List(ctx context.Context, graphHash string, limit int) ([]*Artifact, error) {
	filter := bson.M{
		"graph_hash": graphHash,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list artifacts")
	}
	var out []*Artifact
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode artifacts")
	}
	return out, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
