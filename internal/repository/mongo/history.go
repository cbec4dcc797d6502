package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nssplayer/internal/domain"
)

const DefaultCollection = "share_history"

type HistoryRepository struct {
	collection *mongo.Collection
}

type shareDoc struct {
	ID        string `bson:"_id"`
	FilePath  string `bson:"filePath"`
	URL       string `bson:"url"`
	StartedAt int64  `bson:"startedAt"`
	StoppedAt int64  `bson:"stoppedAt,omitempty"`
	StopError string `bson:"stopError,omitempty"`
}

func NewHistoryRepository(client *mongo.Client, dbName, collectionName string) *HistoryRepository {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	return &HistoryRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "startedAt", Value: -1}},
	})
	return err
}

// Insert upserts by ID, so retrying a failed insert is safe.
func (r *HistoryRepository) Insert(ctx context.Context, rec domain.ShareRecord) error {
	doc := toShareDoc(rec)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *HistoryRepository) MarkStopped(ctx context.Context, id string, stoppedAt time.Time, stopErr string) error {
	set := bson.M{"stoppedAt": stoppedAt.UTC().UnixMilli()}
	if stopErr != "" {
		set["stopError"] = stopErr
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *HistoryRepository) Get(ctx context.Context, id string) (domain.ShareRecord, error) {
	var doc shareDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ShareRecord{}, domain.ErrNotFound
		}
		return domain.ShareRecord{}, err
	}
	return fromShareDoc(doc), nil
}

// ListRecent returns records newest first.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.ShareRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []shareDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.ShareRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromShareDoc(d))
	}
	return out, nil
}

func toShareDoc(rec domain.ShareRecord) shareDoc {
	doc := shareDoc{
		ID:        rec.ID,
		FilePath:  rec.FilePath,
		URL:       rec.URL,
		StartedAt: rec.StartedAt.UTC().UnixMilli(),
		StopError: rec.StopError,
	}
	if rec.StoppedAt != nil {
		doc.StoppedAt = rec.StoppedAt.UTC().UnixMilli()
	}
	return doc
}

func fromShareDoc(doc shareDoc) domain.ShareRecord {
	rec := domain.ShareRecord{
		ID:        doc.ID,
		FilePath:  doc.FilePath,
		URL:       doc.URL,
		StartedAt: time.UnixMilli(doc.StartedAt).UTC(),
		StopError: doc.StopError,
	}
	if doc.StoppedAt != 0 {
		stopped := time.UnixMilli(doc.StoppedAt).UTC()
		rec.StoppedAt = &stopped
	}
	return rec
}
