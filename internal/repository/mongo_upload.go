package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const uploadsCollection = "uploads"

// MongoUploadLedger implements domain.UploadLedger
type MongoUploadLedger struct {
	collection *mongo.Collection
}

func NewMongoUploadLedger(db *mongo.Database) *MongoUploadLedger {
	coll := db.Collection(uploadsCollection)

	// Create Index
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		log.Printf("Warning: failed to create %s indexes: %v", uploadsCollection, err)
	}

	return &MongoUploadLedger{
		collection: coll,
	}
}

func (r *MongoUploadLedger) Record(ctx context.Context, rec *domain.UploadRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record upload %s: %w", rec.Key, err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return nil
}

// ListRecent returns the newest uploads first
func (r *MongoUploadLedger) ListRecent(ctx context.Context, limit int) ([]*domain.UploadRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*domain.UploadRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
