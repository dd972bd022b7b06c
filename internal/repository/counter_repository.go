package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
)

// CounterRepository manages the per-(role, year) sequence documents
// behind generated human-readable ids.
type CounterRepository struct {
	c *mongo.Collection
}

// NewCounterRepository constructs a CounterRepository.
func NewCounterRepository(db *mongo.Database) *CounterRepository {
	return &CounterRepository{c: db.Collection("counters")}
}

// Next atomically increments and returns the sequence for (role, year).
// The upsert-increment is a single document operation, so no two
// concurrent callers ever see the same value.
func (r *CounterRepository) Next(ctx context.Context, role string, year int) (int64, error) {
	id := fmt.Sprintf("%s-%d", role, year)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter models.Counter
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", id, err)
	}
	return counter.Value, nil
}
