package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
)

// CompletionRepository manages the per-user completed-module records.
type CompletionRepository struct {
	c *mongo.Collection
}

// NewCompletionRepository constructs a CompletionRepository.
func NewCompletionRepository(db *mongo.Database) *CompletionRepository {
	return &CompletionRepository{c: db.Collection("completed_modules")}
}

// EnsureIndexes creates the per-user listing index.
func (r *CompletionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "completed_at", Value: -1}},
		Options: options.Index().SetName("idx_completions_user"),
	})
	return err
}

// Upsert records a completion. Re-completing a module keeps the
// original completed_at; only the source may move forward, making the
// write idempotent.
func (r *CompletionRepository) Upsert(ctx context.Context, userID, moduleID, courseID, source string) error {
	id := models.CompletedModuleID(userID, moduleID)
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"source": source},
			"$setOnInsert": bson.M{
				"user_id":      userID,
				"module_id":    moduleID,
				"course_id":    courseID,
				"completed_at": time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert completion %s: %w", id, err)
	}
	return nil
}

// ListByUser returns every completion of a user.
func (r *CompletionRepository) ListByUser(ctx context.Context, userID string) ([]models.CompletedModule, error) {
	cur, err := r.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find completions: %w", err)
	}
	var completions []models.CompletedModule
	if err := cur.All(ctx, &completions); err != nil {
		return nil, fmt.Errorf("decode completions: %w", err)
	}
	return completions, nil
}
