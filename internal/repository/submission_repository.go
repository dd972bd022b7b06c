package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
)

// SubmissionRepository manages assignment submissions and their grades.
type SubmissionRepository struct {
	c *mongo.Collection
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{c: db.Collection("submissions")}
}

// EnsureIndexes creates the per-user listing index.
func (r *SubmissionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}},
		Options: options.Index().SetName("idx_submissions_user"),
	})
	return err
}

// ListByUser returns every submission of a user, newest first.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	cur, err := r.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	var submissions []models.Submission
	if err := cur.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return submissions, nil
}
