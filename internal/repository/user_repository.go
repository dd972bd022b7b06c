package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/pkg/chunk"
)

// UserRepository manages the users collection.
type UserRepository struct {
	c *mongo.Collection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{c: db.Collection("users")}
}

// EnsureIndexes creates the lookup indexes used by id resolution.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetName("idx_users_student_id").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "teacher_id", Value: 1}},
			Options: options.Index().SetName("idx_users_teacher_id").SetSparse(true),
		},
	}
	_, err := r.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// FindByID fetches a user document by its id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByStudentID fetches a user by human-readable student sequence id.
func (r *UserRepository) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	var user models.User
	if err := r.c.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.c.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs resolves user documents for the given ids, batching the
// membership query to stay under the store's fan-in limit. Missing ids
// are simply absent from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	for _, batch := range chunk.Batches(chunk.Deduped(ids), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find users batch: %w", err)
		}
		var page []models.User
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode users batch: %w", err)
		}
		users = append(users, page...)
	}
	return users, nil
}

// FindByStudentIDs resolves user documents by student sequence id,
// batching the membership query. Refs that match no user are absent
// from the result.
func (r *UserRepository) FindByStudentIDs(ctx context.Context, refs []string) ([]models.User, error) {
	var users []models.User
	for _, batch := range chunk.Batches(chunk.Deduped(refs), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"student_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find users by student id batch: %w", err)
		}
		var page []models.User
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode users by student id batch: %w", err)
		}
		users = append(users, page...)
	}
	return users, nil
}

// FindByAnyRef resolves a user from a loosely typed identifier, trying
// document id, then student sequence id, then teacher sequence id, then
// email. Roster rows reference students by several of these forms.
func (r *UserRepository) FindByAnyRef(ctx context.Context, ref string) (*models.User, error) {
	filters := []bson.M{
		{"_id": ref},
		{"student_id": ref},
		{"teacher_id": ref},
		{"email": ref},
	}
	for _, filter := range filters {
		var user models.User
		err := r.c.FindOne(ctx, filter).Decode(&user)
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}
	return nil, mongo.ErrNoDocuments
}

// UpdateAverageQuizScore persists the denormalized quiz average.
func (r *UserRepository) UpdateAverageQuizScore(ctx context.Context, userID string, avg float64) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{"average_quiz_score": avg},
			"$currentDate": bson.M{"updated_at": true},
		},
	)
	return err
}

// UpdateAverageAssignmentGrade persists the denormalized grade average.
func (r *UserRepository) UpdateAverageAssignmentGrade(ctx context.Context, userID string, avg float64) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{"average_assignment_grade": avg},
			"$currentDate": bson.M{"updated_at": true},
		},
	)
	return err
}
