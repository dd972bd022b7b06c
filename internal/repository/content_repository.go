package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/pkg/chunk"
)

// ModuleRepository manages the modules collection.
type ModuleRepository struct {
	c *mongo.Collection
}

// NewModuleRepository constructs a ModuleRepository.
func NewModuleRepository(db *mongo.Database) *ModuleRepository {
	return &ModuleRepository{c: db.Collection("modules")}
}

// ListByCourses lists the modules of the given courses, batching the
// membership filter and ordering by course then ordinal.
func (r *ModuleRepository) ListByCourses(ctx context.Context, courseIDs []string) ([]models.Module, error) {
	var modules []models.Module
	sort := options.Find().SetSort(bson.D{{Key: "course_id", Value: 1}, {Key: "number", Value: 1}})
	for _, batch := range chunk.Batches(chunk.Deduped(courseIDs), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"course_id": bson.M{"$in": batch}}, sort)
		if err != nil {
			return nil, fmt.Errorf("find modules batch: %w", err)
		}
		var page []models.Module
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode modules batch: %w", err)
		}
		modules = append(modules, page...)
	}
	return modules, nil
}

// QuizRepository manages the quizzes collection.
type QuizRepository struct {
	c *mongo.Collection
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{c: db.Collection("quizzes")}
}

// FindByID fetches a quiz by id.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindByIDs resolves quizzes for the given ids in chunked batches.
func (r *QuizRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	for _, batch := range chunk.Batches(chunk.Deduped(ids), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find quizzes batch: %w", err)
		}
		var page []models.Quiz
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode quizzes batch: %w", err)
		}
		quizzes = append(quizzes, page...)
	}
	return quizzes, nil
}

// ListByCourses lists the quizzes of the given courses in chunked
// batches ordered by course then ordinal.
func (r *QuizRepository) ListByCourses(ctx context.Context, courseIDs []string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	sort := options.Find().SetSort(bson.D{{Key: "course_id", Value: 1}, {Key: "number", Value: 1}})
	for _, batch := range chunk.Batches(chunk.Deduped(courseIDs), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"course_id": bson.M{"$in": batch}}, sort)
		if err != nil {
			return nil, fmt.Errorf("find quizzes batch: %w", err)
		}
		var page []models.Quiz
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode quizzes batch: %w", err)
		}
		quizzes = append(quizzes, page...)
	}
	return quizzes, nil
}

// AssignmentRepository manages the assignments collection.
type AssignmentRepository struct {
	c *mongo.Collection
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{c: db.Collection("assignments")}
}

// FindByIDs resolves assignments for the given ids in chunked batches.
func (r *AssignmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	for _, batch := range chunk.Batches(chunk.Deduped(ids), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find assignments batch: %w", err)
		}
		var page []models.Assignment
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode assignments batch: %w", err)
		}
		assignments = append(assignments, page...)
	}
	return assignments, nil
}
