package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/pkg/chunk"
)

// ClassRepository manages the classes collection.
type ClassRepository struct {
	c *mongo.Collection
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *mongo.Database) *ClassRepository {
	return &ClassRepository{c: db.Collection("classes")}
}

// FindByID fetches a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&class); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByTeacher lists a teacher's classes.
func (r *ClassRepository) FindByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	cur, err := r.c.Find(ctx, bson.M{"teacher_id": teacherID})
	if err != nil {
		return nil, fmt.Errorf("find classes by teacher: %w", err)
	}
	var classes []models.Class
	if err := cur.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	return classes, nil
}

// FindByIDs resolves classes for the given ids in chunked batches.
func (r *ClassRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Class, error) {
	var classes []models.Class
	for _, batch := range chunk.Batches(chunk.Deduped(ids), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find classes batch: %w", err)
		}
		var page []models.Class
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode classes batch: %w", err)
		}
		classes = append(classes, page...)
	}
	return classes, nil
}
