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

// CourseRepository manages the courses collection.
type CourseRepository struct {
	c *mongo.Collection
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{c: db.Collection("courses")}
}

// FindByID fetches a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByTeacher lists a teacher's authored courses.
func (r *CourseRepository) FindByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	cur, err := r.c.Find(ctx, bson.M{"teacher_id": teacherID})
	if err != nil {
		return nil, fmt.Errorf("find courses by teacher: %w", err)
	}
	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return courses, nil
}

// FindByIDs resolves courses for the given ids in chunked batches.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	var courses []models.Course
	for _, batch := range chunk.Batches(chunk.Deduped(ids), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find courses batch: %w", err)
		}
		var page []models.Course
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode courses batch: %w", err)
		}
		courses = append(courses, page...)
	}
	return courses, nil
}

// FindAssignedToClasses lists courses whose assigned_classes set
// intersects the given class ids, batching the membership filter.
func (r *CourseRepository) FindAssignedToClasses(ctx context.Context, classIDs []string) ([]models.Course, error) {
	seen := make(map[string]struct{})
	var courses []models.Course
	for _, batch := range chunk.Batches(chunk.Deduped(classIDs), chunk.MaxIn) {
		cur, err := r.c.Find(ctx, bson.M{"assigned_classes": bson.M{"$in": batch}})
		if err != nil {
			return nil, fmt.Errorf("find courses for classes: %w", err)
		}
		var page []models.Course
		if err := cur.All(ctx, &page); err != nil {
			return nil, fmt.Errorf("decode courses for classes: %w", err)
		}
		// A course assigned to classes in different batches shows up
		// more than once across iterations.
		for _, course := range page {
			if _, ok := seen[course.ID]; ok {
				continue
			}
			seen[course.ID] = struct{}{}
			courses = append(courses, course)
		}
	}
	return courses, nil
}

// SearchByTitle lists courses whose title contains the term,
// case-insensitively. Used for subject-scoped leaderboards.
func (r *CourseRepository) SearchByTitle(ctx context.Context, term string) ([]models.Course, error) {
	filter := bson.M{"title": bson.M{"$regex": term, "$options": "i"}}
	cur, err := r.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("decode course search: %w", err)
	}
	return courses, nil
}
