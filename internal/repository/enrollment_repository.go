package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
)

// EnrollmentRepository coordinates the roster, class counter and
// enrollment-mirror writes that together form one enrollment. The three
// documents are mutated inside a single transaction so a crash mid-way
// leaves either all writes applied or none.
type EnrollmentRepository struct {
	client      *mongo.Client
	rosters     *mongo.Collection
	classes     *mongo.Collection
	enrollments *mongo.Collection
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(client *mongo.Client, db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{
		client:      client,
		rosters:     db.Collection("rosters"),
		classes:     db.Collection("classes"),
		enrollments: db.Collection("enrollments"),
	}
}

// EnsureIndexes creates roster and mirror lookup indexes.
func (r *EnrollmentRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.rosters.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "class_id", Value: 1}, {Key: "student_id", Value: 1}},
		Options: options.Index().SetName("idx_rosters_class_student").SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := r.enrollments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("idx_enrollments_user"),
	})
	return err
}

// Enroll links the student into the class roster, bumps the class
// student counter and upserts the student's enrollment mirror, all in
// one transaction. When the roster entry already exists no write of any
// kind is performed and already=true is returned.
func (r *EnrollmentRepository) Enroll(ctx context.Context, class *models.Class, user *models.User) (already bool, err error) {
	session, err := r.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	rosterID := models.RosterEntryID(class.ID, user.StudentID)
	now := time.Now().UTC()

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var existing models.RosterEntry
		err := r.rosters.FindOne(sc, bson.M{"_id": rosterID}).Decode(&existing)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return false, err
		}

		entry := models.RosterEntry{
			ID:         rosterID,
			ClassID:    class.ID,
			StudentID:  user.StudentID,
			FullName:   user.FullName(),
			Email:      user.Email,
			PhotoURL:   user.PhotoURL,
			Active:     user.Active,
			EnrolledAt: now,
		}
		if _, err := r.rosters.InsertOne(sc, entry); err != nil {
			return false, err
		}

		if _, err := r.classes.UpdateOne(sc,
			bson.M{"_id": class.ID},
			bson.M{"$inc": bson.M{"students": 1}},
		); err != nil {
			return false, err
		}

		mirror := models.Enrollment{
			ID:         models.EnrollmentID(user.ID, class.ID),
			UserID:     user.ID,
			ClassID:    class.ID,
			ClassName:  class.Name,
			GradeLevel: class.GradeLevel,
			Section:    class.Section,
			SchoolYear: class.SchoolYear,
			Semester:   class.Semester,
			TeacherID:  class.TeacherID,
			EnrolledAt: now,
		}
		if _, err := r.enrollments.ReplaceOne(sc,
			bson.M{"_id": mirror.ID},
			mirror,
			options.Replace().SetUpsert(true),
		); err != nil {
			return false, err
		}

		return false, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Unenroll removes the roster entry and mirror and decrements the class
// counter. Removing an absent entry is a no-op reported as found=false.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, classID, studentID, userID string) (found bool, err error) {
	session, err := r.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	rosterID := models.RosterEntryID(classID, studentID)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.rosters.DeleteOne(sc, bson.M{"_id": rosterID})
		if err != nil {
			return false, err
		}
		if res.DeletedCount == 0 {
			return false, nil
		}

		if _, err := r.classes.UpdateOne(sc,
			bson.M{"_id": classID, "students": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"students": -1}},
		); err != nil {
			return false, err
		}

		if _, err := r.enrollments.DeleteOne(sc, bson.M{"_id": models.EnrollmentID(userID, classID)}); err != nil {
			return false, err
		}

		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Roster lists the roster entries of a class.
func (r *EnrollmentRepository) Roster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	cur, err := r.rosters.Find(ctx, bson.M{"class_id": classID})
	if err != nil {
		return nil, fmt.Errorf("find roster: %w", err)
	}
	var entries []models.RosterEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return entries, nil
}

// MirrorsByUser lists a student's enrollment mirrors.
func (r *EnrollmentRepository) MirrorsByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	cur, err := r.enrollments.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find enrollments: %w", err)
	}
	var mirrors []models.Enrollment
	if err := cur.All(ctx, &mirrors); err != nil {
		return nil, fmt.Errorf("decode enrollments: %w", err)
	}
	return mirrors, nil
}
