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

// AttemptRepository manages the append-only quiz attempts and their
// per-(user, quiz) summary rollups.
type AttemptRepository struct {
	client    *mongo.Client
	attempts  *mongo.Collection
	summaries *mongo.Collection
}

// NewAttemptRepository constructs an AttemptRepository.
func NewAttemptRepository(client *mongo.Client, db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{
		client:    client,
		attempts:  db.Collection("quiz_attempts"),
		summaries: db.Collection("quiz_summaries"),
	}
}

// EnsureIndexes creates the (user, quiz) lookup indexes.
func (r *AttemptRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.attempts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "quiz_id", Value: 1}, {Key: "submitted_at", Value: 1}},
		Options: options.Index().SetName("idx_attempts_user_quiz"),
	}); err != nil {
		return err
	}
	_, err := r.summaries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("idx_summaries_user"),
	})
	return err
}

// CountByUserAndQuiz counts existing attempts for the pair.
func (r *AttemptRepository) CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error) {
	n, err := r.attempts.CountDocuments(ctx, bson.M{"user_id": userID, "quiz_id": quizID})
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(n), nil
}

// Insert appends one attempt record.
func (r *AttemptRepository) Insert(ctx context.Context, attempt *models.Attempt) error {
	if _, err := r.attempts.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// RecomputeSummary re-reads the full attempt set for (user, quiz)
// inside a transaction and merge-writes the summary derived from it.
// Deriving from the event set rather than incrementing means a summary
// clobbered by a concurrent writer heals on the next write.
func (r *AttemptRepository) RecomputeSummary(ctx context.Context, userID, quizID string, attemptsAllowed int) (*models.QuizAttemptSummary, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cur, err := r.attempts.Find(sc, bson.M{"user_id": userID, "quiz_id": quizID})
		if err != nil {
			return nil, err
		}
		var attempts []models.Attempt
		if err := cur.All(sc, &attempts); err != nil {
			return nil, err
		}

		summary := models.QuizAttemptSummary{
			ID:              models.SummaryID(userID, quizID),
			UserID:          userID,
			QuizID:          quizID,
			AttemptsUsed:    len(attempts),
			AttemptsAllowed: attemptsAllowed,
		}
		var last time.Time
		for _, a := range attempts {
			if a.Percent > summary.BestPercent {
				summary.BestPercent = a.Percent
			}
			if last.IsZero() || a.SubmittedAt.After(last) {
				last = a.SubmittedAt
				summary.LastScore = a.Score
				summary.LastSubmittedAt = a.SubmittedAt
			}
		}

		if _, err := r.summaries.ReplaceOne(sc,
			bson.M{"_id": summary.ID},
			summary,
			options.Replace().SetUpsert(true),
		); err != nil {
			return nil, err
		}
		return &summary, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.QuizAttemptSummary), nil
}

// ListByUserAndQuiz returns the pair's attempts ordered oldest first.
func (r *AttemptRepository) ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error) {
	cur, err := r.attempts.Find(ctx,
		bson.M{"user_id": userID, "quiz_id": quizID},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}
	var attempts []models.Attempt
	if err := cur.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return attempts, nil
}

// ListByUser returns every attempt of a user, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]models.Attempt, error) {
	cur, err := r.attempts.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find user attempts: %w", err)
	}
	var attempts []models.Attempt
	if err := cur.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("decode user attempts: %w", err)
	}
	return attempts, nil
}

// SummariesByUser returns the user's per-quiz summaries.
func (r *AttemptRepository) SummariesByUser(ctx context.Context, userID string) ([]models.QuizAttemptSummary, error) {
	cur, err := r.summaries.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find summaries: %w", err)
	}
	var summaries []models.QuizAttemptSummary
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return summaries, nil
}
