package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type quizFinder interface {
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
}

type attemptStore interface {
	CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error)
	Insert(ctx context.Context, attempt *models.Attempt) error
	RecomputeSummary(ctx context.Context, userID, quizID string, attemptsAllowed int) (*models.QuizAttemptSummary, error)
	SummariesByUser(ctx context.Context, userID string) ([]models.QuizAttemptSummary, error)
	ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error)
}

type completionWriter interface {
	Upsert(ctx context.Context, userID, moduleID, courseID, source string) error
}

type attemptUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateAverageQuizScore(ctx context.Context, userID string, avg float64) error
}

// RecordAttemptRequest describes one quiz submission. Callers identify
// the student by user id or email, whichever the client has at hand.
type RecordAttemptRequest struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email" validate:"omitempty,email"`
	QuizID           string `json:"quiz_id" validate:"required"`
	Score            int    `json:"score" validate:"min=0"`
	Total            int    `json:"total" validate:"min=0"`
	Reason           string `json:"reason"`
	TimeTakenSeconds int    `json:"time_taken_seconds" validate:"min=0"`
}

// QuizAttemptService records quiz attempts under per-quiz ceilings and
// maintains the denormalized best-score summaries. Failures always
// propagate; nothing is degraded here.
type QuizAttemptService struct {
	quizzes        quizFinder
	attempts       attemptStore
	completions    completionWriter
	users          attemptUserStore
	validator      *validator.Validate
	logger         *zap.Logger
	passingDefault int
	now            func() time.Time
}

// NewQuizAttemptService constructs a QuizAttemptService.
// passingDefault applies to quizzes that omit a passing percent.
func NewQuizAttemptService(quizzes quizFinder, attempts attemptStore, completions completionWriter, users attemptUserStore, passingDefault int, validate *validator.Validate, logger *zap.Logger) *QuizAttemptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if passingDefault <= 0 {
		passingDefault = 60
	}
	return &QuizAttemptService{
		quizzes:        quizzes,
		attempts:       attempts,
		completions:    completions,
		users:          users,
		validator:      validate,
		logger:         logger,
		passingDefault: passingDefault,
		now:            time.Now,
	}
}

// RecordAttempt appends an attempt, recomputes the (user, quiz) summary
// from the full attempt set, upserts the module completion on a pass,
// and refreshes the user's quiz average.
//
// The ceiling check runs before the append, outside the summary
// transaction: a pair of truly simultaneous submissions from the same
// client can both pass the check and overrun the limit by one. That
// soft bound is accepted; the summary still converges because it is
// always re-derived from the attempt set.
func (s *QuizAttemptService) RecordAttempt(ctx context.Context, req RecordAttemptRequest) (*dto.AttemptResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	if req.UserID == "" && req.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id or email is required")
	}

	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.FindByID(ctx, req.QuizID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	limit, limited := quiz.AttemptLimit()

	used, err := s.attempts.CountByUserAndQuiz(ctx, user.ID, quiz.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if limited && used >= limit {
		return nil, appErrors.WithDetails(appErrors.ErrLimitReached, map[string]interface{}{
			"used":    used,
			"allowed": limit,
			"left":    0,
		})
	}

	attempt := &models.Attempt{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		QuizID:           quiz.ID,
		Score:            req.Score,
		Total:            req.Total,
		Percent:          models.ScorePercent(req.Score, req.Total),
		Reason:           req.Reason,
		TimeTakenSeconds: req.TimeTakenSeconds,
		SubmittedAt:      s.now().UTC(),
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to record attempt")
	}

	summary, err := s.attempts.RecomputeSummary(ctx, user.ID, quiz.ID, quiz.AttemptsAllowed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update attempt summary")
	}

	passed := attempt.Percent >= quiz.PassThreshold(s.passingDefault)
	moduleCompleted := false
	if passed && quiz.ModuleID != "" {
		if err := s.completions.Upsert(ctx, user.ID, quiz.ModuleID, quiz.CourseID, models.CompletionSourceQuizPass); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to record module completion")
		}
		moduleCompleted = true
	}

	if err := s.refreshQuizAverage(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("quiz attempt recorded",
		zap.String("user_id", user.ID),
		zap.String("quiz_id", quiz.ID),
		zap.Int("percent", attempt.Percent),
		zap.Bool("passed", passed),
	)

	usage := dto.AttemptUsage{Used: summary.AttemptsUsed}
	if limited {
		allowed := limit
		left := limit - summary.AttemptsUsed
		if left < 0 {
			left = 0
		}
		usage.Allowed = &allowed
		usage.Left = &left
	}

	return &dto.AttemptResult{
		AttemptID:       attempt.ID,
		Percent:         attempt.Percent,
		Passed:          passed,
		ModuleCompleted: moduleCompleted,
		Attempts:        usage,
	}, nil
}

// AttemptHistory lists a user's attempts on one quiz, oldest first.
func (s *QuizAttemptService) AttemptHistory(ctx context.Context, userID, quizID string) ([]models.Attempt, error) {
	if userID == "" || quizID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id and quiz_id are required")
	}
	attempts, err := s.attempts.ListByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return attempts, nil
}

func (s *QuizAttemptService) resolveUser(ctx context.Context, req RecordAttemptRequest) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if req.UserID != "" {
		user, err = s.users.FindByID(ctx, req.UserID)
	} else {
		user, err = s.users.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return user, nil
}

// refreshQuizAverage recomputes the user's quiz average as the mean of
// per-quiz best percents across all summaries.
func (s *QuizAttemptService) refreshQuizAverage(ctx context.Context, userID string) error {
	summaries, err := s.attempts.SummariesByUser(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt summaries")
	}
	if len(summaries) == 0 {
		return nil
	}
	total := 0
	for _, sum := range summaries {
		total += sum.BestPercent
	}
	avg := float64(total) / float64(len(summaries))
	if err := s.users.UpdateAverageQuizScore(ctx, userID, avg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update quiz average")
	}
	return nil
}
