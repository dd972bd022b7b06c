package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type mockQuizCatalog struct {
	quizzes map[string]*models.Quiz
}

func (m *mockQuizCatalog) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return q, nil
	}
	return nil, mongo.ErrNoDocuments
}

type mockAttemptLog struct {
	attempts []models.Attempt
}

func (m *mockAttemptLog) CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error) {
	count := 0
	for _, a := range m.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			count++
		}
	}
	return count, nil
}

func (m *mockAttemptLog) Insert(ctx context.Context, attempt *models.Attempt) error {
	m.attempts = append(m.attempts, *attempt)
	return nil
}

// RecomputeSummary mirrors the production derivation: the summary is
// rebuilt from the full attempt set, never incremented.
func (m *mockAttemptLog) RecomputeSummary(ctx context.Context, userID, quizID string, attemptsAllowed int) (*models.QuizAttemptSummary, error) {
	summary := &models.QuizAttemptSummary{
		ID:              models.SummaryID(userID, quizID),
		UserID:          userID,
		QuizID:          quizID,
		AttemptsAllowed: attemptsAllowed,
	}
	var last time.Time
	for _, a := range m.attempts {
		if a.UserID != userID || a.QuizID != quizID {
			continue
		}
		summary.AttemptsUsed++
		if a.Percent > summary.BestPercent {
			summary.BestPercent = a.Percent
		}
		if last.IsZero() || a.SubmittedAt.After(last) {
			last = a.SubmittedAt
			summary.LastScore = a.Score
			summary.LastSubmittedAt = a.SubmittedAt
		}
	}
	return summary, nil
}

func (m *mockAttemptLog) SummariesByUser(ctx context.Context, userID string) ([]models.QuizAttemptSummary, error) {
	quizIDs := make(map[string]struct{})
	for _, a := range m.attempts {
		if a.UserID == userID {
			quizIDs[a.QuizID] = struct{}{}
		}
	}
	var summaries []models.QuizAttemptSummary
	for quizID := range quizIDs {
		summary, _ := m.RecomputeSummary(ctx, userID, quizID, 0)
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (m *mockAttemptLog) ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error) {
	var attempts []models.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

type mockCompletionLog struct {
	upserts []string
}

func (m *mockCompletionLog) Upsert(ctx context.Context, userID, moduleID, courseID, source string) error {
	m.upserts = append(m.upserts, models.CompletedModuleID(userID, moduleID))
	return nil
}

type mockAttemptUsers struct {
	users    map[string]*models.User
	averages map[string]float64
}

func (m *mockAttemptUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockAttemptUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockAttemptUsers) UpdateAverageQuizScore(ctx context.Context, userID string, avg float64) error {
	if m.averages == nil {
		m.averages = make(map[string]float64)
	}
	m.averages[userID] = avg
	return nil
}

func newAttemptFixture(quiz *models.Quiz) (*QuizAttemptService, *mockAttemptLog, *mockCompletionLog, *mockAttemptUsers) {
	quizzes := &mockQuizCatalog{quizzes: map[string]*models.Quiz{quiz.ID: quiz}}
	attempts := &mockAttemptLog{}
	completions := &mockCompletionLog{}
	users := &mockAttemptUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "ana@example.com", FirstName: "Ana", LastName: "Reyes"},
	}}
	svc := NewQuizAttemptService(quizzes, attempts, completions, users, 60, nil, nil)
	return svc, attempts, completions, users
}

func TestRecordAttemptEnforcesCeiling(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1", AttemptsAllowed: 2}
	svc, _, _, _ := newAttemptFixture(quiz)

	for i := 0; i < 2; i++ {
		_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 5, Total: 10})
		require.NoError(t, err)
	}

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 9, Total: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrLimitReached)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 2, appErr.Details["used"])
	assert.Equal(t, 2, appErr.Details["allowed"])
	assert.Equal(t, 0, appErr.Details["left"])
}

func TestRecordAttemptBestPercentIsMonotonic(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, attempts, _, _ := newAttemptFixture(quiz)

	scores := []int{4, 9, 7}
	var lastBest int
	for _, score := range scores {
		_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: score, Total: 10})
		require.NoError(t, err)
		summary, err := attempts.RecomputeSummary(context.Background(), "u1", "q1", 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, summary.BestPercent, lastBest, "best percent never regresses")
		lastBest = summary.BestPercent
	}
	assert.Equal(t, 90, lastBest)
}

func TestRecordAttemptUnlimitedQuizOmitsUsage(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1", AttemptsAllowed: 0}
	svc, _, _, _ := newAttemptFixture(quiz)

	result, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 3, Total: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts.Used)
	assert.Nil(t, result.Attempts.Allowed)
	assert.Nil(t, result.Attempts.Left)
}

func TestRecordAttemptPassCompletesModule(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1", ModuleID: "m1", AttemptsAllowed: 3}
	svc, _, completions, users := newAttemptFixture(quiz)

	result, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 8, Total: 10})
	require.NoError(t, err)

	assert.Equal(t, 80, result.Percent)
	assert.True(t, result.Passed)
	assert.True(t, result.ModuleCompleted)
	require.NotNil(t, result.Attempts.Allowed)
	assert.Equal(t, 3, *result.Attempts.Allowed)
	require.NotNil(t, result.Attempts.Left)
	assert.Equal(t, 2, *result.Attempts.Left)

	require.Len(t, completions.upserts, 1)
	assert.Equal(t, models.CompletedModuleID("u1", "m1"), completions.upserts[0])
	assert.InDelta(t, 80, users.averages["u1"], 0.001)
}

func TestRecordAttemptFailBelowThreshold(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1", ModuleID: "m1", PassingPercent: 75}
	svc, _, completions, _ := newAttemptFixture(quiz)

	result, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 7, Total: 10})
	require.NoError(t, err)
	assert.Equal(t, 70, result.Percent)
	assert.False(t, result.Passed)
	assert.False(t, result.ModuleCompleted)
	assert.Empty(t, completions.upserts)
}

func TestRecordAttemptZeroTotalScoresZero(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, _, _, _ := newAttemptFixture(quiz)

	result, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 0, Total: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Percent)
	assert.False(t, result.Passed)
}

func TestRecordAttemptResolvesByEmail(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, attempts, _, _ := newAttemptFixture(quiz)

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{Email: "ana@example.com", QuizID: "q1", Score: 5, Total: 10})
	require.NoError(t, err)
	require.Len(t, attempts.attempts, 1)
	assert.Equal(t, "u1", attempts.attempts[0].UserID)
}

func TestRecordAttemptRequiresIdentity(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, _, _, _ := newAttemptFixture(quiz)

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{QuizID: "q1", Score: 5, Total: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRecordAttemptUnknownQuiz(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, _, _, _ := newAttemptFixture(quiz)

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "u1", QuizID: "missing", Score: 5, Total: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAttemptHistoryValidatesInput(t *testing.T) {
	quiz := &models.Quiz{ID: "q1", CourseID: "crs1"}
	svc, _, _, _ := newAttemptFixture(quiz)

	_, err := svc.AttemptHistory(context.Background(), "", "q1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
