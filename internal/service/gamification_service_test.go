package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type mockCompletionFeed struct {
	completions []models.CompletedModule
	err         error
}

func (m *mockCompletionFeed) ListByUser(ctx context.Context, userID string) ([]models.CompletedModule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.CompletedModule
	for _, c := range m.completions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockActivityFeed struct {
	attempts  []models.Attempt
	summaries []models.QuizAttemptSummary
	err       error
}

func (m *mockActivityFeed) ListByUser(ctx context.Context, userID string) ([]models.Attempt, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockActivityFeed) SummariesByUser(ctx context.Context, userID string) ([]models.QuizAttemptSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.QuizAttemptSummary
	for _, s := range m.summaries {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockSubmissionFeed struct {
	submissions []models.Submission
}

func (m *mockSubmissionFeed) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.submissions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockQuizDirectory struct {
	quizzes []models.Quiz
}

func (m *mockQuizDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.Quiz, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Quiz
	for _, q := range m.quizzes {
		if _, ok := want[q.ID]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type mockAssignmentDirectory struct {
	assignments []models.Assignment
}

func (m *mockAssignmentDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.Assignment, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Assignment
	for _, a := range m.assignments {
		if _, ok := want[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockMirrorFeed struct {
	mirrors []models.Enrollment
}

func (m *mockMirrorFeed) MirrorsByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, mir := range m.mirrors {
		if mir.UserID == userID {
			out = append(out, mir)
		}
	}
	return out, nil
}

type mockCourseCatalog struct {
	courses []models.Course
}

func (m *mockCourseCatalog) FindAssignedToClasses(ctx context.Context, classIDs []string) ([]models.Course, error) {
	want := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		want[id] = struct{}{}
	}
	var out []models.Course
	for _, c := range m.courses {
		for _, classID := range c.AssignedClasses {
			if _, ok := want[classID]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type mockModuleCatalog struct {
	modules []models.Module
}

func (m *mockModuleCatalog) ListByCourses(ctx context.Context, courseIDs []string) ([]models.Module, error) {
	want := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = struct{}{}
	}
	var out []models.Module
	for _, mod := range m.modules {
		if _, ok := want[mod.CourseID]; ok {
			out = append(out, mod)
		}
	}
	return out, nil
}

type mockUserFeed struct {
	users map[string]*models.User
}

func (m *mockUserFeed) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type gamificationFixture struct {
	svc         *GamificationService
	completions *mockCompletionFeed
	activity    *mockActivityFeed
	submissions *mockSubmissionFeed
	assignments *mockAssignmentDirectory
	quizzes     *mockQuizDirectory
}

func newGamificationFixture() *gamificationFixture {
	f := &gamificationFixture{
		completions: &mockCompletionFeed{},
		activity:    &mockActivityFeed{},
		submissions: &mockSubmissionFeed{},
		assignments: &mockAssignmentDirectory{},
		quizzes:     &mockQuizDirectory{},
	}
	f.svc = NewGamificationService(GamificationServiceParams{
		Completions: f.completions,
		Attempts:    f.activity,
		Submissions: f.submissions,
		Quizzes:     f.quizzes,
		Assignments: f.assignments,
		Mirrors:     &mockMirrorFeed{},
		Courses:     &mockCourseCatalog{},
		Modules:     &mockModuleCatalog{},
		Users: &mockUserFeed{users: map[string]*models.User{
			"u1": {ID: "u1", FirstName: "Ana", LastName: "Reyes"},
		}},
	})
	return f
}

func ts(daysAgo int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -daysAgo)
}

func TestPointsBreakdown(t *testing.T) {
	f := newGamificationFixture()
	f.completions.completions = []models.CompletedModule{
		{UserID: "u1", ModuleID: "m1", CourseID: "crs1", CompletedAt: ts(1)},
		{UserID: "u1", ModuleID: "m2", CourseID: "crs1", CompletedAt: ts(2)},
	}
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 40, SubmittedAt: ts(3)},
		{UserID: "u1", QuizID: "q1", Percent: 90, SubmittedAt: ts(2)},
		{UserID: "u1", QuizID: "q2", Percent: 70, SubmittedAt: ts(1)},
	}
	due := ts(1)
	f.assignments.assignments = []models.Assignment{
		{ID: "a1", CourseID: "crs1", DueAt: &due},
		{ID: "a2", CourseID: "crs1", DueAt: &due},
		{ID: "a3", CourseID: "crs1"},
	}
	f.submissions.submissions = []models.Submission{
		{UserID: "u1", AssignmentID: "a1", SubmittedAt: ts(2)}, // on time
		{UserID: "u1", AssignmentID: "a2", SubmittedAt: ts(0)}, // late
		{UserID: "u1", AssignmentID: "a3", SubmittedAt: ts(2)}, // no due date
	}

	points := f.svc.Points(context.Background(), "u1", PointsFilter{})
	assert.Equal(t, 20, points.Modules)
	assert.Equal(t, 160, points.Quizzes, "best percent per quiz: 90 + 70")
	assert.Equal(t, 20, points.Assignments)
	assert.Equal(t, 200, points.Total)
}

func TestPointsTimeframeBoundsBestScore(t *testing.T) {
	f := newGamificationFixture()
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 95, SubmittedAt: ts(40)},
		{UserID: "u1", QuizID: "q1", Percent: 50, SubmittedAt: ts(2)},
	}

	all := f.svc.Points(context.Background(), "u1", PointsFilter{})
	assert.Equal(t, 95, all.Quizzes)

	weekly := f.svc.Points(context.Background(), "u1", PointsFilter{StartMs: ts(7).UnixMilli()})
	assert.Equal(t, 50, weekly.Quizzes, "the 95 outside the window must not count")
}

func TestPointsCourseFilter(t *testing.T) {
	f := newGamificationFixture()
	f.completions.completions = []models.CompletedModule{
		{UserID: "u1", ModuleID: "m1", CourseID: "crs1", CompletedAt: ts(1)},
		{UserID: "u1", ModuleID: "m9", CourseID: "crs2", CompletedAt: ts(1)},
	}
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 80, SubmittedAt: ts(1)},
		{UserID: "u1", QuizID: "q2", Percent: 60, SubmittedAt: ts(1)},
	}
	f.quizzes.quizzes = []models.Quiz{
		{ID: "q1", CourseID: "crs1"},
		{ID: "q2", CourseID: "crs2"},
	}

	points := f.svc.Points(context.Background(), "u1", PointsFilter{CourseIDs: []string{"crs1"}})
	assert.Equal(t, 10, points.Modules)
	assert.Equal(t, 80, points.Quizzes)
}

func TestPointsDegradeToZeroOnSubFailure(t *testing.T) {
	f := newGamificationFixture()
	f.completions.err = errors.New("store down")
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 75, SubmittedAt: ts(1)},
	}

	points := f.svc.Points(context.Background(), "u1", PointsFilter{})
	assert.Equal(t, 0, points.Modules, "failed sub-query contributes zero")
	assert.Equal(t, 75, points.Quizzes, "healthy sub-queries still count")
}

func TestStreakCountsBackFromToday(t *testing.T) {
	f := newGamificationFixture()
	f.completions.completions = []models.CompletedModule{
		{UserID: "u1", ModuleID: "m1", CourseID: "crs1", CompletedAt: ts(0)},
	}
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 50, SubmittedAt: ts(1)},
	}
	f.submissions.submissions = []models.Submission{
		{UserID: "u1", AssignmentID: "a1", SubmittedAt: ts(2)},
		// Gap at three days ago; older activity must not extend the streak.
		{UserID: "u1", AssignmentID: "a2", SubmittedAt: ts(4)},
	}

	assert.Equal(t, 3, f.svc.Streak(context.Background(), "u1"))
}

func TestStreakZeroWithoutActivityToday(t *testing.T) {
	f := newGamificationFixture()
	f.activity.attempts = []models.Attempt{
		{UserID: "u1", QuizID: "q1", Percent: 50, SubmittedAt: ts(1)},
		{UserID: "u1", QuizID: "q1", Percent: 60, SubmittedAt: ts(2)},
	}

	assert.Equal(t, 0, f.svc.Streak(context.Background(), "u1"))
}

func TestBadgeQuizWhiz(t *testing.T) {
	f := newGamificationFixture()
	f.activity.summaries = []models.QuizAttemptSummary{
		{UserID: "u1", QuizID: "q1", BestPercent: 92},
	}

	badges := f.svc.Badges(context.Background(), "u1")
	assert.Contains(t, badges, "Quiz Whiz")
}

func TestBadgeOnTimeAchiever(t *testing.T) {
	f := newGamificationFixture()
	due := ts(1)
	f.assignments.assignments = []models.Assignment{
		{ID: "a1", CourseID: "crs1", DueAt: &due},
		{ID: "a2", CourseID: "crs1", DueAt: &due},
		{ID: "a3", CourseID: "crs1", DueAt: &due},
	}
	f.submissions.submissions = []models.Submission{
		{UserID: "u1", AssignmentID: "a1", SubmittedAt: ts(2)},
		{UserID: "u1", AssignmentID: "a2", SubmittedAt: ts(2)},
		{UserID: "u1", AssignmentID: "a3", SubmittedAt: ts(2)},
	}

	badges := f.svc.Badges(context.Background(), "u1")
	assert.Contains(t, badges, "On-Time Achiever")
}

func TestBadgeModuleMasterByCount(t *testing.T) {
	f := newGamificationFixture()
	for i := 0; i < 10; i++ {
		f.completions.completions = append(f.completions.completions, models.CompletedModule{
			UserID: "u1", ModuleID: string(rune('a' + i)), CourseID: "crs1", CompletedAt: ts(i),
		})
	}

	badges := f.svc.Badges(context.Background(), "u1")
	assert.Contains(t, badges, "Module Master")
}

func TestBadgeModuleMasterByRatio(t *testing.T) {
	completions := &mockCompletionFeed{completions: []models.CompletedModule{
		{UserID: "u1", ModuleID: "m1", CourseID: "crs1", CompletedAt: ts(1)},
		{UserID: "u1", ModuleID: "m2", CourseID: "crs1", CompletedAt: ts(1)},
		{UserID: "u1", ModuleID: "m3", CourseID: "crs1", CompletedAt: ts(1)},
		{UserID: "u1", ModuleID: "m4", CourseID: "crs1", CompletedAt: ts(1)},
	}}
	svc := NewGamificationService(GamificationServiceParams{
		Completions: completions,
		Attempts:    &mockActivityFeed{},
		Submissions: &mockSubmissionFeed{},
		Quizzes:     &mockQuizDirectory{},
		Assignments: &mockAssignmentDirectory{},
		Mirrors: &mockMirrorFeed{mirrors: []models.Enrollment{
			{UserID: "u1", ClassID: "c1"},
		}},
		Courses: &mockCourseCatalog{courses: []models.Course{
			{ID: "crs1", AssignedClasses: []string{"c1"}},
		}},
		Modules: &mockModuleCatalog{modules: []models.Module{
			{ID: "m1", CourseID: "crs1"},
			{ID: "m2", CourseID: "crs1"},
			{ID: "m3", CourseID: "crs1"},
			{ID: "m4", CourseID: "crs1"},
			{ID: "m5", CourseID: "crs1"},
		}},
		Users: &mockUserFeed{users: map[string]*models.User{"u1": {ID: "u1"}}},
	})

	// 4 of 5 modules completed is 80%, exactly the threshold.
	badges := svc.Badges(context.Background(), "u1")
	assert.Contains(t, badges, "Module Master")
}

func TestRewardsComposition(t *testing.T) {
	f := newGamificationFixture()
	f.completions.completions = []models.CompletedModule{
		{UserID: "u1", ModuleID: "m1", CourseID: "crs1", CompletedAt: ts(0)},
	}
	f.activity.summaries = []models.QuizAttemptSummary{
		{UserID: "u1", QuizID: "q1", BestPercent: 95},
	}

	rewards, err := f.svc.Rewards(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, rewards.TotalPoints)
	assert.Equal(t, 1, rewards.StreakDays)
	assert.Contains(t, rewards.RecentBadges, "Quiz Whiz")
	assert.True(t, rewards.OptIn)
}

func TestRewardsUnknownUser(t *testing.T) {
	f := newGamificationFixture()

	_, err := f.svc.Rewards(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
