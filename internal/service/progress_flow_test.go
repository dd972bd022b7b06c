package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
)

// Walks one student through the full flow: enroll into a class, pass a
// quiz, and end up with the module completed and the quiz average
// rolled up onto the user.
func TestStudentProgressFlow(t *testing.T) {
	ctx := context.Background()

	store := newMockEnrollmentStore()
	students := &mockStudentDirectory{users: map[string]*models.User{
		"u1": {ID: "u1", StudentID: "S-2025-00001", Email: "ana@example.com", FirstName: "Ana", LastName: "Reyes", Role: models.RoleStudent},
	}}
	classes := &mockClassDirectory{classes: map[string]*models.Class{
		"c1": {ID: "c1", Name: "Grade 7 - Einstein", TeacherID: "t1"},
	}}
	enrollment := NewEnrollmentService(store, students, classes, nil, nil)

	quiz := &models.Quiz{ID: "q1", CourseID: "crs1", ModuleID: "m1", AttemptsAllowed: 3}
	quizzes, attempts, completions, users := newAttemptFixture(quiz)

	enrolled, err := enrollment.Enroll(ctx, EnrollRequest{ClassID: "c1", StudentID: "S-2025-00001"})
	require.NoError(t, err)
	assert.True(t, enrolled.Success)
	assert.False(t, enrolled.AlreadyEnrolled)

	mirrors, err := enrollment.ListEnrollments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, "c1", mirrors[0].ClassID)

	result, err := quizzes.RecordAttempt(ctx, RecordAttemptRequest{UserID: "u1", QuizID: "q1", Score: 8, Total: 10})
	require.NoError(t, err)
	assert.Equal(t, 80, result.Percent)
	assert.True(t, result.Passed)
	assert.True(t, result.ModuleCompleted)

	require.Len(t, attempts.attempts, 1)
	require.Len(t, completions.upserts, 1)
	assert.Equal(t, models.CompletedModuleID("u1", "m1"), completions.upserts[0])
	assert.InDelta(t, 80, users.averages["u1"], 0.001, "average quiz score derives from the single best percent")
}
