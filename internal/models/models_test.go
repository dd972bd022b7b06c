package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScorePercentRounding(t *testing.T) {
	assert.Equal(t, 80, ScorePercent(8, 10))
	assert.Equal(t, 67, ScorePercent(2, 3))
	assert.Equal(t, 33, ScorePercent(1, 3))
	assert.Equal(t, 100, ScorePercent(10, 10))
	assert.Equal(t, 0, ScorePercent(0, 10))
	assert.Equal(t, 0, ScorePercent(5, 0), "zero total never divides")
	assert.Equal(t, 0, ScorePercent(5, -1))
}

func TestAttemptLimitNormalization(t *testing.T) {
	unlimited := &Quiz{AttemptsAllowed: 0}
	limit, limited := unlimited.AttemptLimit()
	assert.False(t, limited)
	assert.Equal(t, 0, limit)

	legacy := &Quiz{AttemptsAllowed: -1}
	_, limited = legacy.AttemptLimit()
	assert.False(t, limited, "negative legacy values mean unlimited")

	capped := &Quiz{AttemptsAllowed: 3}
	limit, limited = capped.AttemptLimit()
	assert.True(t, limited)
	assert.Equal(t, 3, limit)
}

func TestPassThresholdFallback(t *testing.T) {
	q := &Quiz{}
	assert.Equal(t, 60, q.PassThreshold(60))

	q.PassingPercent = 75
	assert.Equal(t, 75, q.PassThreshold(60))
}

func TestOptedInDefaultsTrue(t *testing.T) {
	u := &User{}
	assert.True(t, u.OptedIn(), "missing flag means opted in")

	yes, no := true, false
	u.LeaderboardOptIn = &yes
	assert.True(t, u.OptedIn())
	u.LeaderboardOptIn = &no
	assert.False(t, u.OptedIn())
}

func TestSubmissionOnTime(t *testing.T) {
	due := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)

	early := &Submission{SubmittedAt: due.Add(-time.Hour)}
	assert.True(t, early.OnTime(&due))

	exact := &Submission{SubmittedAt: due}
	assert.True(t, exact.OnTime(&due))

	late := &Submission{SubmittedAt: due.Add(time.Minute)}
	assert.False(t, late.OnTime(&due))

	assert.False(t, late.OnTime(nil), "no due date never counts as on time")
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ana Reyes", (&User{FirstName: "Ana", LastName: "Reyes"}).FullName())
	assert.Equal(t, "Ana", (&User{FirstName: "Ana"}).FullName())
	assert.Equal(t, "Reyes", (&User{LastName: "Reyes"}).FullName())
}

func TestCompositeIDs(t *testing.T) {
	assert.Equal(t, "c1:S-2025-00001", RosterEntryID("c1", "S-2025-00001"))
	assert.Equal(t, "u1:c1", EnrollmentID("u1", "c1"))
	assert.Equal(t, "u1:m1", CompletedModuleID("u1", "m1"))
	assert.Equal(t, "u1:q1", SummaryID("u1", "q1"))
}
