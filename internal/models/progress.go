package models

import (
	"math"
	"time"
)

// CompletedModule marks a module done for a user, created by a quiz
// pass or an explicit completion. Keyed by (user, module) so repeated
// completion is a no-op upsert.
type CompletedModule struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	ModuleID    string    `bson:"module_id" json:"module_id"`
	CourseID    string    `bson:"course_id" json:"course_id"`
	Source      string    `bson:"source" json:"source"`
	CompletedAt time.Time `bson:"completed_at" json:"completed_at"`
}

// CompletedModuleID builds the composite completion document id.
func CompletedModuleID(userID, moduleID string) string {
	return userID + ":" + moduleID
}

// Completion sources.
const (
	CompletionSourceQuizPass = "quiz_pass"
	CompletionSourceManual   = "manual"
)

// Attempt is an append-only record of one quiz submission.
type Attempt struct {
	ID               string    `bson:"_id" json:"id"`
	UserID           string    `bson:"user_id" json:"user_id"`
	QuizID           string    `bson:"quiz_id" json:"quiz_id"`
	Score            int       `bson:"score" json:"score"`
	Total            int       `bson:"total" json:"total"`
	Percent          int       `bson:"percent" json:"percent"`
	Reason           string    `bson:"reason,omitempty" json:"reason,omitempty"`
	TimeTakenSeconds int       `bson:"time_taken_seconds,omitempty" json:"time_taken_seconds,omitempty"`
	SubmittedAt      time.Time `bson:"submitted_at" json:"submitted_at"`
}

// QuizAttemptSummary is the denormalized per-(user, quiz) rollup.
// AttemptsUsed and BestPercent are always re-derived from the full
// attempt set on write, never incremented, so a lost race self-corrects
// on the next successful write.
type QuizAttemptSummary struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	QuizID          string    `bson:"quiz_id" json:"quiz_id"`
	AttemptsUsed    int       `bson:"attempts_used" json:"attempts_used"`
	AttemptsAllowed int       `bson:"attempts_allowed" json:"attempts_allowed"`
	LastScore       int       `bson:"last_score" json:"last_score"`
	BestPercent     int       `bson:"best_percent" json:"best_percent"`
	LastSubmittedAt time.Time `bson:"last_submitted_at" json:"last_submitted_at"`
}

// SummaryID builds the composite summary document id.
func SummaryID(userID, quizID string) string {
	return userID + ":" + quizID
}

// Counter is the per-(role, year) monotonic sequence document backing
// generated human-readable ids.
type Counter struct {
	ID    string `bson:"_id" json:"id"`
	Value int64  `bson:"value" json:"value"`
}

// ScorePercent converts a raw score into a whole percent, rounding to
// the nearest integer. A zero total yields 0 rather than dividing by
// zero.
func ScorePercent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
