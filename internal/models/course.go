package models

import "time"

// Course is teacher-authored content. AssignedClasses controls which
// class rosters see it.
type Course struct {
	ID              string    `bson:"_id" json:"id"`
	TeacherID       string    `bson:"teacher_id" json:"teacher_id"`
	Title           string    `bson:"title" json:"title"`
	Subject         string    `bson:"subject,omitempty" json:"subject,omitempty"`
	AssignedClasses []string  `bson:"assigned_classes" json:"assigned_classes"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// Module is a course-scoped content unit.
type Module struct {
	ID       string     `bson:"_id" json:"id"`
	CourseID string     `bson:"course_id" json:"course_id"`
	Number   int        `bson:"number" json:"number"`
	Title    string     `bson:"title" json:"title"`
	DueAt    *time.Time `bson:"due_at,omitempty" json:"due_at,omitempty"`
}

// Quiz is a course-scoped assessment, optionally tied to a module so a
// passing attempt completes it.
type Quiz struct {
	ID              string     `bson:"_id" json:"id"`
	CourseID        string     `bson:"course_id" json:"course_id"`
	ModuleID        string     `bson:"module_id,omitempty" json:"module_id,omitempty"`
	Number          int        `bson:"number" json:"number"`
	Title           string     `bson:"title" json:"title"`
	AttemptsAllowed int        `bson:"attempts_allowed" json:"attempts_allowed"`
	PassingPercent  int        `bson:"passing_percent" json:"passing_percent"`
	DueAt           *time.Time `bson:"due_at,omitempty" json:"due_at,omitempty"`
}

// AttemptLimit normalizes the stored ceiling: legacy documents store 0
// (and some omit the field) to mean unlimited.
func (q *Quiz) AttemptLimit() (limit int, limited bool) {
	if q.AttemptsAllowed <= 0 {
		return 0, false
	}
	return q.AttemptsAllowed, true
}

// PassThreshold returns the quiz passing percent, falling back to the
// supplied default when the document omits it.
func (q *Quiz) PassThreshold(fallback int) int {
	if q.PassingPercent <= 0 {
		return fallback
	}
	return q.PassingPercent
}

// Assignment is a course-scoped deliverable with an optional due date.
type Assignment struct {
	ID       string     `bson:"_id" json:"id"`
	CourseID string     `bson:"course_id" json:"course_id"`
	ModuleID string     `bson:"module_id,omitempty" json:"module_id,omitempty"`
	Number   int        `bson:"number" json:"number"`
	Title    string     `bson:"title" json:"title"`
	DueAt    *time.Time `bson:"due_at,omitempty" json:"due_at,omitempty"`
}

// Submission records a student handing in an assignment; Grade mirrors
// the teacher's grading and drives the average assignment rollup.
type Submission struct {
	ID           string     `bson:"_id" json:"id"`
	UserID       string     `bson:"user_id" json:"user_id"`
	AssignmentID string     `bson:"assignment_id" json:"assignment_id"`
	CourseID     string     `bson:"course_id" json:"course_id"`
	SubmittedAt  time.Time  `bson:"submitted_at" json:"submitted_at"`
	Grade        *int       `bson:"grade,omitempty" json:"grade,omitempty"`
	GradedAt     *time.Time `bson:"graded_at,omitempty" json:"graded_at,omitempty"`
}

// OnTime reports whether the submission landed at or before the
// assignment due date. Assignments without a due date never count as
// on-time for reward purposes.
func (s *Submission) OnTime(dueAt *time.Time) bool {
	if dueAt == nil {
		return false
	}
	return !s.SubmittedAt.After(*dueAt)
}
