package models

import "time"

// Role flags carried on a user document.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is the canonical account document. The average fields are
// denormalized rollups maintained by the attempt and grading pipelines,
// never by profile CRUD.
type User struct {
	ID        string `bson:"_id" json:"id"`
	Email     string `bson:"email" json:"email"`
	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	PhotoURL  string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Role      string `bson:"role" json:"role"`
	Active    bool   `bson:"active" json:"active"`

	// Human-readable sequence ids, set when the matching role is granted.
	StudentID string `bson:"student_id,omitempty" json:"student_id,omitempty"`
	TeacherID string `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`

	AverageQuizScore       float64 `bson:"average_quiz_score" json:"average_quiz_score"`
	AverageAssignmentGrade float64 `bson:"average_assignment_grade" json:"average_assignment_grade"`

	// Legacy documents predate the opt-in flag; a missing value means
	// opted in, normalized through OptedIn rather than at read sites.
	LeaderboardOptIn *bool `bson:"leaderboard_opt_in,omitempty" json:"leaderboard_opt_in,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins the name parts for display.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// OptedIn reports leaderboard participation, defaulting to true.
func (u *User) OptedIn() bool {
	return u.LeaderboardOptIn == nil || *u.LeaderboardOptIn
}
