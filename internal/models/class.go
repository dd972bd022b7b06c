package models

import "time"

// Class is a teacher-owned student group. Students holds the roster
// size maintained by enroll/unenroll increments; it can drift from the
// true roster count and is treated as advisory, never recomputed.
type Class struct {
	ID         string    `bson:"_id" json:"id"`
	TeacherID  string    `bson:"teacher_id" json:"teacher_id"`
	Name       string    `bson:"name" json:"name"`
	GradeLevel string    `bson:"grade_level,omitempty" json:"grade_level,omitempty"`
	Section    string    `bson:"section,omitempty" json:"section,omitempty"`
	SchoolYear string    `bson:"school_year,omitempty" json:"school_year,omitempty"`
	Semester   string    `bson:"semester,omitempty" json:"semester,omitempty"`
	Students   int       `bson:"students" json:"students"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// RosterEntry is the authoritative record of a student's membership in
// a class, keyed by (class, student sequence id).
type RosterEntry struct {
	ID         string    `bson:"_id" json:"id"`
	ClassID    string    `bson:"class_id" json:"class_id"`
	StudentID  string    `bson:"student_id" json:"student_id"`
	FullName   string    `bson:"full_name" json:"full_name"`
	Email      string    `bson:"email" json:"email"`
	PhotoURL   string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Active     bool      `bson:"active" json:"active"`
	EnrolledAt time.Time `bson:"enrolled_at" json:"enrolled_at"`
}

// RosterEntryID builds the composite roster document id.
func RosterEntryID(classID, studentID string) string {
	return classID + ":" + studentID
}

// Enrollment mirrors a roster relationship on the student side for fast
// personal listings. The roster entry is the source of truth; the
// mirror is written in lockstep with it.
type Enrollment struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	ClassID    string    `bson:"class_id" json:"class_id"`
	ClassName  string    `bson:"class_name" json:"class_name"`
	GradeLevel string    `bson:"grade_level,omitempty" json:"grade_level,omitempty"`
	Section    string    `bson:"section,omitempty" json:"section,omitempty"`
	SchoolYear string    `bson:"school_year,omitempty" json:"school_year,omitempty"`
	Semester   string    `bson:"semester,omitempty" json:"semester,omitempty"`
	TeacherID  string    `bson:"teacher_id" json:"teacher_id"`
	EnrolledAt time.Time `bson:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentID builds the composite mirror document id.
func EnrollmentID(userID, classID string) string {
	return userID + ":" + classID
}
