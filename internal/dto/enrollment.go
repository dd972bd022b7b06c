package dto

// EnrollResult reports the outcome of a single enroll call.
type EnrollResult struct {
	Success         bool `json:"success"`
	AlreadyEnrolled bool `json:"already_enrolled"`
}

// Bulk enrollment per-id outcomes.
const (
	BulkOutcomeEnrolled = "enrolled"
	BulkOutcomeAlready  = "already"
	BulkOutcomeNotFound = "not_found"
	BulkOutcomeError    = "error"
)

// BulkEnrollDetail is the per-student line of a bulk enrollment report.
type BulkEnrollDetail struct {
	StudentID string `json:"student_id"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message,omitempty"`
}

// BulkEnrollReport aggregates a bulk enrollment run. One failing id
// never aborts the batch; every id gets a detail line.
type BulkEnrollReport struct {
	Total           int                `json:"total"`
	Enrolled        int                `json:"enrolled"`
	AlreadyEnrolled int                `json:"already_enrolled"`
	NotFound        int                `json:"not_found"`
	Errors          int                `json:"errors"`
	Details         []BulkEnrollDetail `json:"details"`
}
