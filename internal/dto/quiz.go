package dto

// AttemptUsage reports ceiling consumption for a (user, quiz) pair.
// Allowed is nil for unlimited quizzes, in which case Left is also nil.
type AttemptUsage struct {
	Used    int  `json:"used"`
	Allowed *int `json:"allowed"`
	Left    *int `json:"left"`
}

// AttemptResult is the successful outcome of recording a quiz attempt.
type AttemptResult struct {
	AttemptID       string       `json:"attempt_id"`
	Percent         int          `json:"percent"`
	Passed          bool         `json:"passed"`
	ModuleCompleted bool         `json:"module_completed"`
	Attempts        AttemptUsage `json:"attempts"`
}
