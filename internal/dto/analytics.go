package dto

// GradeBucket is one bar of the 5-bucket grade distribution histogram.
type GradeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ClassCompletion is a per-class completion-rate data point.
type ClassCompletion struct {
	ClassID           string  `json:"class_id"`
	ClassName         string  `json:"class_name"`
	Students          int     `json:"students"`
	CompletionPercent float64 `json:"completion_percent"`
}

// StudentAnalytics is the per-student row of a teacher dashboard.
type StudentAnalytics struct {
	UserID               string  `json:"user_id"`
	StudentID            string  `json:"student_id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	ClassID              string  `json:"class_id"`
	ClassName            string  `json:"class_name"`
	Courses              int     `json:"courses"`
	ModulesCompleted     int     `json:"modules_completed"`
	ModulesTotal         int     `json:"modules_total"`
	CompletionPercent    float64 `json:"completion_percent"`
	AverageScore         float64 `json:"average_score"`
	AvgTimeOnTaskSeconds float64 `json:"avg_time_on_task_seconds"`
	AtRisk               bool    `json:"at_risk"`
}

// AnalyticsSummary is the headline block of a teacher dashboard.
type AnalyticsSummary struct {
	TotalStudents int     `json:"total_students"`
	TotalClasses  int     `json:"total_classes"`
	TotalCourses  int     `json:"total_courses"`
	AverageScore  float64 `json:"average_score"`
	AtRiskCount   int     `json:"at_risk_count"`
}

// AnalyticsCharts groups the chart-ready series.
type AnalyticsCharts struct {
	GradeDistribution []GradeBucket     `json:"grade_distribution"`
	CompletionRate    []ClassCompletion `json:"completion_rate"`
}

// TeacherAnalytics is the full dashboard payload. CSV and PDF exports
// are serializations of this same structure.
type TeacherAnalytics struct {
	Summary  AnalyticsSummary   `json:"summary"`
	Charts   AnalyticsCharts    `json:"charts"`
	Students []StudentAnalytics `json:"students"`
}
