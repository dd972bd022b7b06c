package dto

// Badge labels awarded by the gamification calculator.
const (
	BadgeQuizWhiz       = "Quiz Whiz"
	BadgeOnTimeAchiever = "On-Time Achiever"
	BadgeModuleMaster   = "Module Master"
)

// PointsBreakdown itemizes where a point total came from.
type PointsBreakdown struct {
	Total       int `json:"total"`
	Modules     int `json:"modules"`
	Quizzes     int `json:"quizzes"`
	Assignments int `json:"assignments"`
}

// RewardsSummary backs GET /api/students/:userId/rewards.
type RewardsSummary struct {
	TotalPoints  int      `json:"total_points"`
	StreakDays   int      `json:"streak_days"`
	RecentBadges []string `json:"recent_badges"`
	OptIn        bool     `json:"opt_in"`
}

// LeaderboardEntry is one ranked row of a peer leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	TopBadge string `json:"top_badge,omitempty"`
	Rank     int    `json:"rank"`
	IsSelf   bool   `json:"is_self,omitempty"`
}
