package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/middleware"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/internal/service"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Enrollments *EnrollmentHandler
	Quizzes     *QuizHandler
	Rewards     *RewardsHandler
	Leaderboard *LeaderboardHandler
	Analytics   *AnalyticsHandler
	Sequences   *SequenceHandler
}

// RouterDeps carries the cross-cutting services the router wires in.
type RouterDeps struct {
	Auth    *service.AuthService
	Metrics *service.MetricsService
	Ready   func() error
}

// Register mounts all API routes on the engine under the prefix.
func Register(r *gin.Engine, prefix string, h Handlers, deps RouterDeps) {
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group(prefix)

	classes := api.Group("/classes/:classId")
	{
		classes.GET("/students", h.Enrollments.Roster)
		classes.POST("/students", h.Enrollments.Enroll)
		classes.POST("/students/bulk", h.Enrollments.BulkEnroll)
		classes.DELETE("/students/:studentId", h.Enrollments.Unenroll)
	}

	api.POST("/submit-quiz-score", h.Quizzes.SubmitScore)
	api.GET("/quizzes/:quizId/attempts", h.Quizzes.AttemptHistory)

	api.GET("/students/:userId/enrollments", h.Enrollments.ListEnrollments)
	api.GET("/students/:userId/rewards", h.Rewards.Rewards)
	api.GET("/leaderboard", h.Leaderboard.Leaderboard)

	teacher := api.Group("/teacher")
	teacher.Use(middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	{
		teacher.GET("/analytics", h.Analytics.Dashboard)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/sequences/next", h.Sequences.Next)
	}
}
