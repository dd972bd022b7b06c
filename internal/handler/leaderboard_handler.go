package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// LeaderboardHandler exposes the peer leaderboard endpoint.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

// NewLeaderboardHandler constructs LeaderboardHandler.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Leaderboard godoc
// @Summary Ranked peers by points
// @Tags Rewards
// @Produce json
// @Param user_id query string true "Requesting user id"
// @Param scope query string true "class or subject"
// @Param class_id query string false "Class id (class scope)"
// @Param subject query string false "Subject term (subject scope)"
// @Param timeframe query string false "week, month or all"
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	req := service.LeaderboardRequest{
		UserID:    c.Query("user_id"),
		Scope:     c.DefaultQuery("scope", service.ScopeClass),
		ClassID:   c.Query("class_id"),
		Subject:   c.Query("subject"),
		Timeframe: c.DefaultQuery("timeframe", service.TimeframeAll),
	}
	entries, err := h.leaderboard.Build(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
