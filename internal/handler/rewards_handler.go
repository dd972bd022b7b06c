package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// RewardsHandler exposes the student rewards panel.
type RewardsHandler struct {
	gamification *service.GamificationService
}

// NewRewardsHandler constructs RewardsHandler.
func NewRewardsHandler(gamification *service.GamificationService) *RewardsHandler {
	return &RewardsHandler{gamification: gamification}
}

// Rewards godoc
// @Summary Student points, streak and badges
// @Tags Rewards
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} response.Envelope
// @Router /students/{userId}/rewards [get]
func (h *RewardsHandler) Rewards(c *gin.Context) {
	summary, err := h.gamification.Rewards(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
