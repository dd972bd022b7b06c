package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// QuizHandler exposes quiz attempt endpoints.
type QuizHandler struct {
	attempts *service.QuizAttemptService
}

// NewQuizHandler constructs QuizHandler.
func NewQuizHandler(attempts *service.QuizAttemptService) *QuizHandler {
	return &QuizHandler{attempts: attempts}
}

// SubmitScore godoc
// @Summary Record a quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.RecordAttemptRequest true "Attempt payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Attempt limit reached"
// @Router /submit-quiz-score [post]
func (h *QuizHandler) SubmitScore(c *gin.Context) {
	var req service.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attempts.RecordAttempt(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// AttemptHistory godoc
// @Summary List a student's attempts on a quiz
// @Tags Quizzes
// @Produce json
// @Param quizId path string true "Quiz id"
// @Param user_id query string true "User id"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{quizId}/attempts [get]
func (h *QuizHandler) AttemptHistory(c *gin.Context) {
	attempts, err := h.attempts.AttemptHistory(c.Request.Context(), c.Query("user_id"), c.Param("quizId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}
