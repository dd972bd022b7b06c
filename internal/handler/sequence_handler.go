package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// SequenceHandler exposes sequence id issuance for admin tooling.
type SequenceHandler struct {
	sequences *service.SequenceService
}

// NewSequenceHandler constructs SequenceHandler.
func NewSequenceHandler(sequences *service.SequenceService) *SequenceHandler {
	return &SequenceHandler{sequences: sequences}
}

// Next godoc
// @Summary Issue the next sequence id for a role
// @Tags Admin
// @Produce json
// @Param role query string true "student, teacher or admin"
// @Param year query int false "Sequence year, defaults to current"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sequences/next [post]
func (h *SequenceHandler) Next(c *gin.Context) {
	role := c.Query("role")
	year := time.Now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
			return
		}
		year = parsed
	}

	id, err := h.sequences.NextID(c.Request.Context(), role, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id}, nil)
}
