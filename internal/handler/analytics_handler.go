package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/middleware"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// AnalyticsHandler exposes the teacher dashboard and its exports.
type AnalyticsHandler struct {
	analytics *service.TeacherAnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.TeacherAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard godoc
// @Summary Teacher analytics dashboard
// @Tags Analytics
// @Produce json
// @Param class_id query string false "Narrow to one class"
// @Param format query string false "csv or pdf for file export"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/analytics [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	teacherID := claims.UserID
	// Admins may inspect any teacher's dashboard.
	if claims.Role == models.RoleAdmin {
		if override := c.Query("teacher_id"); override != "" {
			teacherID = override
		}
	}
	classID := c.Query("class_id")

	switch c.Query("format") {
	case "csv":
		data, err := h.analytics.ExportCSV(c.Request.Context(), teacherID, classID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, data, "text/csv", exportFilename("csv"))
	case "pdf":
		data, err := h.analytics.ExportPDF(c.Request.Context(), teacherID, classID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, data, "application/pdf", exportFilename("pdf"))
	case "":
		analytics, err := h.analytics.BuildAnalytics(c.Request.Context(), teacherID, classID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, analytics, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("student-analytics-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
}
