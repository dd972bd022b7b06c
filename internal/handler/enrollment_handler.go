package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
	"github.com/EduConnectOfficial/educonnect-api/pkg/response"
)

// EnrollmentHandler exposes roster membership endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

type enrollBody struct {
	StudentID string `json:"student_id"`
}

type bulkEnrollBody struct {
	StudentIDs []string `json:"student_ids"`
}

// Enroll godoc
// @Summary Enroll one student into a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body enrollBody true "Student reference"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var body enrollBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), service.EnrollRequest{
		ClassID:   c.Param("classId"),
		StudentID: body.StudentID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkEnroll godoc
// @Summary Enroll a batch of students into a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body bulkEnrollBody true "Student references"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/bulk [post]
func (h *EnrollmentHandler) BulkEnroll(c *gin.Context) {
	var body bulkEnrollBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.enrollments.BulkEnroll(c.Request.Context(), c.Param("classId"), body.StudentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Unenroll godoc
// @Summary Remove a student from a class
// @Tags Enrollments
// @Produce json
// @Param classId path string true "Class id"
// @Param studentId path string true "Student sequence id"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	removed, err := h.enrollments.Unenroll(c.Request.Context(), c.Param("classId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// Roster godoc
// @Summary List a class roster
// @Tags Enrollments
// @Produce json
// @Param classId path string true "Class id"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students [get]
func (h *EnrollmentHandler) Roster(c *gin.Context) {
	entries, err := h.enrollments.Roster(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListEnrollments godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} response.Envelope
// @Router /students/{userId}/enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	mirrors, err := h.enrollments.ListEnrollments(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mirrors, nil)
}
