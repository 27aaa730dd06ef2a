package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

type enrollmentService interface {
	ListJoinedClassrooms() []models.Classroom
	JoinClassroom(ctx context.Context, code string) (*models.Classroom, error)
}

type joinRequest struct {
	Code string `json:"code"`
}

// EnrollmentHandler exposes the student side: classrooms joined in this session.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List joined classrooms
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.enrollments.ListJoinedClassrooms())
}

// Join godoc
// @Summary Join a classroom by code
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body joinRequest true "Class code"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.enrollments.JoinClassroom(c.Request.Context(), req.Code)
	if classroom == nil {
		response.Error(c, err)
		return
	}
	response.Stored(c, http.StatusCreated, classroom, err)
}
