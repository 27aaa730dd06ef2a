package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/service"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

type studentService interface {
	ListStudents(query string) []models.Student
	AddStudent(draft models.StudentDraft) (*models.Student, error)
}

type rosterExporter interface {
	Roster(query, format string) (*service.ExportResult, error)
}

// StudentHandler exposes student roster endpoints.
type StudentHandler struct {
	students studentService
	exports  rosterExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, exports rosterExporter) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or email"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.students.ListStudents(c.Query("search")))
}

// Create godoc
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentDraft true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var draft models.StudentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.AddStudent(draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Export godoc
// @Summary Export the roster
// @Tags Students
// @Produce text/csv,application/pdf
// @Param search query string false "Search by name or email"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	result, err := h.exports.Roster(c.Query("search"), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, result)
}
