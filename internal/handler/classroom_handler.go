package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

const maxMaterialBytes = 10 << 20

type classroomService interface {
	ListClassrooms() []models.Classroom
	ClassroomDetail(id int64) (*models.ClassroomDetail, error)
	CreateClassroom(ctx context.Context, draft models.ClassroomDraft) (*models.Classroom, error)
	EditClassroom(ctx context.Context, id int64, patch models.ClassroomPatch) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, id int64) error
	AddMaterial(ctx context.Context, classroomID int64, upload models.MaterialUpload) (*models.Material, error)
	ResolveMaterial(ref string) (string, *os.File, error)
	AssignTask(classroomID int64, name string) (*models.Task, error)
	PostMessage(classroomID int64, text string) (*models.Message, error)
}

type textRequest struct {
	Text string `json:"text"`
}

type taskRequest struct {
	Name string `json:"name"`
}

// ClassroomHandler exposes teacher classroom endpoints.
type ClassroomHandler struct {
	classrooms classroomService
}

// NewClassroomHandler constructs ClassroomHandler.
func NewClassroomHandler(classrooms classroomService) *ClassroomHandler {
	return &ClassroomHandler{classrooms: classrooms}
}

// List godoc
// @Summary List classrooms
// @Description Seed classrooms first, then created ones in creation order
// @Tags Classrooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.classrooms.ListClassrooms())
}

// Get godoc
// @Summary Classroom detail with materials, tasks, assignments and messages
// @Tags Classrooms
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *ClassroomHandler) Get(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	detail, err := h.classrooms.ClassroomDetail(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Create godoc
// @Summary Create classroom
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body models.ClassroomDraft true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classrooms [post]
func (h *ClassroomHandler) Create(c *gin.Context) {
	var draft models.ClassroomDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.classrooms.CreateClassroom(c.Request.Context(), draft)
	if classroom == nil {
		response.Error(c, err)
		return
	}
	response.Stored(c, http.StatusCreated, classroom, err)
}

// Update godoc
// @Summary Edit classroom name and/or subject
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param payload body models.ClassroomPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [patch]
func (h *ClassroomHandler) Update(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	var patch models.ClassroomPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.classrooms.EditClassroom(c.Request.Context(), id, patch)
	if classroom == nil {
		response.Error(c, err)
		return
	}
	response.Stored(c, http.StatusOK, classroom, err)
}

// Delete godoc
// @Summary Delete classroom
// @Description Unknown ids are accepted, so the call is idempotent
// @Tags Classrooms
// @Param id path int true "Classroom ID"
// @Success 204
// @Router /classrooms/{id} [delete]
func (h *ClassroomHandler) Delete(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	if err := h.classrooms.DeleteClassroom(c.Request.Context(), id); err != nil {
		response.Stored(c, http.StatusOK, gin.H{"id": id, "deleted": true}, err)
		return
	}
	response.NoContent(c)
}

// UploadMaterial godoc
// @Summary Upload a material to a classroom
// @Tags Classrooms
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Classroom ID"
// @Param file formData file true "Material file"
// @Param name formData string false "Display name, defaults to the file name"
// @Success 201 {object} response.Envelope
// @Router /classrooms/{id}/materials [post]
func (h *ClassroomHandler) UploadMaterial(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if header.Size > maxMaterialBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxMaterialBytes))
	if err != nil {
		response.Error(c, err)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = header.Filename
	}
	material, err := h.classrooms.AddMaterial(c.Request.Context(), id, models.MaterialUpload{Name: name, Content: content})
	if material == nil {
		response.Error(c, err)
		return
	}
	response.Stored(c, http.StatusCreated, material, err)
}

// DownloadMaterial godoc
// @Summary Download material content by reference
// @Tags Classrooms
// @Produce octet-stream
// @Param token path string true "Material content reference"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /materials/{token} [get]
func (h *ClassroomHandler) DownloadMaterial(c *gin.Context) {
	name, file, err := h.classrooms.ResolveMaterial(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}

// AssignTask godoc
// @Summary Assign a task to a classroom
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param payload body taskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Router /classrooms/{id}/tasks [post]
func (h *ClassroomHandler) AssignTask(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.classrooms.AssignTask(id, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// PostMessage godoc
// @Summary Post to a classroom discussion
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param payload body textRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /classrooms/{id}/messages [post]
func (h *ClassroomHandler) PostMessage(c *gin.Context) {
	id, ok := classroomID(c)
	if !ok {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	msg, err := h.classrooms.PostMessage(id, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

func classroomID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classroom id"))
		return 0, false
	}
	return id, true
}
