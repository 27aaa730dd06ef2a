package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

type threadService interface {
	ListThreads() []models.DiscussionThread
	PostThread(draft models.ThreadDraft) (*models.DiscussionThread, error)
	PostDiscussionReply(threadID int, text string) (*models.DiscussionThread, error)
}

// ThreadHandler exposes the doubt forum.
type ThreadHandler struct {
	threads threadService
}

// NewThreadHandler constructs ThreadHandler.
func NewThreadHandler(threads threadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// List godoc
// @Summary List discussion threads
// @Tags Threads
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /threads [get]
func (h *ThreadHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.threads.ListThreads())
}

// Create godoc
// @Summary Post a question
// @Tags Threads
// @Accept json
// @Produce json
// @Param payload body models.ThreadDraft true "Question"
// @Success 201 {object} response.Envelope
// @Router /threads [post]
func (h *ThreadHandler) Create(c *gin.Context) {
	var draft models.ThreadDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	thread, err := h.threads.PostThread(draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, thread)
}

// Reply godoc
// @Summary Reply to a thread
// @Tags Threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param payload body textRequest true "Reply"
// @Success 200 {object} response.Envelope
// @Router /threads/{id}/replies [post]
func (h *ThreadHandler) Reply(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid thread id"))
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	thread, err := h.threads.PostDiscussionReply(id, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thread)
}
