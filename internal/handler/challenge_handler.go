package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/service"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

type ticketService interface {
	ListChallenges() []models.Challenge
	Apply(challengeID int, form models.ApplicantForm) (*models.Ticket, error)
}

type ticketExporter interface {
	TicketPDF(id string) (*service.ExportResult, error)
}

// ChallengeHandler exposes the challenge catalog and ticket issuing.
type ChallengeHandler struct {
	tickets ticketService
	exports ticketExporter
}

// NewChallengeHandler constructs ChallengeHandler.
func NewChallengeHandler(tickets ticketService, exports ticketExporter) *ChallengeHandler {
	return &ChallengeHandler{tickets: tickets, exports: exports}
}

// List godoc
// @Summary List challenges
// @Tags Challenges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /challenges [get]
func (h *ChallengeHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.tickets.ListChallenges())
}

// Apply godoc
// @Summary Apply for a challenge and receive a ticket
// @Tags Challenges
// @Accept json
// @Produce json
// @Param id path int true "Challenge ID"
// @Param payload body models.ApplicantForm true "Applicant"
// @Success 201 {object} response.Envelope
// @Router /challenges/{id}/tickets [post]
func (h *ChallengeHandler) Apply(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid challenge id"))
		return
	}
	var form models.ApplicantForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ticket, err := h.tickets.Apply(id, form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ticket)
}

// TicketPDF godoc
// @Summary Download a ticket as PDF
// @Tags Challenges
// @Produce application/pdf
// @Param id path string true "Ticket ID"
// @Success 200 {file} file
// @Router /tickets/{id}/pdf [get]
func (h *ChallengeHandler) TicketPDF(c *gin.Context) {
	result, err := h.exports.TicketPDF(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, result)
}

func writeDownload(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
