package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/idgen"
)

// TicketService issues challenge tickets. Tickets live only in this process
// and are never written to either storage scope.
type TicketService struct {
	ids       *idgen.Generator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	tickets map[string]models.Ticket
}

// NewTicketService constructs the service.
func NewTicketService(ids *idgen.Generator, validate *validator.Validate, logger *zap.Logger) *TicketService {
	if ids == nil {
		ids = idgen.New(nil, 0)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		ids:       ids,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		tickets:   make(map[string]models.Ticket),
	}
}

// ListChallenges returns the challenge catalog.
func (s *TicketService) ListChallenges() []models.Challenge {
	return ChallengeCatalog()
}

// Apply validates form and issues a ticket for the challenge. Two
// applications in the same millisecond receive the same ticket ID; the later
// one replaces the earlier.
func (s *TicketService) Apply(challengeID int, form models.ApplicantForm) (*models.Ticket, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.Contact = strings.TrimSpace(form.Contact)
	form.Year = strings.TrimSpace(form.Year)
	if err := s.validator.Struct(form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "full name and a valid email are required")
	}

	var challenge *models.Challenge
	for _, c := range ChallengeCatalog() {
		if c.ID == challengeID {
			c := c
			challenge = &c
			break
		}
	}
	if challenge == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("challenge %d not found", challengeID))
	}

	ticket := models.Ticket{
		ID:        s.ids.GenerateID("TICKET"),
		Applicant: form,
		Challenge: *challenge,
		IssuedAt:  s.now().UTC(),
	}

	s.mu.Lock()
	if _, exists := s.tickets[ticket.ID]; exists {
		s.logger.Warn("ticket id collision", zap.String("ticket_id", ticket.ID))
	}
	s.tickets[ticket.ID] = ticket
	s.mu.Unlock()

	s.logger.Info("ticket issued", zap.String("ticket_id", ticket.ID), zap.Int("challenge_id", challengeID))
	return &ticket, nil
}

// Get returns a previously issued ticket.
func (s *TicketService) Get(id string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
	}
	return &ticket, nil
}
