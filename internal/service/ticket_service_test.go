package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/idgen"
)

func steppingClock(start int64) (idgen.Clock, func(int64)) {
	current := start
	return func() time.Time { return time.UnixMilli(current) }, func(ms int64) { current = ms }
}

func TestApplyIssuesTicketWithSnapshot(t *testing.T) {
	clock, _ := steppingClock(1_710_000_000_123)
	svc := NewTicketService(idgen.New(clock, 1), nil, nil)

	ticket, err := svc.Apply(2, models.ApplicantForm{FullName: " Sita Rao ", Email: "sita@example.com", Year: "TY"})
	require.NoError(t, err)
	assert.Equal(t, "TICKET-1710000000123", ticket.ID)
	assert.Equal(t, "Sita Rao", ticket.Applicant.FullName)
	assert.Equal(t, "Full-Stack Web Dev Sprint", ticket.Challenge.Title)

	stored, err := svc.Get(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, *ticket, *stored)
}

func TestTicketIDsCollideWithinOneMillisecond(t *testing.T) {
	clock, set := steppingClock(1_710_000_000_000)
	svc := NewTicketService(idgen.New(clock, 1), nil, nil)
	form := models.ApplicantForm{FullName: "Amit", Email: "amit@example.com"}

	first, err := svc.Apply(1, form)
	require.NoError(t, err)
	second, err := svc.Apply(3, form)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stored, err := svc.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Challenge.ID)

	set(1_710_000_000_001)
	third, err := svc.Apply(1, form)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestApplyRejectsBadInput(t *testing.T) {
	svc := NewTicketService(nil, nil, nil)

	_, err := svc.Apply(1, models.ApplicantForm{FullName: "Amit", Email: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Apply(99, models.ApplicantForm{FullName: "Amit", Email: "amit@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Get("TICKET-0")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, svc.ListChallenges(), 4)
}
