package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *ClassroomStore, *TicketService) {
	t.Helper()
	store := newTestStore(t, &fakePersister{})
	tickets := NewTicketService(nil, nil, nil)
	return NewExportService(store, tickets, zap.NewNop(), nil, nil), store, tickets
}

func TestExportRosterCSVFiltersByQuery(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	result, err := svc.Roster("sita", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))
	assert.Equal(t, "ID,Name,Email\n3,Sita,sita@example.com\n", string(result.Payload))
}

func TestExportRosterPDF(t *testing.T) {
	svc, store, _ := newExportServiceForTest(t)
	_, err := store.AddStudent(models.StudentDraft{Name: "Kiran", Email: "kiran@example.com"})
	require.NoError(t, err)

	result, err := svc.Roster("", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF-")))

	_, err = svc.Roster("", "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportTicketPDF(t *testing.T) {
	svc, _, tickets := newExportServiceForTest(t)

	_, err := svc.TicketPDF("TICKET-404")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	ticket, err := tickets.Apply(3, models.ApplicantForm{FullName: "Priya", Email: "priya@example.com"})
	require.NoError(t, err)
	result, err := svc.TicketPDF(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID+".pdf", result.Filename)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF-")))
}
