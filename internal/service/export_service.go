package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type rosterSource interface {
	ListStudents(query string) []models.Student
}

type ticketSource interface {
	Get(id string) (*models.Ticket, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderCard(title, subtitle string, fields []export.Field) ([]byte, error)
}

// ExportResult is a rendered, downloadable document.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders roster snapshots and tickets. It only reads from its
// sources.
type ExportService struct {
	roster  rosterSource
	tickets ticketSource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterSource, tickets ticketSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{roster: roster, tickets: tickets, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Roster renders the students matching query in the requested format.
func (s *ExportService) Roster(query, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	students := s.roster.ListStudents(query)
	dataset := export.Dataset{Headers: []string{"ID", "Name", "Email"}}
	for _, st := range students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":    strconv.Itoa(st.ID),
			"Name":  st.Name,
			"Email": st.Email,
		})
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Student roster")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.logger.Debug("roster exported", zap.String("format", format), zap.Int("students", len(students)))
	return &ExportResult{
		Filename:    fmt.Sprintf("students_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// TicketPDF renders an issued ticket.
func (s *ExportService) TicketPDF(id string) (*ExportResult, error) {
	ticket, err := s.tickets.Get(id)
	if err != nil {
		return nil, err
	}
	fields := []export.Field{
		{Label: "Name", Value: ticket.Applicant.FullName},
		{Label: "Email", Value: ticket.Applicant.Email},
		{Label: "Contact", Value: ticket.Applicant.Contact},
		{Label: "Year", Value: ticket.Applicant.Year},
		{Label: "Challenge", Value: ticket.Challenge.Title},
		{Label: "Category", Value: ticket.Challenge.Category},
		{Label: "Difficulty", Value: ticket.Challenge.Difficulty},
		{Label: "Teacher", Value: ticket.Challenge.Teacher},
		{Label: "Dates", Value: ticket.Challenge.TimeSpan},
		{Label: "Issued", Value: ticket.IssuedAt.Format(time.RFC1123)},
	}
	payload, err := s.pdf.RenderCard("Challenge ticket", ticket.ID, fields)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render ticket")
	}
	return &ExportResult{
		Filename:    sanitizeFilename(ticket.ID) + ".pdf",
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
