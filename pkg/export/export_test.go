package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterDataset() Dataset {
	return Dataset{
		Headers: []string{"ID", "Name", "Email"},
		Rows: []map[string]string{
			{"ID": "1", "Name": "Amit", "Email": "amit@example.com"},
			{"ID": "2", "Name": "Rahul, Jr", "Email": "rahul@example.com"},
		},
	}
}

func TestCSVRenderQuotesAndOrders(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterDataset())
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Email\n1,Amit,amit@example.com\n2,\"Rahul, Jr\",rahul@example.com\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterDataset(), "Student roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{}, "empty")
	assert.Error(t, err)
}

func TestPDFRenderCard(t *testing.T) {
	out, err := NewPDFExporter().RenderCard("Challenge ticket", "TICKET-1", []Field{
		{Label: "Name", Value: "Sita"},
		{Label: "Challenge", Value: "AI/ML Model Optimization"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().RenderCard("x", "", nil)
	assert.Error(t, err)
}

func TestPDFRendersNonASCIIText(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Name"},
		Rows:    []map[string]string{{"Name": "José Müller"}},
	}, "Élèves")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	again, err := exporter.RenderCard("Café", "ünïcode", []Field{{Label: "Ñame", Value: "Zoë"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(again, []byte("%PDF-")))
}
