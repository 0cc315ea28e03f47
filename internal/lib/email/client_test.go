package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderJobBooked(t *testing.T) {
	TemplateDir = "../../../templates/emails"

	job := JobBooked{
		JobID:        42,
		Reference:    "PO-1138",
		Due:          "2026-10-20 09:00",
		Duration:     90,
		Address:      "Drottninggatan 1",
		Town:         "Stockholm",
		Instructions: "<b>ring twice</b>",
	}

	html, err := Render(TemplateJobBooked, job.TemplateData())
	require.NoError(t, err)

	assert.Contains(t, html, "Your booking #42 is confirmed")
	assert.Contains(t, html, "PO-1138")
	assert.Contains(t, html, "90 min")
	assert.Contains(t, html, "Drottninggatan 1, Stockholm")
	assert.Contains(t, html, "&lt;b&gt;ring twice&lt;/b&gt;")
}

func TestRenderOmitsEmptyOptionalRows(t *testing.T) {
	TemplateDir = "../../../templates/emails"

	html, err := Render(TemplateJobBooked, JobBooked{JobID: 1, Due: "now"}.TemplateData())
	require.NoError(t, err)

	assert.NotContains(t, html, "Reference")
	assert.NotContains(t, html, "Instructions")
}

func TestRenderUnknownTemplate(t *testing.T) {
	TemplateDir = "../../../templates/emails"

	_, err := Render(Template("missing"), nil)
	assert.Error(t, err)
}
