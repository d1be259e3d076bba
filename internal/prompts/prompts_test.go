package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Analysis(t *testing.T) {
	out, err := Render(Analysis, AnalysisData{
		Helpline:    "1076",
		Complaint:   "No water in Aliganj since Monday",
		Language:    "en",
		Departments: "Public Works|Water Supply|General Services",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "CM Helpline 1076")
	assert.Contains(t, out, "Complaint: No water in Aliganj since Monday")
	assert.Contains(t, out, `"department": "Public Works|Water Supply|General Services"`)
	assert.Contains(t, out, "Only respond with valid JSON.")
}

func TestRender_Replies(t *testing.T) {
	data := ReplyData{
		Helpline:     "1076",
		Complaint:    "Pothole near <school> & market",
		Category:     "Infrastructure",
		Priority:     "high",
		Language:     "hi",
		Department:   "Public Works",
		Contact:      "0522-2237547",
		Emergency:    "112",
		ResponseTime: "3-5 days",
	}

	stream, err := Render(ReplyStream, data)
	require.NoError(t, err)
	assert.Contains(t, stream, `Complaint: "Pothole near <school> & market"`, "text templates do not escape")
	assert.Contains(t, stream, "Emergency: 112")
	assert.Contains(t, stream, "Response Time: 3-5 days")
	assert.Contains(t, stream, "No markdown formatting.")

	chat, err := Render(ReplyChat, data)
	require.NoError(t, err)
	assert.Contains(t, chat, "Contact: 0522-2237547")
	assert.Contains(t, chat, "2-3 sentences")
}

func TestRender_Unknown(t *testing.T) {
	_, err := Render("missing.tmpl", nil)
	assert.Error(t, err)
}
