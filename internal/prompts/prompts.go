// Package prompts holds the compiled-in prompt templates sent to the
// language model providers.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	Analysis    = "analysis.tmpl"
	ReplyStream = "reply_stream.tmpl"
	ReplyChat   = "reply_chat.tmpl"
)

var templates = template.Must(
	template.New("prompts").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl"),
)

// AnalysisData fills the classification prompt.
type AnalysisData struct {
	Helpline    string
	Complaint   string
	Language    string
	Departments string
}

// ReplyData fills both reply prompts.
type ReplyData struct {
	Helpline     string
	Complaint    string
	Category     string
	Priority     string
	Language     string
	Department   string
	Contact      string
	Emergency    string
	ResponseTime string
}

// Render executes the named template.
func Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
