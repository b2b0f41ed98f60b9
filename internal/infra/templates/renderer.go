// internal/infra/templates/renderer.go
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
)

//go:embed files
var embedded embed.FS

// ErrTemplateMissing is returned when no template exists for an email type.
var ErrTemplateMissing = errors.New("email template not found")

// EmailData is passed to every email template.
type EmailData struct {
	Snapshot quality.SellerSnapshot
	PixelURL string
}

// Renderer holds the parsed email templates and HTML pages.
type Renderer struct {
	emails *template.Template
	pages  *template.Template
}

var funcs = template.FuncMap{
	"percent": func(rate float64) string { return fmt.Sprintf("%.2f%%", rate*100) },
	"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"statusHref": func(sellerID, emailType, status string) string {
		return StatusQuery(sellerID, emailType, tracking.ResolutionStatus(status))
	},
}

// New parses the embedded templates, or the ones under dir when it is set.
// An override directory uses the same email/ and page/ layout.
func New(dir string) (*Renderer, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "files")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	emails, err := template.New("emails").Funcs(funcs).ParseFS(fsys, "email/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	pages, err := template.New("pages").Funcs(funcs).ParseFS(fsys, "page/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &Renderer{emails: emails, pages: pages}, nil
}

// RenderEmail renders the subject and body for an email type such as "last_warning".
func (r *Renderer) RenderEmail(emailType string, data EmailData) (subject, body string, err error) {
	if r.emails.Lookup(emailType) == nil || r.emails.Lookup(emailType+"_subject") == nil {
		return "", "", fmt.Errorf("%w: %q", ErrTemplateMissing, emailType)
	}

	var buf bytes.Buffer
	if err := r.emails.ExecuteTemplate(&buf, emailType+"_subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", emailType, err)
	}
	// Subjects are plain text; undo the HTML escaping applied by the template.
	subject = html.UnescapeString(strings.TrimSpace(buf.String()))

	buf.Reset()
	if err := r.emails.ExecuteTemplate(&buf, emailType, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", emailType, err)
	}
	return subject, buf.String(), nil
}

func (r *Renderer) StatusUpdated(w io.Writer, resp *tracking.Response) error {
	return r.pages.ExecuteTemplate(w, "status_updated", resp)
}

func (r *Renderer) History(w io.Writer, h *tracking.History) error {
	return r.pages.ExecuteTemplate(w, "history", h)
}

// NotFound renders a plain not-found page with the given message.
func (r *Renderer) NotFound(w io.Writer, message string) error {
	return r.pages.ExecuteTemplate(w, "not_found", message)
}
