// Package email renders notification emails and delivers them over SMTP.
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/garyjia/travel-approval/internal/application/port"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultSignature closes every email
const DefaultSignature = "Travel Approval System"

var subjects = map[port.EmailTemplate]func(d port.EmailData) string{
	port.TemplateRequestSubmitted: func(d port.EmailData) string {
		return fmt.Sprintf("Travel Request %s Submitted by %s", d.RequestID, d.RequesterName)
	},
	port.TemplateManagerApproval: func(d port.EmailData) string {
		return fmt.Sprintf("ACTION REQUIRED: Approve Travel Request %s for %s", d.RequestID, d.RequesterName)
	},
	port.TemplateDuHeadApproval: func(d port.EmailData) string {
		return fmt.Sprintf("ACTION REQUIRED: DU Head Approval for TR %s", d.RequestID)
	},
	port.TemplateTicketOptions: func(d port.EmailData) string {
		return fmt.Sprintf("ACTION REQUIRED: Select Ticket Option for TR %s", d.RequestID)
	},
	port.TemplateProvideOptions: func(d port.EmailData) string {
		return fmt.Sprintf("ACTION REQUIRED: Provide Ticket Options for TR %s", d.RequestID)
	},
	port.TemplateRequestApproved: func(d port.EmailData) string {
		return fmt.Sprintf("Travel Request %s Approved", d.RequestID)
	},
	port.TemplateRequestRejected: func(d port.EmailData) string {
		return fmt.Sprintf("Travel Request %s Rejected", d.RequestID)
	},
	port.TemplateTicketBooked: func(d port.EmailData) string {
		return fmt.Sprintf("Ticket Booked for Travel Request %s", d.RequestID)
	},
	port.TemplateGeneral: func(d port.EmailData) string {
		return fmt.Sprintf("Notification for Travel Request %s", d.RequestID)
	},
}

// view is what the layout executes against
type view struct {
	port.EmailData
	Signature string
}

// Renderer renders the embedded notification templates
type Renderer struct {
	templates map[port.EmailTemplate]*template.Template
	signature string
}

// NewRenderer parses every template once
func NewRenderer(signature string) (*Renderer, error) {
	if signature == "" {
		signature = DefaultSignature
	}

	r := &Renderer{
		templates: make(map[port.EmailTemplate]*template.Template, len(subjects)),
		signature: signature,
	}
	for name := range subjects {
		tmpl, err := template.New(string(name)).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+string(name)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render returns the subject and HTML body for one notification
func (r *Renderer) Render(name port.EmailTemplate, data port.EmailData) (string, string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", view{EmailData: data, Signature: r.signature}); err != nil {
		return "", "", fmt.Errorf("failed to render email template %s: %w", name, err)
	}
	return subjects[name](data), body.String(), nil
}

var _ port.EmailRenderer = (*Renderer)(nil)
