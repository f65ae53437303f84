package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/smp-leadform/internal/form"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// LeadNotice is what the owner is told about a new lead.
type LeadNotice struct {
	Answers     form.Answers
	Score       int
	Quality     string
	Variant     string
	SubmittedAt time.Time
}

// Service emails lead notices to a single recipient.
type Service struct {
	email     EmailSender
	recipient string
	logger    *logging.Logger
}

// NewService creates a notifier. An empty recipient disables it.
func NewService(email EmailSender, recipient string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		recipient: strings.TrimSpace(recipient),
		logger:    logger,
	}
}

// NotifyNewLead emails a summary of the lead.
func (s *Service) NotifyNewLead(ctx context.Context, notice LeadNotice) error {
	if s == nil || s.email == nil || s.recipient == "" {
		return nil
	}

	msg := EmailMessage{
		To:      s.recipient,
		Subject: leadSubject(notice),
		Body:    leadText(notice),
		HTML:    leadHTML(notice),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send lead email: %w", err)
	}
	s.logger.Info("notify: lead email sent", "to", s.recipient, "quality", notice.Quality)
	return nil
}

func leadSubject(n LeadNotice) string {
	name := strings.TrimSpace(n.Answers.FirstName + " " + n.Answers.LastName)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("New %s lead - %s (%d)", strings.ToUpper(n.Quality), name, n.Score)
}

type row struct{ label, value string }

func leadRows(n LeadNotice) []row {
	a := n.Answers
	rows := []row{
		{"Name", strings.TrimSpace(a.FirstName + " " + a.LastName)},
		{"Phone", a.Phone},
		{"Email", a.Email},
		{"Zip code", a.ZipCode},
		{"Hair loss", strings.Join(a.HairLossType, ", ")},
		{"Understands SMP", a.UnderstandSMP},
		{"Severity", a.Severity},
		{"Scalp conditions", a.ScalpConditions},
		{"Timeline", a.Timeline},
		{"SMS consent", fmt.Sprintf("%t", a.SMSConsent)},
		{"Lead score", fmt.Sprintf("%d (%s)", n.Score, n.Quality)},
	}
	if n.Variant != "" {
		rows = append(rows, row{"Variant", n.Variant})
	}
	if a.UTMSource != "" || a.UTMCampaign != "" {
		rows = append(rows, row{"Source", strings.Trim(a.UTMSource+" / "+a.UTMMedium+" / "+a.UTMCampaign, " /")})
	}
	if !n.SubmittedAt.IsZero() {
		rows = append(rows, row{"Submitted", n.SubmittedAt.Format("January 2, 2006 at 3:04 PM MST")})
	}
	return rows
}

func leadText(n LeadNotice) string {
	var b strings.Builder
	b.WriteString("A new lead completed the qualification form.\n\n")
	for _, r := range leadRows(n) {
		fmt.Fprintf(&b, "%s: %s\n", r.label, r.value)
	}
	return b.String()
}

func leadHTML(n LeadNotice) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	fmt.Fprintf(&b, `<h2>New %s lead</h2>`, html.EscapeString(n.Quality))
	b.WriteString(`<table style="border-collapse: collapse; margin: 20px 0;">`)
	for _, r := range leadRows(n) {
		fmt.Fprintf(&b, `<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
			html.EscapeString(r.label), html.EscapeString(r.value))
	}
	b.WriteString(`</table></div>`)
	return b.String()
}
