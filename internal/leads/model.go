package leads

import (
	"time"

	"github.com/wolfman30/smp-leadform/internal/form"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Lead is the record posted to the webhooks. The answer set is flattened
// into the top level of the payload.
type Lead struct {
	form.Answers
	Timestamp   string `json:"timestamp"`
	LeadScore   int    `json:"leadScore"`
	LeadQuality string `json:"leadQuality"`
	Variant     string `json:"variant,omitempty"`
}

// NewLead scores answers and stamps the record. The score is fixed from
// here on.
func NewLead(answers form.Answers, now time.Time, thresholds form.Thresholds, variant string) Lead {
	score := form.Score(answers)
	answers.HairLossType = append([]string(nil), answers.HairLossType...)
	return Lead{
		Answers:     answers,
		Timestamp:   now.UTC().Format(TimestampLayout),
		LeadScore:   score,
		LeadQuality: form.Quality(score, thresholds),
		Variant:     variant,
	}
}

// SubmitResult is returned by a successful submit.
type SubmitResult struct {
	Redirect    string `json:"redirect"`
	WebsiteURL  string `json:"website_url,omitempty"`
	LeadScore   int    `json:"lead_score"`
	LeadQuality string `json:"lead_quality"`
}
