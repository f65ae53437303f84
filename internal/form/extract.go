package form

import (
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Input is the raw state of a step's inputs as read from a form post.
type Input struct {
	// Checked holds the checked values of a checkbox or radio group that
	// belong to the step's option set, in option order.
	Checked []string

	ZipCode   string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Consent   bool
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Extract reads the inputs belonging to step from posted values. Values
// outside a choice step's option set are dropped, mirroring a page that
// only renders the fixed options.
func Extract(step int, values url.Values) Input {
	def, ok := Lookup(step)
	if !ok {
		return Input{}
	}

	switch def.Kind {
	case KindMultiChoice, KindSingleChoice:
		return Input{Checked: checkedOptions(def, values[def.Field])}
	case KindText:
		return Input{ZipCode: values.Get(def.Field)}
	case KindContact:
		return Input{
			FirstName: sanitizeText(values.Get(FieldFirstName)),
			LastName:  sanitizeText(values.Get(FieldLastName)),
			Phone:     values.Get(FieldPhone),
			Email:     values.Get(FieldEmail),
			Consent:   truthy(values.Get(FieldSMSConsent)),
		}
	}
	return Input{}
}

func checkedOptions(def Step, submitted []string) []string {
	seen := make(map[string]bool, len(submitted))
	for _, v := range submitted {
		seen[strings.TrimSpace(v)] = true
	}
	var out []string
	for _, opt := range def.Options {
		if seen[opt] {
			out = append(out, opt)
		}
	}
	return out
}

func sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicy entity-encodes what it keeps; names travel as plain text.
	return html.UnescapeString(textSanitizer().Sanitize(raw))
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes", "checked":
		return true
	}
	return false
}
