package form

import (
	"regexp"
	"strings"
)

var (
	zipPattern   = regexp.MustCompile(`^[0-9]{5}$`)
	phonePattern = regexp.MustCompile(`^[\(]?[0-9]{3}[\)]?[\s\-]?[0-9]{3}[\s\-]?[0-9]{4}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Messages shown for the contact step and the zip step.
const (
	MsgZipInvalid        = "Please enter a valid 5-digit zip code"
	MsgFirstNameRequired = "First name is required"
	MsgLastNameRequired  = "Last name is required"
	MsgPhoneRequired     = "Phone number is required"
	MsgPhoneInvalid      = "Please enter a valid US phone number"
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Please enter a valid email address"
	MsgEmailBlocked      = "Please use a different email address"
	MsgConsentRequired   = "You must consent to receive SMS notifications"
)

// Rules carries the configurable parts of validation.
type Rules struct {
	MinPhoneLength       int
	RequireAllFields     bool
	EmailDomainBlacklist []string
}

// DefaultRules matches the landing page defaults.
func DefaultRules() Rules {
	return Rules{MinPhoneLength: 10, RequireAllFields: true}
}

// Contact is the trimmed contact block of the final step.
type Contact struct {
	FirstName  string
	LastName   string
	Phone      string
	Email      string
	SMSConsent bool
}

// Result is the outcome of validating one step.
type Result struct {
	Valid bool
	// Message is the error text shown for the step; empty when valid.
	Message string
	// Fields lists inputs that should carry the error state.
	Fields []string

	Selected []string
	Value    string
	Contact  Contact
}

// Validate checks the inputs of a question step.
func Validate(step int, in Input, rules Rules) Result {
	def, ok := Lookup(step)
	if !ok {
		return Result{Message: "Unknown step"}
	}

	switch def.Kind {
	case KindMultiChoice:
		if len(in.Checked) == 0 {
			return Result{Message: def.Prompt}
		}
		return Result{Valid: true, Selected: append([]string(nil), in.Checked...)}

	case KindSingleChoice:
		if len(in.Checked) != 1 {
			return Result{Message: def.Prompt}
		}
		return Result{Valid: true, Value: in.Checked[0]}

	case KindText:
		return validateZip(def, in.ZipCode)

	case KindContact:
		return ValidateContact(in, rules)
	}
	return Result{Message: "Unknown step"}
}

func validateZip(def Step, raw string) Result {
	zip := strings.TrimSpace(raw)
	switch {
	case zip == "":
		return Result{Message: def.Prompt, Fields: []string{FieldZipCode}}
	case !zipPattern.MatchString(zip):
		return Result{Message: MsgZipInvalid, Fields: []string{FieldZipCode}}
	}
	return Result{Valid: true, Value: zip}
}

// ValidateContact checks the contact step. Every failing field is reported
// and the messages are joined into one.
func ValidateContact(in Input, rules Rules) Result {
	contact := Contact{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      strings.TrimSpace(in.Email),
		SMSConsent: in.Consent,
	}

	var errs, fields []string
	fail := func(field, msg string) {
		if field != "" {
			fields = append(fields, field)
		}
		errs = append(errs, msg)
	}

	if rules.RequireAllFields {
		if contact.FirstName == "" {
			fail(FieldFirstName, MsgFirstNameRequired)
		}
		if contact.LastName == "" {
			fail(FieldLastName, MsgLastNameRequired)
		}
	}

	switch {
	case contact.Phone == "":
		fail(FieldPhone, MsgPhoneRequired)
	case !phonePattern.MatchString(contact.Phone) || len(Digits(contact.Phone)) < rules.MinPhoneLength:
		fail(FieldPhone, MsgPhoneInvalid)
	}

	switch {
	case contact.Email == "":
		fail(FieldEmail, MsgEmailRequired)
	case !emailPattern.MatchString(contact.Email):
		fail(FieldEmail, MsgEmailInvalid)
	case blockedDomain(contact.Email, rules.EmailDomainBlacklist):
		fail(FieldEmail, MsgEmailBlocked)
	}

	// The consent checkbox is not styled as an errored field.
	if !contact.SMSConsent {
		fail("", MsgConsentRequired)
	}

	if len(errs) > 0 {
		return Result{Message: strings.Join(errs, ". "), Fields: fields, Contact: contact}
	}
	return Result{Valid: true, Contact: contact}
}

func blockedDomain(email string, blacklist []string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || len(blacklist) == 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, blocked := range blacklist {
		if strings.EqualFold(strings.TrimSpace(blocked), domain) {
			return true
		}
	}
	return false
}
