// Package form holds the pure logic of the qualification form: field
// extraction, per-step validation, lead scoring and step navigation.
package form

// TotalSteps is the number of question steps. The confirmation view is TotalSteps+1.
const (
	TotalSteps       = 7
	ConfirmationStep = TotalSteps + 1
	ContactStep      = 7
	ZipStep          = 6
)

// Field names as posted by the landing page.
const (
	FieldHairLossType    = "hairLossType"
	FieldUnderstandSMP   = "understandSMP"
	FieldSeverity        = "severity"
	FieldScalpConditions = "scalpConditions"
	FieldTimeline        = "timeline"
	FieldZipCode         = "zipCode"
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldSMSConsent      = "smsConsent"
)

// Kind describes how a step collects its answer.
type Kind int

const (
	KindMultiChoice Kind = iota + 1
	KindSingleChoice
	KindText
	KindContact
)

// Step describes one question card.
type Step struct {
	Number  int
	Field   string
	Kind    Kind
	Options []string
	// Prompt is the message shown when nothing valid was selected.
	Prompt string
}

var steps = []Step{
	{
		Number: 1,
		Field:  FieldHairLossType,
		Kind:   KindMultiChoice,
		Options: []string{
			"receding-hairline",
			"thinning-crown",
			"diffuse-thinning",
			"completely-bald",
			"alopecia",
			"scar-camouflage",
		},
		Prompt: "Please select at least one option to continue",
	},
	{
		Number:  2,
		Field:   FieldUnderstandSMP,
		Kind:    KindSingleChoice,
		Options: []string{"yes-understood", "somewhat", "no-explain"},
		Prompt:  "Please select an option to continue",
	},
	{
		Number:  3,
		Field:   FieldSeverity,
		Kind:    KindSingleChoice,
		Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
		Prompt:  "Please rate your hair loss severity",
	},
	{
		Number:  4,
		Field:   FieldScalpConditions,
		Kind:    KindSingleChoice,
		Options: []string{"no", "yes-mild", "yes-severe", "not-sure"},
		Prompt:  "Please select an option",
	},
	{
		Number:  5,
		Field:   FieldTimeline,
		Kind:    KindSingleChoice,
		Options: []string{"asap", "1-month", "1-3-months", "just-researching"},
		Prompt:  "Please select your preferred timeline",
	},
	{
		Number: ZipStep,
		Field:  FieldZipCode,
		Kind:   KindText,
		Prompt: "Please enter your zip code",
	},
	{
		Number: ContactStep,
		Kind:   KindContact,
	},
}

// Lookup returns the definition of a question step.
func Lookup(number int) (Step, bool) {
	if number < 1 || number > TotalSteps {
		return Step{}, false
	}
	return steps[number-1], true
}

// Steps returns a copy of all question step definitions in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}
