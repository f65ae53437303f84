package form

import "net/url"

// Attribution query parameters captured on page load.
const (
	ParamUTMSource   = "utm_source"
	ParamUTMMedium   = "utm_medium"
	ParamUTMCampaign = "utm_campaign"
	ParamFBClickID   = "fbclid"
)

// Answers is the answer set accumulated across steps. JSON keys match the
// webhook payload consumed downstream.
type Answers struct {
	UTMSource   string `json:"utm_source" yaml:"utm_source"`
	UTMMedium   string `json:"utm_medium" yaml:"utm_medium"`
	UTMCampaign string `json:"utm_campaign" yaml:"utm_campaign"`
	FBClickID   string `json:"fbclid" yaml:"fbclid"`

	HairLossType    []string `json:"hairLossType,omitempty" yaml:"hairLossType"`
	UnderstandSMP   string   `json:"understandSMP,omitempty" yaml:"understandSMP"`
	Severity        string   `json:"severity,omitempty" yaml:"severity"`
	ScalpConditions string   `json:"scalpConditions,omitempty" yaml:"scalpConditions"`
	Timeline        string   `json:"timeline,omitempty" yaml:"timeline"`
	ZipCode         string   `json:"zipCode,omitempty" yaml:"zipCode"`

	FirstName  string `json:"firstName,omitempty" yaml:"firstName"`
	LastName   string `json:"lastName,omitempty" yaml:"lastName"`
	Phone      string `json:"phone,omitempty" yaml:"phone"`
	Email      string `json:"email,omitempty" yaml:"email"`
	SMSConsent bool   `json:"smsConsent" yaml:"smsConsent"`
}

// CaptureAttribution copies the UTM and click-id parameters of a landing
// URL query into the answer set. Missing parameters become empty strings.
func (a *Answers) CaptureAttribution(query url.Values) {
	a.UTMSource = query.Get(ParamUTMSource)
	a.UTMMedium = query.Get(ParamUTMMedium)
	a.UTMCampaign = query.Get(ParamUTMCampaign)
	a.FBClickID = query.Get(ParamFBClickID)
}

// Record writes the values of a successfully validated step. Re-recording
// a step after back navigation overwrites its earlier values.
func (a *Answers) Record(step int, res Result) {
	if !res.Valid {
		if step == ContactStep {
			a.SMSConsent = res.Contact.SMSConsent
		}
		return
	}
	switch step {
	case 1:
		a.HairLossType = append([]string(nil), res.Selected...)
	case 2:
		a.UnderstandSMP = res.Value
	case 3:
		a.Severity = res.Value
	case 4:
		a.ScalpConditions = res.Value
	case 5:
		a.Timeline = res.Value
	case ZipStep:
		a.ZipCode = res.Value
	case ContactStep:
		a.FirstName = res.Contact.FirstName
		a.LastName = res.Contact.LastName
		a.Phone = res.Contact.Phone
		a.Email = res.Contact.Email
		a.SMSConsent = res.Contact.SMSConsent
	}
}

// Complete reports whether every question step has a recorded answer.
func (a Answers) Complete() bool {
	return len(a.HairLossType) > 0 &&
		a.UnderstandSMP != "" &&
		a.Severity != "" &&
		a.ScalpConditions != "" &&
		a.Timeline != "" &&
		a.ZipCode != "" &&
		a.Email != ""
}
