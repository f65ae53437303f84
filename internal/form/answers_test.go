package form

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureAttribution(t *testing.T) {
	var a Answers
	a.CaptureAttribution(url.Values{
		ParamUTMSource:   {"facebook"},
		ParamUTMCampaign: {"spring"},
		ParamFBClickID:   {"abc123"},
	})

	assert.Equal(t, "facebook", a.UTMSource)
	assert.Equal(t, "", a.UTMMedium)
	assert.Equal(t, "spring", a.UTMCampaign)
	assert.Equal(t, "abc123", a.FBClickID)
}

func TestRecordOverwritesOnRevalidation(t *testing.T) {
	var a Answers
	a.Record(2, Result{Valid: true, Value: "somewhat"})
	a.Record(2, Result{Valid: true, Value: "yes-understood"})
	a.Record(3, Result{Message: "Please rate your hair loss severity"})

	assert.Equal(t, "yes-understood", a.UnderstandSMP)
	assert.Empty(t, a.Severity)
}

func TestRecordContactKeepsConsentOnFailure(t *testing.T) {
	var a Answers
	a.Record(ContactStep, Result{Message: "x", Contact: Contact{FirstName: "Jane", SMSConsent: true}})

	assert.True(t, a.SMSConsent)
	assert.Empty(t, a.FirstName, "names are only recorded once the step validates")
}

func TestAnswersWireKeys(t *testing.T) {
	a := Answers{
		UTMSource:       "google",
		HairLossType:    []string{"alopecia"},
		UnderstandSMP:   "yes-understood",
		Severity:        "7",
		ScalpConditions: "no",
		Timeline:        "asap",
		ZipCode:         "28202",
		FirstName:       "Jane",
		LastName:        "Doe",
		Phone:           "(704) 555-0100",
		Email:           "jane@example.com",
		SMSConsent:      true,
	}
	require.True(t, a.Complete())

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	for _, key := range []string{
		"utm_source", "utm_medium", "utm_campaign", "fbclid",
		"hairLossType", "understandSMP", "severity", "scalpConditions",
		"timeline", "zipCode", "firstName", "lastName", "phone", "email", "smsConsent",
	} {
		assert.Contains(t, wire, key)
	}
}
