package form

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractContactSanitizesNames(t *testing.T) {
	values := url.Values{
		FieldFirstName:  {"<b>Jane</b>"},
		FieldLastName:   {"O'Brien<script>alert(1)</script>"},
		FieldPhone:      {"7045550100"},
		FieldEmail:      {"jane@example.com"},
		FieldSMSConsent: {"true"},
	}

	got := Extract(ContactStep, values)
	want := Input{
		FirstName: "Jane",
		LastName:  "O'Brien",
		Phone:     "7045550100",
		Email:     "jane@example.com",
		Consent:   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractIgnoresOtherSteps(t *testing.T) {
	values := url.Values{
		FieldTimeline: {"asap"},
		FieldZipCode:  {"12345"},
	}

	if got := Extract(2, values); len(got.Checked) != 0 {
		t.Fatalf("step 2 should not read other groups, got %v", got.Checked)
	}
	if got := Extract(ZipStep, values); got.ZipCode != "12345" {
		t.Fatalf("expected zip, got %q", got.ZipCode)
	}
	if got := Extract(99, values); !cmp.Equal(got, Input{}) {
		t.Fatalf("expected empty input for unknown step, got %+v", got)
	}
}

func TestExtractConsentValues(t *testing.T) {
	for _, v := range []string{"on", "TRUE", "1", "yes"} {
		if !Extract(ContactStep, url.Values{FieldSMSConsent: {v}}).Consent {
			t.Errorf("expected %q to be checked", v)
		}
	}
	for _, v := range []string{"", "off", "false", "0"} {
		if Extract(ContactStep, url.Values{FieldSMSConsent: {v}}).Consent {
			t.Errorf("expected %q to be unchecked", v)
		}
	}
}
