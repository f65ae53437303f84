package form

import "strings"

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone progressively formats typed input as (XXX) XXX-XXXX. Digits
// past the tenth are dropped.
func FormatPhone(value string) string {
	d := Digits(value)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	}
	if len(d) > 10 {
		d = d[:10]
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// NormalizeZip keeps the first five digits of typed zip input.
func NormalizeZip(value string) string {
	d := Digits(value)
	if len(d) > 5 {
		d = d[:5]
	}
	return d
}
