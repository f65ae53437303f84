package form

import (
	"strconv"
	"strings"
)

// MaxScore caps the lead score.
const MaxScore = 100

// Quality bands.
const (
	QualityHot  = "hot"
	QualityWarm = "warm"
	QualityCold = "cold"
)

// Thresholds are the lower bounds of each quality band.
type Thresholds struct {
	Hot  int `json:"hot" yaml:"hot"`
	Warm int `json:"warm" yaml:"warm"`
	Cold int `json:"cold" yaml:"cold"`
}

// DefaultThresholds returns the stock scoring configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{Hot: 70, Warm: 50, Cold: 0}
}

var (
	timelinePoints = map[string]int{
		"asap":       30,
		"1-month":    25,
		"1-3-months": 15,
	}
	scalpPoints = map[string]int{
		"no":       15,
		"yes-mild": 10,
		"not-sure": 8,
	}
)

// Score computes the lead score of a finalized answer set.
func Score(a Answers) int {
	score := leadingInt(a.Severity) * 2

	if pts, ok := timelinePoints[a.Timeline]; ok {
		score += pts
	} else {
		score += 5
	}

	if a.UnderstandSMP == "yes-understood" {
		score += 20
	} else {
		score += 10
	}

	if pts, ok := scalpPoints[a.ScalpConditions]; ok {
		score += pts
	} else {
		score += 5
	}

	if a.SMSConsent {
		score += 5
	}

	return min(score, MaxScore)
}

// Quality bands a score against the configured thresholds.
func Quality(score int, t Thresholds) string {
	switch {
	case score >= t.Hot:
		return QualityHot
	case score >= t.Warm:
		return QualityWarm
	default:
		return QualityCold
	}
}

// leadingInt parses the integer prefix of s, returning 0 when there is none.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
