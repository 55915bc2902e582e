// Package model contains domain models passed between layers.
// JSON field names follow the public wire format.
package model

import (
	"time"

	"github.com/okian/tourcheck/internal/domain/names"
)

// Gender classifications produced by inference.
const (
	GenderFemale  = "female"
	GenderMale    = "male"
	GenderUnknown = "unknown"
)

// Verdict sources recorded in Details.Source.
const (
	SourceRoster         = "official_roster"
	SourceInference      = "inference"
	SourceManualOverride = "manual_override"
)

// InferenceResult is one gender classification of a first name.
type InferenceResult struct {
	Gender     string  `json:"gender"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Details carries provenance for a Verdict.
type Details struct {
	Input           string           `json:"input,omitempty"`
	Parsed          *names.Name      `json:"parsed,omitempty"`
	Source          string           `json:"source,omitempty"`
	GenderDetection *InferenceResult `json:"genderDetection,omitempty"`
	ManualOverride  bool             `json:"manualOverride,omitempty"`
	Timestamp       *time.Time       `json:"timestamp,omitempty"`
	Cached          bool             `json:"cached,omitempty"`
}

// Verdict is the confidence-scored eligibility decision for one player.
type Verdict struct {
	IsEligible bool    `json:"isEligible"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Details    Details `json:"details"`
}

// PlayerVerdict is a Verdict labelled with the raw name it was produced for.
type PlayerVerdict struct {
	Name string `json:"name"`
	Verdict
}

// MatchType is the parse shape of a match.
type MatchType string

// Match shapes.
const (
	MatchSingles MatchType = "singles"
	MatchDoubles MatchType = "doubles"
	MatchUnknown MatchType = "unknown"
)

// Combination rules applied by the classifier.
const (
	RuleSingles      = "singles"
	RuleDoubles      = "doubles"
	RuleMixedDoubles = "mixed_doubles"
)

// MatchParse splits a match into its two teams.
type MatchParse struct {
	MatchType MatchType `json:"matchType"`
	Team1     []string  `json:"team1"`
	Team2     []string  `json:"team2"`
}

// Teams echoes the parsed teams on a classification.
type Teams struct {
	Team1 []string `json:"team1"`
	Team2 []string `json:"team2"`
}

// MatchClassification is the outcome of classifying one match. It is never cached.
type MatchClassification struct {
	IsEligible          bool            `json:"isEligible"`
	Confidence          float64         `json:"confidence"`
	Reason              string          `json:"reason"`
	MatchType           MatchType       `json:"matchType"`
	Rule                string          `json:"rule,omitempty"`
	EligiblePlayerCount int             `json:"eligiblePlayerCount"`
	Players             []PlayerVerdict `json:"players"`
	Teams               *Teams          `json:"teams,omitempty"`
	Error               string          `json:"error,omitempty"`
}

// MatchInput is one match given as two comma-separated name groups.
type MatchInput struct {
	HomePlayer string `json:"homePlayer"`
	AwayPlayer string `json:"awayPlayer"`
}

// MatchResult pairs a bulk input with its classification.
type MatchResult struct {
	Match MatchInput `json:"match"`
	MatchClassification
}

// RosterSnapshot is the authoritative name set and when it was fetched.
type RosterSnapshot struct {
	Names      []string  `json:"names"`
	LastUpdate time.Time `json:"lastUpdate"`
}
