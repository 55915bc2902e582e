package inference

import (
	"math"
	"strings"

	"github.com/okian/tourcheck/internal/domain/model"
)

// ScoringTable drives the name-ending heuristic. A positive score classifies
// female; the confidence is the clamped magnitude times Damping.
type ScoringTable struct {
	FemaleEndings   []string `json:"femaleEndings"`
	MaleEndings     []string `json:"maleEndings"`
	EndingWeight    float64  `json:"endingWeight"`
	LengthThreshold int      `json:"lengthThreshold"`
	LengthBonus     float64  `json:"lengthBonus"`
	Damping         float64  `json:"damping"`
}

// DefaultScoringTable is the heuristic used by the resolver.
func DefaultScoringTable() ScoringTable {
	return ScoringTable{
		FemaleEndings:   []string{"a", "ia", "ina", "etta", "elle", "ine", "ique"},
		MaleEndings:     []string{"o", "us", "er", "on"},
		EndingWeight:    0.3,
		LengthThreshold: 5,
		LengthBonus:     0.1,
		Damping:         0.3,
	}
}

// Score returns the raw signed score of name. Each ending list contributes
// at most once.
func (t ScoringTable) Score(name string) float64 {
	name = strings.ToLower(strings.TrimSpace(name))
	var score float64
	for _, e := range t.FemaleEndings {
		if strings.HasSuffix(name, e) {
			score += t.EndingWeight
			break
		}
	}
	for _, e := range t.MaleEndings {
		if strings.HasSuffix(name, e) {
			score -= t.EndingWeight
			break
		}
	}
	if len([]rune(name)) >= t.LengthThreshold {
		score += t.LengthBonus
	}
	return score
}

// Classify turns the score into a damped inference result.
func (t ScoringTable) Classify(name string) model.InferenceResult {
	score := t.Score(name)
	gender := model.GenderMale
	if score > 0 {
		gender = model.GenderFemale
	}
	conf := math.Min(1, math.Abs(score)) * t.Damping
	// Round away float noise such as 0.30000000000000004.
	conf = math.Round(conf*1e9) / 1e9
	return model.InferenceResult{Gender: gender, Confidence: conf, Source: MethodHeuristic}
}
