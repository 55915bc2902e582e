package match

import "math"

// Stats counts classifications since start or the last reset.
type Stats struct {
	TotalClassified    int     `json:"totalClassified"`
	Singles            int     `json:"singles"`
	Doubles            int     `json:"doubles"`
	MixedDoubles       int     `json:"mixedDoubles"`
	EligibleMatches    int     `json:"eligibleMatches"`
	Errors             int     `json:"errors"`
	EligiblePercentage float64 `json:"eligiblePercentage"`
}

// Stats returns a copy of the counters with the eligible share in percent,
// rounded to one decimal.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	s := e.stats
	e.mu.Unlock()
	if s.TotalClassified > 0 {
		s.EligiblePercentage = math.Round(float64(s.EligibleMatches)/float64(s.TotalClassified)*1000) / 10
	}
	return s
}

// ResetStats zeroes the counters.
func (e *Engine) ResetStats() {
	e.mu.Lock()
	e.stats = Stats{}
	e.mu.Unlock()
}

func (e *Engine) record(fn func(*Stats)) {
	e.mu.Lock()
	fn(&e.stats)
	e.mu.Unlock()
}
