package types

import "time"

// Report is the set of results produced by one audit batch.
type Report struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Results   []CheckResult  `json:"results"`
	Overview  map[string]any `json:"overview,omitempty"`
}

// Result returns the result recorded for checkID, if any.
func (r Report) Result(checkID string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.CheckID == checkID {
			return res, true
		}
	}
	return CheckResult{}, false
}

// CountStatus returns how many results have the given status.
func (r Report) CountStatus(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}
