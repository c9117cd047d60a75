package audit

import (
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
)

// Overview summarizes results by status, category and the severity of
// failing checks. defs supplies category and severity; results of checks
// missing from defs are counted under "unknown".
func Overview(results []types.CheckResult, defs map[string]check.Definition) map[string]any {
	statuses := map[string]int{}
	for _, s := range types.Statuses {
		statuses[string(s)] = 0
	}
	categories := map[string]map[string]int{}
	failures := map[string]int{}

	for _, r := range results {
		statuses[string(r.Status)]++

		category := "unknown"
		def, ok := defs[r.CheckID]
		if ok && def.Category != "" {
			category = def.Category
		}
		if categories[category] == nil {
			categories[category] = map[string]int{}
		}
		categories[category][string(r.Status)]++

		if r.Status == types.StatusFail {
			sev := "unknown"
			if ok {
				sev = string(def.Severity)
			}
			failures[sev]++
		}
	}

	return map[string]any{
		"total":      len(results),
		"status":     statuses,
		"categories": categories,
		"failures":   failures,
	}
}
