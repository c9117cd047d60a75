package audit

import (
	"context"
	"testing"

	"github.com/buemura/advaudit/pkg/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0, Score(nil, nil))
}

func TestScore_PassFailSkip(t *testing.T) {
	results := []types.CheckResult{
		types.Pass("A", ""),
		types.Fail("B", "", issues("x")),
		types.Skip("C", ""),
	}
	assert.Equal(t, 50, Score(results, func(types.CheckResult) int { return 1 }))
}

func TestScore_FailWithoutOpenIssuesCountsAsPassed(t *testing.T) {
	results := []types.CheckResult{
		types.Pass("A", ""),
		types.Fail("B", "", issues("x")),
	}
	assert.Equal(t, 100, Score(results, func(types.CheckResult) int { return 0 }))
}

func TestScore_IgnoreCountsInDenominatorOnly(t *testing.T) {
	results := []types.CheckResult{
		types.Pass("A", ""),
		types.Ignore("B", "check is disabled"),
	}
	assert.Equal(t, 50, Score(results, nil))
}

func TestScore_AllSkipped(t *testing.T) {
	results := []types.CheckResult{types.Skip("A", ""), types.Skip("B", "")}
	assert.Equal(t, 0, Score(results, nil))
}

func TestScore_FloorDivision(t *testing.T) {
	results := []types.CheckResult{
		types.Pass("A", ""),
		types.Pass("B", ""),
		types.Fail("C", "", issues("x")),
	}
	assert.Equal(t, 66, Score(results, nil))
}

func TestScore_NilCounterUsesIssueNames(t *testing.T) {
	results := []types.CheckResult{
		types.Fail("A", "", nil),
		types.Fail("B", "", issues("x")),
	}
	assert.Equal(t, 50, Score(results, nil))
}

func TestScoreReport_UsesCurrentIssueState(t *testing.T) {
	tr := newFakeTracker()
	report := types.Report{Results: []types.CheckResult{
		types.Pass("A", ""),
		types.Fail("D", "", issues("x")),
	}}
	ctx := context.Background()

	score, err := ScoreReport(ctx, tr, report)
	require.NoError(t, err)
	assert.Equal(t, 50, score)

	tr.set("D.x", types.IssueFixed)
	score, err = ScoreReport(ctx, tr, report)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	tr.set("D.x", types.IssueIgnored)
	score, err = ScoreReport(ctx, tr, report)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestScoreReport_Error(t *testing.T) {
	tr := newFakeTracker()
	tr.err = errBoom
	_, err := ScoreReport(context.Background(), tr, types.Report{Results: []types.CheckResult{
		types.Fail("D", "", issues("x")),
	}})
	assert.ErrorIs(t, err, errBoom)
}

func TestScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genStatus := gen.OneConstOf(types.StatusPass, types.StatusFail, types.StatusSkip, types.StatusIgnore)
	genResults := gen.SliceOf(genStatus).Map(func(statuses []types.Status) []types.CheckResult {
		out := make([]types.CheckResult, len(statuses))
		for i, s := range statuses {
			out[i] = types.CheckResult{CheckID: string(rune('a' + i%26)), Status: s}
			if s == types.StatusFail && i%2 == 0 {
				out[i].Arguments = map[string]any{types.IssuesArgument: issues("x")}
			}
		}
		return out
	})

	properties.Property("score stays within 0 and 100", prop.ForAll(
		func(results []types.CheckResult) bool {
			s := Score(results, nil)
			return s >= 0 && s <= 100
		},
		genResults,
	))

	properties.Property("skipped results never change the score", prop.ForAll(
		func(results []types.CheckResult) bool {
			var kept []types.CheckResult
			for _, r := range results {
				if r.Status != types.StatusSkip {
					kept = append(kept, r)
				}
			}
			if len(kept) == 0 {
				return Score(results, nil) == 0
			}
			return Score(results, nil) == Score(kept, nil)
		},
		genResults,
	))

	properties.Property("resolving every issue never lowers the score", prop.ForAll(
		func(results []types.CheckResult) bool {
			return Score(results, func(types.CheckResult) int { return 0 }) >= Score(results, nil)
		},
		genResults,
	))

	properties.TestingRun(t)
}
