package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget_PlainHost(t *testing.T) {
	target, err := ParseTarget("example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", target.Host)
	assert.Equal(t, "https", target.Scheme)
	assert.Zero(t, target.Port)
	assert.Equal(t, "https://example.com", target.BaseURL())
	assert.Equal(t, 443, target.TLSPort())
}

func TestParseTarget_HostPort(t *testing.T) {
	target, err := ParseTarget("192.168.1.1:8080")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", target.Host)
	assert.Equal(t, 8080, target.Port)
	assert.Equal(t, "https://192.168.1.1:8080", target.BaseURL())
}

func TestParseTarget_URLWithPath(t *testing.T) {
	target, err := ParseTarget("http://example.com/drupal/")
	require.NoError(t, err)
	assert.Equal(t, "example.com", target.Host)
	assert.Equal(t, "http", target.Scheme)
	assert.Equal(t, "http://example.com/drupal", target.BaseURL())
}

func TestParseTarget_HTTPSURLWithPort(t *testing.T) {
	target, err := ParseTarget("https://example.com:9443")
	require.NoError(t, err)
	assert.Equal(t, 9443, target.Port)
	assert.Equal(t, 9443, target.TLSPort())
}

func TestParseTarget_Empty(t *testing.T) {
	_, err := ParseTarget("  ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseTarget_PortOutOfRange(t *testing.T) {
	_, err := ParseTarget("example.com:99999")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityRank(SeverityCritical), SeverityRank(SeverityHigh))
	assert.Less(t, SeverityRank(SeverityHigh), SeverityRank(SeverityLow))
	assert.Less(t, SeverityRank(SeverityLow), SeverityRank(Severity("bogus")))
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, s)

	_, err = ParseSeverity("medium")
	assert.Error(t, err)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPass, StatusFail, StatusSkip, StatusIgnore} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("error").Valid())
}

func TestCheckResult_IssueDetails_Typed(t *testing.T) {
	r := Fail("php_version", "outdated", map[string]IssueDetails{
		"b": {IssueTitleKey: "Second"},
		"a": {IssueTitleKey: "First"},
	})

	assert.Equal(t, []string{"a", "b"}, r.IssueNames())
	assert.Equal(t, "First", r.IssueDetails()["a"].Title("a"))
}

func TestCheckResult_IssueDetails_AfterJSON(t *testing.T) {
	r := Fail("admin_username", "bad name", map[string]IssueDetails{
		"admin": {IssueTitleKey: "Admin account uses a default name", "uid": 1},
	})

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded CheckResult
	require.NoError(t, json.Unmarshal(raw, &decoded))

	details := decoded.IssueDetails()
	require.Contains(t, details, "admin")
	assert.Equal(t, "Admin account uses a default name", details["admin"].Title("admin"))
	assert.EqualValues(t, 1, details["admin"]["uid"])
}

func TestCheckResult_NoIssues(t *testing.T) {
	assert.Empty(t, Pass("x", "ok").IssueNames())
	assert.Empty(t, Fail("x", "bad", nil).IssueNames())
}

func TestIssueDetails_TitleFallback(t *testing.T) {
	assert.Equal(t, "fallback", IssueDetails{}.Title("fallback"))
	assert.Equal(t, "fallback", IssueDetails{IssueTitleKey: ""}.Title("fallback"))
}

func TestMarshalDetails_SortedKeys(t *testing.T) {
	s, err := MarshalDetails(IssueDetails{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, s)

	s, err = MarshalDetails(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, s)
}

func TestIssueKey(t *testing.T) {
	assert.Equal(t, "D.x", IssueKey("D", "x"))
}

func TestParseIssueStatus(t *testing.T) {
	s, err := ParseIssueStatus("Fixed")
	require.NoError(t, err)
	assert.Equal(t, IssueFixed, s)

	_, err = ParseIssueStatus("closed")
	assert.Error(t, err)
}

func TestReport_ResultAndCounts(t *testing.T) {
	rep := Report{Results: []CheckResult{
		Pass("a", ""),
		Skip("b", ""),
		Skip("c", ""),
	}}

	res, ok := rep.Result("b")
	require.True(t, ok)
	assert.Equal(t, StatusSkip, res.Status)
	_, ok = rep.Result("zzz")
	assert.False(t, ok)
	assert.Equal(t, 2, rep.CountStatus(StatusSkip))
}
