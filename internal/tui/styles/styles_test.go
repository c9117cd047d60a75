package styles

import (
	"testing"

	"github.com/buemura/advaudit/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSeverityStyleRendersEverySeverity(t *testing.T) {
	for _, sev := range types.Severities {
		rendered := SeverityStyle(sev).Render("test")
		assert.Contains(t, rendered, "test", string(sev))
	}
}

func TestSeverityStyleSelectsByLevel(t *testing.T) {
	assert.Equal(t, SeverityCriticalStyle.GetForeground(), SeverityStyle(types.SeverityCritical).GetForeground())
	assert.Equal(t, SeverityHighStyle.GetForeground(), SeverityStyle(types.SeverityHigh).GetForeground())
	assert.Equal(t, SeverityLowStyle.GetForeground(), SeverityStyle(types.SeverityLow).GetForeground())
}

func TestSeverityStyleReturnsDefaultForUnknown(t *testing.T) {
	rendered := SeverityStyle("UNKNOWN").Render("test")
	assert.Contains(t, rendered, "test")
}

func TestStatusStyle(t *testing.T) {
	assert.Equal(t, StatusPassStyle.GetForeground(), StatusStyle(types.StatusPass).GetForeground())
	assert.Equal(t, StatusFailStyle.GetForeground(), StatusStyle(types.StatusFail).GetForeground())
	assert.Equal(t, StatusIgnoreStyle.GetForeground(), StatusStyle(types.StatusIgnore).GetForeground())
	assert.Equal(t, StatusSkipStyle.GetForeground(), StatusStyle(types.StatusSkip).GetForeground())
}

func TestScoreStyle(t *testing.T) {
	assert.Equal(t, ColorPass, ScoreStyle(80).GetForeground())
	assert.Equal(t, ColorIgnore, ScoreStyle(50).GetForeground())
	assert.Equal(t, ColorCritical, ScoreStyle(49).GetForeground())
}

func TestStylesRenderNonEmpty(t *testing.T) {
	assert.NotEmpty(t, TitleStyle.Render("title"))
	assert.NotEmpty(t, HeaderStyle.Render("header"))
	assert.NotEmpty(t, BorderStyle.Render("border"))
	assert.NotEmpty(t, HelpStyle.Render("help"))
	assert.NotEmpty(t, ErrorStyle.Render("error"))
}
