// Package facts holds the checks that only inspect the site facts
// snapshot and never touch the network.
package facts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/requirement"
	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/pkg/types"
)

// Check ids.
const (
	AdminUsername        = "admin_username"
	PHPVersion           = "php_version"
	ErrorDisplay         = "error_display"
	TrustedHostPatterns  = "trusted_host_patterns"
	PageCache            = "page_cache"
	CSSJSAggregation     = "css_js_aggregation"
	CronLastRun          = "cron_last_run"
	DblogEnabled         = "dblog_enabled"
	ViewsCache           = "views_cache"
	UnsafeFileExtensions = "unsafe_file_extensions"
	DisabledModules      = "disabled_modules"
)

var now = time.Now

type inspectFunc func(req check.Request, f *site.Facts) types.CheckResult

// wrap adapts a pure inspection of the facts to the check interface.
func wrap(id string, fn inspectFunc) check.Factory {
	return func() (check.Check, error) {
		return check.CheckFunc(func(ctx context.Context, req check.Request) (*types.CheckResult, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f := req.Site
			if f == nil {
				f = &site.Facts{}
			}
			r := fn(req, f)
			r.CheckID = id
			return &r, nil
		}), nil
	}
}

func result(id, passReason, failReason string, issues map[string]types.IssueDetails) types.CheckResult {
	if len(issues) == 0 {
		return types.Pass(id, passReason)
	}
	return types.Fail(id, failReason, issues)
}

var defaultForbiddenNames = []string{"admin", "administrator", "root", "webmaster", "drupal"}

func adminUsername(req check.Request, f *site.Facts) types.CheckResult {
	forbidden := map[string]bool{}
	for _, n := range req.ConfigStrings("forbidden", defaultForbiddenNames) {
		forbidden[strings.ToLower(n)] = true
	}
	issues := map[string]types.IssueDetails{}
	for _, u := range f.Users {
		if u.Blocked || !forbidden[strings.ToLower(u.Name)] {
			continue
		}
		issues[fmt.Sprintf("user_%d", u.ID)] = types.IssueDetails{
			types.IssueTitleKey: fmt.Sprintf("Account %d uses the guessable name %q", u.ID, u.Name),
			"uid":               u.ID,
			"name":              u.Name,
			"roles":             u.Roles,
		}
	}
	return result(AdminUsername, "no active account uses a guessable name",
		fmt.Sprintf("%d account(s) use a guessable name", len(issues)), issues)
}

func phpVersion(req check.Request, f *site.Facts) types.CheckResult {
	current, ok := f.Version("php")
	if !ok {
		return types.Skip(PHPVersion, "PHP version is not part of the site facts")
	}
	minimum := req.ConfigString("minimum", "8.1.0")
	cmp, err := requirement.Compare(current, minimum)
	if err != nil {
		return types.Skip(PHPVersion, err.Error())
	}
	if cmp >= 0 {
		return types.Pass(PHPVersion, fmt.Sprintf("PHP %s meets the minimum %s", current, minimum))
	}
	return types.Fail(PHPVersion, fmt.Sprintf("PHP %s is older than %s", current, minimum), map[string]types.IssueDetails{
		"outdated": {
			types.IssueTitleKey: fmt.Sprintf("PHP %s is no longer supported", current),
			"current":           current,
			"minimum":           minimum,
		},
	})
}

func errorDisplay(_ check.Request, f *site.Facts) types.CheckResult {
	level, _ := f.ConfigString("system.logging", "error_level")
	if level == "" || level == "hide" {
		return types.Pass(ErrorDisplay, "errors are not shown to visitors")
	}
	return types.Fail(ErrorDisplay, fmt.Sprintf("error_level is %q", level), map[string]types.IssueDetails{
		"error_level": {
			types.IssueTitleKey: "PHP errors are displayed to visitors",
			"error_level":       level,
		},
	})
}

func trustedHostPatterns(_ check.Request, f *site.Facts) types.CheckResult {
	v, _ := f.Setting("trusted_host_patterns")
	if patterns, ok := v.([]any); ok && len(patterns) > 0 {
		return types.Pass(TrustedHostPatterns, fmt.Sprintf("%d trusted host pattern(s) configured", len(patterns)))
	}
	return types.Fail(TrustedHostPatterns, "trusted_host_patterns is empty", map[string]types.IssueDetails{
		"not_configured": {
			types.IssueTitleKey: "Trusted host patterns are not configured",
			"setting":           "trusted_host_patterns",
		},
	})
}

func pageCache(req check.Request, f *site.Facts) types.CheckResult {
	minAge := req.ConfigInt("min_max_age", 900)
	age, _ := f.ConfigInt("system.performance", "cache.page.max_age")
	if age >= minAge {
		return types.Pass(PageCache, fmt.Sprintf("page cache max age is %ds", age))
	}
	return types.Fail(PageCache, fmt.Sprintf("page cache max age %ds is below %ds", age, minAge), map[string]types.IssueDetails{
		"max_age": {
			types.IssueTitleKey: "Browser and proxy cache maximum age is too low",
			"max_age":           age,
			"minimum":           minAge,
		},
	})
}

func cssJSAggregation(_ check.Request, f *site.Facts) types.CheckResult {
	issues := map[string]types.IssueDetails{}
	for _, kind := range []string{"css", "js"} {
		if on, _ := f.ConfigBool("system.performance", kind+".preprocess"); !on {
			issues[kind] = types.IssueDetails{
				types.IssueTitleKey: fmt.Sprintf("%s aggregation is disabled", strings.ToUpper(kind)),
				"setting":           kind + ".preprocess",
			}
		}
	}
	return result(CSSJSAggregation, "CSS and JS aggregation are enabled", "asset aggregation is disabled", issues)
}

func cronLastRun(req check.Request, f *site.Facts) types.CheckResult {
	maxAge := time.Duration(req.ConfigInt("max_age_hours", 72)) * time.Hour
	if f.CronLast.IsZero() {
		return types.Fail(CronLastRun, "cron has never run", map[string]types.IssueDetails{
			"stale": {types.IssueTitleKey: "Cron has never run"},
		})
	}
	age := now().Sub(f.CronLast)
	if age <= maxAge {
		return types.Pass(CronLastRun, fmt.Sprintf("cron ran %s ago", age.Round(time.Minute)))
	}
	return types.Fail(CronLastRun, fmt.Sprintf("cron last ran %s ago", age.Round(time.Hour)), map[string]types.IssueDetails{
		"stale": {
			types.IssueTitleKey: "Cron has not run recently",
			"last_run":          f.CronLast.Format(time.RFC3339),
			"max_age_hours":     int(maxAge.Hours()),
		},
	})
}

func dblogEnabled(_ check.Request, f *site.Facts) types.CheckResult {
	if _, ok := f.Module("dblog"); !ok {
		return types.Pass(DblogEnabled, "database logging is disabled")
	}
	return types.Fail(DblogEnabled, "dblog writes every log entry to the database", map[string]types.IssueDetails{
		"enabled": {
			types.IssueTitleKey: "Database logging is enabled",
			"remediation":       "Use syslog on production sites",
		},
	})
}

func viewsCache(_ check.Request, f *site.Facts) types.CheckResult {
	issues := map[string]types.IssueDetails{}
	for name := range f.Config {
		if !strings.HasPrefix(name, "views.view.") {
			continue
		}
		if status, ok := f.ConfigBool(name, "status"); ok && !status {
			continue
		}
		cache, _ := f.ConfigString(name, "display.default.display_options.cache.type")
		if cache == "" || cache == "none" {
			view := strings.TrimPrefix(name, "views.view.")
			issues[view] = types.IssueDetails{
				types.IssueTitleKey: fmt.Sprintf("View %s is not cached", view),
				"view":              view,
				"cache":             cache,
			}
		}
	}
	return result(ViewsCache, "every enabled view is cached",
		fmt.Sprintf("%d view(s) without caching", len(issues)), issues)
}

var defaultUnsafeExtensions = []string{"php", "phtml", "phar", "pl", "py", "cgi", "asp", "js", "sh", "exe", "htaccess", "svg"}

func unsafeFileExtensions(req check.Request, f *site.Facts) types.CheckResult {
	unsafe := map[string]bool{}
	for _, e := range req.ConfigStrings("unsafe", defaultUnsafeExtensions) {
		unsafe[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	issues := map[string]types.IssueDetails{}
	for name := range f.Config {
		if !strings.HasPrefix(name, "field.field.") {
			continue
		}
		exts, ok := f.ConfigString(name, "settings.file_extensions")
		if !ok {
			continue
		}
		var bad []string
		for _, e := range strings.Fields(exts) {
			if unsafe[strings.ToLower(e)] {
				bad = append(bad, e)
			}
		}
		if len(bad) == 0 {
			continue
		}
		sort.Strings(bad)
		field := strings.TrimPrefix(name, "field.field.")
		issues[field] = types.IssueDetails{
			types.IssueTitleKey: fmt.Sprintf("Field %s allows unsafe uploads: %s", field, strings.Join(bad, ", ")),
			"field":             field,
			"extensions":        bad,
		}
	}
	return result(UnsafeFileExtensions, "no file field accepts unsafe extensions",
		fmt.Sprintf("%d file field(s) accept unsafe extensions", len(issues)), issues)
}

func disabledModules(_ check.Request, f *site.Facts) types.CheckResult {
	issues := map[string]types.IssueDetails{}
	for name, m := range f.Modules {
		if m.Enabled {
			continue
		}
		issues[name] = types.IssueDetails{
			types.IssueTitleKey: fmt.Sprintf("Module %s is in the codebase but not enabled", name),
			"module":            name,
			"version":           m.Version,
		}
	}
	return result(DisabledModules, "every module in the codebase is enabled",
		fmt.Sprintf("%d disabled module(s) in the codebase", len(issues)), issues)
}

// Definitions returns the facts checks with their catalog metadata.
func Definitions() []check.Definition {
	return []check.Definition{
		{
			ID: AdminUsername, Label: "Administrator account name",
			Description: "Active accounts must not use guessable names such as admin.",
			Category:    "security", Severity: types.SeverityHigh, Enabled: true,
			Factory: wrap(AdminUsername, adminUsername),
		},
		{
			ID: PHPVersion, Label: "PHP version",
			Description: "The PHP runtime must be a supported release.",
			Category:    "server", Severity: types.SeverityHigh, Enabled: true,
			Factory: wrap(PHPVersion, phpVersion),
		},
		{
			ID: ErrorDisplay, Label: "Error display",
			Description: "PHP errors must not be shown to visitors.",
			Category:    "security", Severity: types.SeverityHigh, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementConfig, Name: "system.logging"}},
			Factory:      wrap(ErrorDisplay, errorDisplay),
		},
		{
			ID: TrustedHostPatterns, Label: "Trusted host patterns",
			Description: "settings.php must restrict the accepted Host headers.",
			Category:    "security", Severity: types.SeverityCritical, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementVersion, Name: "core", Version: "8.0.0"}},
			Factory:      wrap(TrustedHostPatterns, trustedHostPatterns),
		},
		{
			ID: PageCache, Label: "Page cache max age",
			Description: "Anonymous pages should be cacheable by browsers and proxies.",
			Category:    "performance", Severity: types.SeverityHigh, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementConfig, Name: "system.performance"}},
			Factory:      wrap(PageCache, pageCache),
		},
		{
			ID: CSSJSAggregation, Label: "CSS and JS aggregation",
			Description: "Stylesheets and scripts should be aggregated.",
			Category:    "performance", Severity: types.SeverityLow, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementConfig, Name: "system.performance"}},
			Factory:      wrap(CSSJSAggregation, cssJSAggregation),
		},
		{
			ID: CronLastRun, Label: "Cron last run",
			Description: "Cron must run regularly.",
			Category:    "server", Severity: types.SeverityHigh, Enabled: true,
			Factory: wrap(CronLastRun, cronLastRun),
		},
		{
			ID: DblogEnabled, Label: "Database logging",
			Description: "Database logging slows production sites down.",
			Category:    "performance", Severity: types.SeverityLow, Enabled: true,
			Factory: wrap(DblogEnabled, dblogEnabled),
		},
		{
			ID: ViewsCache, Label: "Views caching",
			Description: "Enabled views should use a cache plugin.",
			Category:    "performance", Severity: types.SeverityLow, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementModule, Name: "views"}},
			Factory:      wrap(ViewsCache, viewsCache),
		},
		{
			ID: UnsafeFileExtensions, Label: "Unsafe upload extensions",
			Description: "File fields must not accept executable extensions.",
			Category:    "security", Severity: types.SeverityCritical, Enabled: true,
			Requirements: []types.Requirement{{Kind: types.RequirementModule, Name: "file"}},
			Factory:      wrap(UnsafeFileExtensions, unsafeFileExtensions),
		},
		{
			ID: DisabledModules, Label: "Disabled modules",
			Description: "Modules left in the codebase but disabled still need security updates.",
			Category:    "architecture", Severity: types.SeverityLow, Enabled: true,
			Factory: wrap(DisabledModules, disabledModules),
		},
	}
}
