package headers

import (
	"net/http"
	"strings"

	"github.com/buemura/advaudit/pkg/types"
)

// Finding is a problem one rule found in a response.
type Finding struct {
	Title       string
	Description string
	Remediation string
	Severity    types.Severity
	Value       string
}

// Rule defines a single security header check.
type Rule struct {
	Name  string
	Check func(h http.Header, isHTTPS bool) *Finding
}

func missing(name string, sev types.Severity, description, remediation string) func(http.Header, bool) *Finding {
	return func(h http.Header, _ bool) *Finding {
		if h.Get(name) != "" {
			return nil
		}
		return &Finding{
			Title:       "Missing " + name + " header",
			Description: description,
			Remediation: remediation,
			Severity:    sev,
		}
	}
}

// Rules returns all header security rules.
func Rules() []Rule {
	return []Rule{
		{
			Name: "Strict-Transport-Security",
			Check: func(h http.Header, isHTTPS bool) *Finding {
				if !isHTTPS || h.Get("Strict-Transport-Security") != "" {
					return nil
				}
				return &Finding{
					Title:       "Missing Strict-Transport-Security header",
					Description: "HSTS is not set. Browsers may be downgraded to plain HTTP and leak session cookies.",
					Remediation: "Add Strict-Transport-Security: max-age=31536000; includeSubDomains",
					Severity:    types.SeverityHigh,
				}
			},
		},
		{
			Name: "Content-Security-Policy",
			Check: missing("Content-Security-Policy", types.SeverityHigh,
				"No Content-Security-Policy is sent, which widens the impact of XSS in contributed code.",
				"Install a CSP module or send Content-Security-Policy: default-src 'self'"),
		},
		{
			Name: "X-Content-Type-Options",
			Check: func(h http.Header, _ bool) *Finding {
				val := h.Get("X-Content-Type-Options")
				if val == "" {
					return &Finding{
						Title:       "Missing X-Content-Type-Options header",
						Description: "Browsers may MIME-sniff uploaded files and execute them as scripts.",
						Remediation: "Add X-Content-Type-Options: nosniff",
						Severity:    types.SeverityLow,
					}
				}
				if !strings.EqualFold(val, "nosniff") {
					return &Finding{
						Title:       "Misconfigured X-Content-Type-Options header",
						Description: "X-Content-Type-Options is set but not to nosniff.",
						Remediation: "Set X-Content-Type-Options: nosniff",
						Severity:    types.SeverityLow,
						Value:       val,
					}
				}
				return nil
			},
		},
		{
			Name: "X-Frame-Options",
			Check: func(h http.Header, _ bool) *Finding {
				if h.Get("X-Frame-Options") != "" {
					return nil
				}
				if strings.Contains(h.Get("Content-Security-Policy"), "frame-ancestors") {
					return nil
				}
				return &Finding{
					Title:       "Missing X-Frame-Options header",
					Description: "Pages can be framed by other origins, allowing clickjacking.",
					Remediation: "Add X-Frame-Options: SAMEORIGIN or a CSP frame-ancestors directive",
					Severity:    types.SeverityLow,
				}
			},
		},
		{
			Name: "Referrer-Policy",
			Check: missing("Referrer-Policy", types.SeverityLow,
				"Full URLs, including query strings, may leak through the Referer header.",
				"Add Referrer-Policy: strict-origin-when-cross-origin"),
		},
		{
			Name: "Permissions-Policy",
			Check: missing("Permissions-Policy", types.SeverityLow,
				"Browser features such as camera and geolocation are not explicitly restricted.",
				"Add Permissions-Policy: camera=(), microphone=(), geolocation=()"),
		},
		{
			Name: "X-Generator",
			Check: func(h http.Header, _ bool) *Finding {
				val := h.Get("X-Generator")
				if val == "" {
					return nil
				}
				return &Finding{
					Title:       "X-Generator header discloses the CMS",
					Description: "The X-Generator header advertises the platform and major version.",
					Remediation: "Strip X-Generator at the web server or reverse proxy",
					Severity:    types.SeverityLow,
					Value:       val,
				}
			},
		},
	}
}
