// Package tls inspects the TLS endpoint of the site: protocol version,
// negotiated cipher and the leaf certificate.
package tls

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
)

// ID is the catalog id of the TLS check.
const ID = "tls_certificate"

const defaultExpiryDays = 30

// Check dials the site over TLS and reports weak settings.
type Check struct {
	now func() time.Time
}

// New creates a TLS check.
func New() (check.Check, error) {
	return &Check{now: time.Now}, nil
}

// Perform implements check.Check.
func (c *Check) Perform(ctx context.Context, req check.Request) (*types.CheckResult, error) {
	target, err := req.Site.Target()
	if err != nil {
		r := types.Skip(ID, err.Error())
		return &r, nil
	}
	if target.Scheme != "https" {
		r := types.Skip(ID, fmt.Sprintf("site is served over %s", target.Scheme))
		return &r, nil
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	addr := net.JoinHostPort(target.Host, strconv.Itoa(target.TLSPort()))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    &tls.Config{InsecureSkipVerify: true, ServerName: target.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("TLS connection to %s failed: %w", addr, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	issues := Inspect(state, target.Host, c.now(), req.ConfigInt("expiry_days", defaultExpiryDays))
	if len(issues) == 0 {
		r := types.Pass(ID, fmt.Sprintf("%s negotiated %s with a valid certificate", addr, versionName(state.Version)))
		return &r, nil
	}
	r := types.Fail(ID, fmt.Sprintf("%d TLS problem(s) on %s", len(issues), addr), issues)
	return &r, nil
}

// Inspect turns a negotiated connection into issue details keyed by issue
// name.
func Inspect(state tls.ConnectionState, host string, now time.Time, expiryDays int) map[string]types.IssueDetails {
	issues := map[string]types.IssueDetails{}

	if state.Version <= tls.VersionTLS11 {
		name := versionName(state.Version)
		issues["deprecated_version"] = types.IssueDetails{
			types.IssueTitleKey: "Deprecated TLS version: " + name,
			"tls_version":       name,
			"remediation":       "Disable TLS 1.0 and 1.1 and serve TLS 1.2 or newer.",
		}
	}

	if isWeakCipher(state.CipherSuite) {
		name := tls.CipherSuiteName(state.CipherSuite)
		issues["weak_cipher"] = types.IssueDetails{
			types.IssueTitleKey: "Weak cipher suite: " + name,
			"cipher_suite":      name,
			"remediation":       "Prefer AES-GCM or ChaCha20-Poly1305 suites.",
		}
	}

	if len(state.PeerCertificates) == 0 {
		return issues
	}
	cert := state.PeerCertificates[0]

	if now.After(cert.NotAfter) {
		issues["expired"] = types.IssueDetails{
			types.IssueTitleKey: "Certificate expired",
			"not_after":         cert.NotAfter.Format(time.RFC3339),
			"subject":           cert.Subject.String(),
		}
	} else if days := int(cert.NotAfter.Sub(now).Hours() / 24); days <= expiryDays {
		issues["expiring"] = types.IssueDetails{
			types.IssueTitleKey: fmt.Sprintf("Certificate expires in %d days", days),
			"not_after":         cert.NotAfter.Format(time.RFC3339),
			"days_left":         days,
		}
	}

	if err := cert.VerifyHostname(host); err != nil {
		issues["hostname_mismatch"] = types.IssueDetails{
			types.IssueTitleKey: "Certificate does not cover " + host,
			"hostname":          host,
			"common_name":       cert.Subject.CommonName,
			"san_names":         strings.Join(cert.DNSNames, ", "),
		}
	}

	if isSelfSigned(cert, state.PeerCertificates) {
		issues["self_signed"] = types.IssueDetails{
			types.IssueTitleKey: "Self-signed certificate",
			"issuer":            cert.Issuer.String(),
			"remediation":       "Use a certificate issued by a trusted CA.",
		}
	}
	return issues
}

// A self-signed leaf carries its own subject as issuer and is served alone.
func isSelfSigned(cert *x509.Certificate, chain []*x509.Certificate) bool {
	return len(chain) == 1 && bytes.Equal(cert.RawIssuer, cert.RawSubject)
}

func versionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("unknown (0x%04x)", version)
	}
}

func isWeakCipher(id uint16) bool {
	for _, suite := range tls.InsecureCipherSuites() {
		if suite.ID == id {
			return true
		}
	}
	return false
}
