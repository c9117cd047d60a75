package tls

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSigned(t *testing.T, notAfter time.Time, dns ...string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    notAfter.Add(-365 * 24 * time.Hour),
		NotAfter:     notAfter,
		DNSNames:     dns,
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestInspect_Clean(t *testing.T) {
	now := time.Now()
	leaf := selfSigned(t, now.Add(200*24*time.Hour), "example.com")
	issuer := selfSigned(t, now.Add(400*24*time.Hour))
	state := tls.ConnectionState{
		Version:          tls.VersionTLS13,
		CipherSuite:      tls.TLS_AES_128_GCM_SHA256,
		PeerCertificates: []*x509.Certificate{leaf, issuer},
	}
	assert.Empty(t, Inspect(state, "example.com", now, 30))
}

func TestInspect_Problems(t *testing.T) {
	now := time.Now()
	leaf := selfSigned(t, now.Add(10*24*time.Hour), "example.com")
	state := tls.ConnectionState{
		Version:          tls.VersionTLS10,
		CipherSuite:      tls.TLS_RSA_WITH_RC4_128_SHA,
		PeerCertificates: []*x509.Certificate{leaf},
	}

	issues := Inspect(state, "other.org", now, 30)
	assert.Contains(t, issues, "deprecated_version")
	assert.Contains(t, issues, "weak_cipher")
	assert.Contains(t, issues, "expiring")
	assert.Contains(t, issues, "hostname_mismatch")
	assert.Contains(t, issues, "self_signed")
	assert.NotContains(t, issues, "expired")
	assert.Equal(t, "TLS 1.0", issues["deprecated_version"]["tls_version"])
}

func TestInspect_Expired(t *testing.T) {
	now := time.Now()
	leaf := selfSigned(t, now.Add(-time.Hour), "example.com")
	state := tls.ConnectionState{Version: tls.VersionTLS12, PeerCertificates: []*x509.Certificate{leaf}}

	issues := Inspect(state, "example.com", now, 30)
	assert.Contains(t, issues, "expired")
	assert.NotContains(t, issues, "expiring")
}

func TestCheck_AgainstTLSServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, err := New()
	require.NoError(t, err)
	res, err := c.Perform(context.Background(), check.Request{
		Definition: check.Definition{ID: ID},
		Site:       &site.Facts{BaseURL: srv.URL},
		Timeout:    2 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	// The httptest certificate is self-signed and valid for 127.0.0.1.
	assert.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []string{"self_signed"}, res.IssueNames())
}

func TestCheck_PlainHTTPSkips(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	res, err := c.Perform(context.Background(), check.Request{Site: &site.Facts{BaseURL: "http://example.com"}})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSkip, res.Status)
}

func TestVersionName(t *testing.T) {
	assert.Equal(t, "TLS 1.2", versionName(tls.VersionTLS12))
	assert.Contains(t, versionName(0x9999), "unknown")
}
