package types

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target is the network address of the audited site.
type Target struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port,omitempty" yaml:"port,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Scheme string `json:"scheme" yaml:"scheme"`
}

// ParseTarget accepts a host, host:port, or full URL and normalizes it into a Target.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("target cannot be empty")
	}

	if strings.Contains(raw, "://") {
		return parseURL(raw)
	}

	host, portStr, err := net.SplitHostPort(raw)
	if err == nil {
		port, err := parsePort(portStr)
		if err != nil {
			return Target{}, err
		}
		return Target{Host: host, Port: port, Scheme: "https"}, nil
	}

	return Target{Host: raw, Scheme: "https"}, nil
}

// BaseURL returns the site root without a trailing slash.
func (t Target) BaseURL() string {
	if t.URL != "" {
		return strings.TrimRight(t.URL, "/")
	}
	if t.Host == "" {
		return ""
	}
	scheme := t.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if t.Port != 0 {
		return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(t.Host, strconv.Itoa(t.Port)))
	}
	return fmt.Sprintf("%s://%s", scheme, t.Host)
}

// TLSPort returns the port a TLS handshake should target.
func (t Target) TLSPort() int {
	if t.Port != 0 {
		return t.Port
	}
	return 443
}

func parseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("URL %q has no hostname", raw)
	}

	t := Target{
		Host:   u.Hostname(),
		URL:    raw,
		Scheme: u.Scheme,
	}
	if u.Port() != "" {
		port, err := parsePort(u.Port())
		if err != nil {
			return Target{}, fmt.Errorf("invalid port in URL: %w", err)
		}
		t.Port = port
	}
	return t, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return port, nil
}
