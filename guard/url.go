// Package guard decides which URLs may be fetched and which local paths
// may be written. Every function is a pure predicate or transformation over
// its inputs and is safe for concurrent use.
package guard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxRedirects mirrors the net/http default.
const maxRedirects = 10

// ErrBlockedRedirect is returned from the redirect check when a hop
// points at a URL the Policy does not allow.
var ErrBlockedRedirect = errors.New("redirect target not allowed")

var validate = validator.New()

// Policy controls which internal destinations a URL may point at.
//
// Private address detection is a prefix match on the hostname text
// ("192.168.", "10.", "172.") and nothing more. It does not resolve DNS,
// so a public name pointing at a private address passes. It also matches
// the public 172.32.0.0 - 172.255.255.255 range and ignores IPv6.
type Policy struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
}

// ValidateURL reports whether raw is an http(s) URL that may be fetched
// under p. It never fails open: anything it cannot parse is rejected.
func ValidateURL(raw string, p Policy) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	loopback := isLoopback(host)
	if !loopback && !wellFormed(raw, host) {
		return false
	}

	if loopback && !p.AllowLocalhost {
		return false
	}

	if isPrivate(host) && !p.AllowPrivateIPs {
		return false
	}

	return true
}

// CheckRedirect returns a func suitable for [http.Client.CheckRedirect]
// that applies [ValidateURL] to every hop.
func CheckRedirect(p Policy) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}

		if !ValidateURL(req.URL.String(), p) {
			return fmt.Errorf("%w: %s", ErrBlockedRedirect, req.URL.Redacted())
		}

		return nil
	}
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

func isPrivate(host string) bool {
	for _, prefix := range []string{"192.168.", "10.", "172."} {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}

	return false
}

// wellFormed runs the strict checks reserved for non-loopback hosts.
func wellFormed(raw, host string) bool {
	if err := validate.Var(raw, "http_url"); err != nil {
		return false
	}

	if err := validate.Var(host, "hostname_rfc1123|ip"); err != nil {
		return false
	}

	// Bare single-label names such as "intranet" pass rfc1123.
	if !strings.Contains(host, ".") && !strings.Contains(host, ":") {
		return false
	}

	return true
}
