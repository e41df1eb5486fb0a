// Package security holds the policy for URLs that receive the session's
// credentials.
package security

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// DefaultAllowedHostSuffixes are the hosts the web client talks to. Image
// URLs announced in a stream are fetched with the session cookie, so they must
// stay on these hosts.
var DefaultAllowedHostSuffixes = []string{"x.com", "twitter.com", "twimg.com"}

var ErrURLNotAllowed = errors.New("url not allowed")

// URLNotAllowedError names the URL and the rule it broke.
type URLNotAllowedError struct {
	URL    string
	Reason string
}

func (e *URLNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrURLNotAllowed, e.URL, e.Reason)
}

func (e *URLNotAllowedError) Is(target error) bool {
	return target == ErrURLNotAllowed
}

// OutboundURLOptions configures which URLs may receive credentialed requests.
type OutboundURLOptions struct {
	// AllowHTTP permits plain HTTP URLs. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback, private and link-local targets as
	// well as localhost names.
	AllowLocalNetworks bool
	// AllowedHostSuffixes restricts the host to one of these domains or their
	// subdomains. Empty means any public host.
	AllowedHostSuffixes []string
}

// DefaultOutboundURLOptions is the policy used for requests that carry credentials.
func DefaultOutboundURLOptions() OutboundURLOptions {
	return OutboundURLOptions{
		AllowedHostSuffixes: append([]string(nil), DefaultAllowedHostSuffixes...),
	}
}

// ValidateOutboundURL returns a *URLNotAllowedError when rawURL breaks opts.
// IP literals are checked as such; names are never resolved.
func ValidateOutboundURL(rawURL string, opts OutboundURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &URLNotAllowedError{URL: rawURL, Reason: err.Error()}
	}

	reason := opts.checkScheme(parsed.Scheme)
	if reason == "" {
		reason = opts.checkHost(strings.ToLower(parsed.Hostname()))
	}
	if reason != "" {
		return &URLNotAllowedError{URL: rawURL, Reason: reason}
	}
	return nil
}

func (o OutboundURLOptions) checkScheme(scheme string) string {
	switch {
	case scheme == "https":
		return ""
	case scheme == "http" && o.AllowHTTP:
		return ""
	case scheme == "http":
		return "plain http is disabled"
	default:
		return fmt.Sprintf("scheme %q is not supported", scheme)
	}
}

func (o OutboundURLOptions) checkHost(host string) string {
	if host == "" {
		return "no host"
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if reason := o.checkAddr(addr); reason != "" {
			return reason
		}
	} else if !o.AllowLocalNetworks && isLocalName(host) {
		return fmt.Sprintf("local host name %q", host)
	}

	if len(o.AllowedHostSuffixes) > 0 && !hasAllowedSuffix(host, o.AllowedHostSuffixes) {
		return fmt.Sprintf("host %q is not one of %s", host, strings.Join(o.AllowedHostSuffixes, ", "))
	}
	return ""
}

func (o OutboundURLOptions) checkAddr(addr netip.Addr) string {
	if addr.Zone() != "" && !o.AllowLocalNetworks {
		return fmt.Sprintf("zoned address %s", addr)
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return fmt.Sprintf("address %s cannot be a destination", addr)
	}
	if o.AllowLocalNetworks {
		return ""
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return fmt.Sprintf("local network address %s", addr)
	}
	return ""
}

func isLocalName(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local")
}

func hasAllowedSuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimPrefix(s, "."))
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
