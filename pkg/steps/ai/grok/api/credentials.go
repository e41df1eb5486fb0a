package api

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// GuestBearerToken is the public bearer token of the X web client.
const GuestBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

const csrfCookieName = "ct0"

var csrfPattern = regexp.MustCompile(`ct0=([a-f0-9]+)`)

// Credentials is the immutable header set derived from a session cookie.
type Credentials struct {
	cookie    string
	csrfToken string
	lang      string
	headers   http.Header
}

// NewCredentials derives the csrf token from the ct0 cookie. A cookie string
// without ct0 is a configuration error.
func NewCredentials(cookie string, lang string) (*Credentials, error) {
	cookie = strings.TrimSpace(cookie)
	if lang == "" {
		lang = DefaultLang
	}

	m := csrfPattern.FindStringSubmatch(cookie)
	if m == nil {
		return nil, &ConfigurationError{
			Setting: csrfCookieName,
			Reason:  "cookie has no ct0 value, which is required for the CSRF token",
			Missing: true,
		}
	}

	c := &Credentials{
		cookie:    cookie,
		csrfToken: m[1],
		lang:      lang,
	}

	c.headers = http.Header{}
	c.headers.Set("Authorization", "Bearer "+GuestBearerToken)
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Cookie", cookie)
	c.headers.Set("X-Csrf-Token", c.csrfToken)
	c.headers.Set("X-Twitter-Active-User", "yes")
	c.headers.Set("X-Twitter-Client-Language", lang)

	return c, nil
}

// NewCredentialsFromMap joins name/value pairs into a cookie header.
func NewCredentialsFromMap(cookies map[string]string, lang string) (*Credentials, error) {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+cookies[name])
	}
	return NewCredentials(strings.Join(parts, "; "), lang)
}

// Headers returns a copy of the base header set.
func (c *Credentials) Headers() http.Header {
	return c.headers.Clone()
}

func (c *Credentials) CSRFToken() string {
	return c.csrfToken
}

func (c *Credentials) Lang() string {
	return c.lang
}
