// Package creds resolves per-service connection settings for the two
// upstream services. Credentials live in HTTP-only cookies set by the
// connect/login endpoints, with a process-wide read-only fallback for
// deployments that configure them with environment variables.
package creds

import (
	"net/http"
	"time"
)

const (
	ServiceAllCodex  = "allcodex"
	ServiceAllKnower = "allknower"

	// ServiceAll addresses both services at once in Clear.
	ServiceAll = "all"

	cookieTTL = 30 * 24 * time.Hour
)

// ServiceCredentials is the resolved connection settings for one upstream.
// Empty fields mean "not configured"; resolution itself never fails.
type ServiceCredentials struct {
	URL   string
	Token string
}

// Configured reports whether both halves are present.
func (c ServiceCredentials) Configured() bool {
	return c.URL != "" && c.Token != ""
}

// Fallback is the process-wide configuration captured at startup. It is
// injected rather than read from the environment at resolve time so tests
// can substitute arbitrary values.
type Fallback struct {
	AllCodexURL    string
	AllCodexToken  string
	AllKnowerURL   string
	AllKnowerToken string
}

// ForService returns the fallback pair for one service; unknown services
// resolve to empty credentials.
func (f Fallback) ForService(service string) ServiceCredentials {
	switch service {
	case ServiceAllCodex:
		return ServiceCredentials{URL: f.AllCodexURL, Token: f.AllCodexToken}
	case ServiceAllKnower:
		return ServiceCredentials{URL: f.AllKnowerURL, Token: f.AllKnowerToken}
	default:
		return ServiceCredentials{}
	}
}

// Store is the resolve/persist/clear seam. The default implementation is
// CookieStore; sqlitestore provides a server-side alternative behind the
// same interface.
type Store interface {
	Resolve(service string, r *http.Request) (ServiceCredentials, error)
	Persist(service, url, token string, r *http.Request, w http.ResponseWriter) error
	Clear(service string, r *http.Request, w http.ResponseWriter) error
}

// CookieStore keeps credentials in two cookies per service
// (<service>_url, <service>_token). Nothing is cached: every request
// re-resolves from its own jar, so concurrent callers never interfere.
type CookieStore struct {
	fallback Fallback
	secure   bool
}

// NewCookieStore builds a store over the given fallback. secure marks the
// written cookies Secure and should be set only when serving HTTPS.
func NewCookieStore(fallback Fallback, secure bool) *CookieStore {
	return &CookieStore{fallback: fallback, secure: secure}
}

// Resolve picks exactly one source per field: the request cookie when
// present and non-empty, otherwise the fallback. The error is always nil;
// it exists to satisfy the Store seam.
func (s *CookieStore) Resolve(service string, r *http.Request) (ServiceCredentials, error) {
	fb := s.fallback.ForService(service)

	ans := ServiceCredentials{
		URL:   cookieValue(r, service+"_url", fb.URL),
		Token: cookieValue(r, service+"_token", fb.Token),
	}

	return ans, nil
}

// Persist writes the cookie pair: site-wide, HTTP-only, SameSite=Lax,
// 30-day expiry.
func (s *CookieStore) Persist(service, url, token string, _ *http.Request, w http.ResponseWriter) error {
	s.setCookie(w, service+"_url", url)
	s.setCookie(w, service+"_token", token)

	return nil
}

// Clear expires the cookie pair(s). Clearing an absent cookie is a no-op,
// so the operation is idempotent.
func (s *CookieStore) Clear(service string, _ *http.Request, w http.ResponseWriter) error {
	services := []string{service}
	if service == ServiceAll {
		services = []string{ServiceAllCodex, ServiceAllKnower}
	}

	for _, svc := range services {
		s.expireCookie(w, svc+"_url")
		s.expireCookie(w, svc+"_token")
	}

	return nil
}

func (s *CookieStore) setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   int(cookieTTL.Seconds()),
	})
}

func (s *CookieStore) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

func cookieValue(r *http.Request, name, fallback string) string {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}

	return fallback
}
