package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CORS allows browser calls from generated agent sites, which live on
// subdomains of the platform domain, and from any extra configured origins.
type CORS struct {
	platformDomain string
	origins        []string
}

// NewCORS creates a CORS middleware. An origin of "*" in origins allows all.
func NewCORS(platformDomain string, origins []string) *CORS {
	return &CORS{
		platformDomain: strings.ToLower(strings.TrimSpace(platformDomain)),
		origins:        origins,
	}
}

// Allowed reports whether a browser at origin may call the API.
func (c *CORS) Allowed(origin string) bool {
	for _, o := range c.origins {
		if o == "*" || o == origin {
			return true
		}
	}

	if c.platformDomain == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), "."+c.platformDomain)
}

// Handler sets CORS headers for allowed origins and answers preflight requests.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && c.Allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
