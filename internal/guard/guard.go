// Package guard decides whether a protected view may be shown.
//
// Check is used by the terminal views: it waits while the session is still
// hydrating, sends unauthenticated viewers to login, and lets everyone else
// through. RequireCookie applies the same rule to HTTP requests served by the
// relay, where the credential arrives as a cookie.
package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/naveenspark/quill/internal/session"
)

// Decision is the outcome of a guard check.
type Decision int

const (
	// Wait renders a neutral placeholder and takes no navigation action.
	Wait Decision = iota
	// Redirect navigates to the login view.
	Redirect
	// Allow renders the protected content unchanged.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Check maps a session snapshot to a Decision.
func Check(s session.State) Decision {
	switch s.Status() {
	case session.StatusUninitialized:
		return Wait
	case session.StatusAuthenticated:
		return Allow
	default:
		return Redirect
	}
}

type tokenKey struct{}

// TokenFromContext returns the cookie token RequireCookie accepted.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// RequireCookie rejects requests without a non-empty cookie named name.
// Paths under /api/ and JSON requests get 401; pages are redirected to /login.
func RequireCookie(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(name)
			if err != nil || c.Value == "" {
				if r.Header.Get("Content-Type") == "application/json" ||
					strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"}) //nolint:errcheck
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), c.Value)))
		})
	}
}
