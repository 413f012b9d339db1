package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/pkg/domain"
)

func TestCheck(t *testing.T) {
	user := &domain.User{ID: 1, Email: "a@x.com"}
	tests := []struct {
		name  string
		state session.State
		want  Decision
	}{
		{"loading", session.State{IsLoading: true}, Wait},
		{"loading with stale data", session.State{IsLoading: true, Token: "t", User: user}, Wait},
		{"unauthenticated", session.State{}, Redirect},
		{"authenticated", session.State{Token: "t", User: user, IsAuthenticated: true}, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.state); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecisionString(t *testing.T) {
	for d, want := range map[Decision]string{Wait: "wait", Redirect: "redirect", Allow: "allow", Decision(7): "unknown"} {
		if d.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(d), d.String(), want)
		}
	}
}

func TestRequireCookie(t *testing.T) {
	var gotToken string
	h := RequireCookie("token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		path     string
		cookie   string
		json     bool
		wantCode int
		wantLoc  string
	}{
		{"api without cookie", "/api/posts", "", false, http.StatusUnauthorized, ""},
		{"json page without cookie", "/posts", "", true, http.StatusUnauthorized, ""},
		{"page without cookie", "/posts/1", "", false, http.StatusSeeOther, "/login"},
		{"api with cookie", "/api/posts", "abc", false, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotToken = ""
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.json {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
			if gotToken != tt.cookie {
				t.Errorf("token in context = %q, want %q", gotToken, tt.cookie)
			}
		})
	}
}

func TestRequireCookieEmptyValue(t *testing.T) {
	h := RequireCookie("token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}
}
