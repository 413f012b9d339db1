package relay

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

// authRecorder remembers the last Authorization header the fake API saw.
type authRecorder struct {
	mu   sync.Mutex
	last string
}

func (a *authRecorder) set(v string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = v
}

func (a *authRecorder) get() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// fakeAPI serves /api/posts/ and /api/posts/{id}/.
func fakeAPI(t *testing.T, auth *authRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.set(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/posts/":
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"posts": []domain.Post{{ID: 1, Title: "Hello", Content: "World", Mood: r.URL.Query().Get("mood")}},
			})
		case "/api/posts/1/":
			json.NewEncoder(w).Encode(domain.Post{ID: 1, Title: "Hello"}) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Post not found"}) //nolint:errcheck
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	opts.Logger = logging.Discard()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetToken(t *testing.T) {
	s, ts := newTestServer(t, Options{CookieMaxAge: time.Hour})

	resp := postJSON(t, ts.URL+"/api/set-token", `{"token":"abc123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]bool
	json.NewDecoder(resp.Body).Decode(&body) //nolint:errcheck
	if !body["success"] {
		t.Errorf("body = %v, want success", body)
	}

	c := findCookie(resp, "token")
	if c == nil {
		t.Fatal("no token cookie set")
	}
	if c.Value != "abc123" || !c.HttpOnly || c.Secure || c.MaxAge != 3600 || c.Path != "/" {
		t.Errorf("cookie = %+v", c)
	}
	if got := testutil.ToFloat64(s.Metrics().TokenHandoffs.WithLabelValues("set")); got != 1 {
		t.Errorf("handoffs{set} = %v, want 1", got)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestSetTokenCookieNeverOutlivesToken(t *testing.T) {
	_, ts := newTestServer(t, Options{CookieMaxAge: time.Hour})
	tok := signedToken(t, time.Now().Add(10*time.Minute))

	resp := postJSON(t, ts.URL+"/api/set-token", `{"token":"`+tok+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	c := findCookie(resp, "token")
	if c == nil {
		t.Fatal("no token cookie set")
	}
	if c.MaxAge <= 0 || c.MaxAge > 600 {
		t.Errorf("MaxAge = %d, want at most the token's remaining 600s", c.MaxAge)
	}
}

func TestSetTokenKeepsConfiguredMaxAgeForLongerTokens(t *testing.T) {
	_, ts := newTestServer(t, Options{CookieMaxAge: 30 * time.Minute})
	tok := signedToken(t, time.Now().Add(24*time.Hour))

	c := findCookie(postJSON(t, ts.URL+"/api/set-token", `{"token":"`+tok+`"}`), "token")
	if c == nil || c.MaxAge != 1800 {
		t.Errorf("cookie = %+v, want MaxAge 1800", c)
	}
}

func TestSetTokenRejectsExpiredToken(t *testing.T) {
	s, ts := newTestServer(t, Options{CookieMaxAge: time.Hour})
	tok := signedToken(t, time.Now().Add(-time.Minute))

	resp := postJSON(t, ts.URL+"/api/set-token", `{"token":"`+tok+`"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if findCookie(resp, "token") != nil {
		t.Error("cookie set for an expired token")
	}
	if got := testutil.ToFloat64(s.Metrics().TokenHandoffs.WithLabelValues("rejected")); got != 1 {
		t.Errorf("handoffs{rejected} = %v, want 1", got)
	}
}

func TestSetTokenProductionSecure(t *testing.T) {
	_, ts := newTestServer(t, Options{Production: true, CookieName: "session"})
	resp := postJSON(t, ts.URL+"/api/set-token", `{"token":"abc"}`)
	c := findCookie(resp, "session")
	if c == nil || !c.Secure {
		t.Errorf("cookie = %+v, want Secure", c)
	}
}

func TestSetTokenRejects(t *testing.T) {
	for _, body := range []string{`{"token":""}`, `{}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			s, ts := newTestServer(t, Options{})
			resp := postJSON(t, ts.URL+"/api/set-token", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if findCookie(resp, "token") != nil {
				t.Error("cookie set on rejected handoff")
			}
			if got := testutil.ToFloat64(s.Metrics().TokenHandoffs.WithLabelValues("rejected")); got != 1 {
				t.Errorf("handoffs{rejected} = %v, want 1", got)
			}
		})
	}
}

func TestClearToken(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	resp := postJSON(t, ts.URL+"/api/clear-token", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	c := findCookie(resp, "token")
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want expired", c)
	}
	if got := testutil.ToFloat64(s.Metrics().TokenHandoffs.WithLabelValues("cleared")); got != 1 {
		t.Errorf("handoffs{cleared} = %v, want 1", got)
	}
}

func getWithCookie(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGuardedPostsRequireCookie(t *testing.T) {
	auth := &authRecorder{}
	api := fakeAPI(t, auth)
	s, ts := newTestServer(t, Options{APIURL: api.URL + "/api"})

	resp := getWithCookie(t, ts.URL+"/api/posts", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if auth.get() != "" {
		t.Error("API was called without a cookie")
	}
	if got := testutil.ToFloat64(s.Metrics().RequestsTotal.WithLabelValues("/api/posts", "401")); got != 1 {
		t.Errorf("requests{/api/posts,401} = %v, want 1", got)
	}
}

func TestListPostsForwardsBearer(t *testing.T) {
	auth := &authRecorder{}
	api := fakeAPI(t, auth)
	_, ts := newTestServer(t, Options{APIURL: api.URL + "/api"})

	resp := getWithCookie(t, ts.URL+"/api/posts?mood=%F0%9F%8E%A8", "abc123")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := auth.get(); got != "Bearer abc123" {
		t.Errorf("Authorization = %q, want Bearer abc123", got)
	}
	var body struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Posts) != 1 || body.Posts[0].Mood != "🎨" {
		t.Errorf("posts = %+v", body.Posts)
	}
}

func TestListPostsBadAuthorID(t *testing.T) {
	auth := &authRecorder{}
	api := fakeAPI(t, auth)
	_, ts := newTestServer(t, Options{APIURL: api.URL + "/api"})
	resp := getWithCookie(t, ts.URL+"/api/posts?author_id=abc", "tok")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetPost(t *testing.T) {
	auth := &authRecorder{}
	api := fakeAPI(t, auth)
	_, ts := newTestServer(t, Options{APIURL: api.URL + "/api"})

	resp := getWithCookie(t, ts.URL+"/api/posts/1", "tok")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var post domain.Post
	json.NewDecoder(resp.Body).Decode(&post) //nolint:errcheck
	if post.ID != 1 || post.Title != "Hello" {
		t.Errorf("post = %+v", post)
	}
}

func TestGetPostPassesThroughRejection(t *testing.T) {
	auth := &authRecorder{}
	api := fakeAPI(t, auth)
	_, ts := newTestServer(t, Options{APIURL: api.URL + "/api"})

	resp := getWithCookie(t, ts.URL+"/api/posts/42", "tok")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body) //nolint:errcheck
	if body["error"] != "Post not found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestGetPostNetworkFailure(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	_, ts := newTestServer(t, Options{APIURL: deadURL + "/api"})
	resp := getWithCookie(t, ts.URL+"/api/posts/1", "tok")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body) //nolint:errcheck
	if body["error"] != client.NetworkMessage {
		t.Errorf("error = %q, want %q", body["error"], client.NetworkMessage)
	}
}

func TestLoginPageAndMetrics(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	resp := getWithCookie(t, ts.URL+"/login", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(text), "quill login") {
		t.Errorf("login page = %q", text)
	}
	if got := testutil.ToFloat64(s.Metrics().RequestsTotal.WithLabelValues("/login", "200")); got != 1 {
		t.Errorf("requests{/login,200} = %v, want 1", got)
	}

	resp = getWithCookie(t, ts.URL+"/metrics", "")
	metrics, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(metrics), "quill_relay_requests_total") {
		t.Error("metrics output missing quill_relay_requests_total")
	}
}

func TestHandoff(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	h := NewHandoff(ts.URL)

	if err := h.SetToken(context.Background(), "abc"); err != nil {
		t.Fatalf("SetToken() error: %v", err)
	}
	if err := h.ClearToken(context.Background()); err != nil {
		t.Fatalf("ClearToken() error: %v", err)
	}
	if err := h.SetToken(context.Background(), ""); err == nil {
		t.Error("expected error for empty token")
	}

	m := s.Metrics().TokenHandoffs
	if testutil.ToFloat64(m.WithLabelValues("set")) != 1 || testutil.ToFloat64(m.WithLabelValues("cleared")) != 1 {
		t.Error("handoff counters not incremented")
	}
}

func TestNewHandoffAddsScheme(t *testing.T) {
	if h := NewHandoff("127.0.0.1:8787/"); h.baseURL != "http://127.0.0.1:8787" {
		t.Errorf("baseURL = %q", h.baseURL)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Logger: logging.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
