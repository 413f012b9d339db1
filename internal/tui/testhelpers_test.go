package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/internal/storage"
	"github.com/naveenspark/quill/internal/toast"
	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

var (
	testUser  = domain.User{ID: 1, Email: "a@x.com", Avatar: "🙂"}
	otherUser = domain.User{ID: 2, Email: "b@x.com", Avatar: "🦊"}
)

// fakeRelay records handoffs.
type fakeRelay struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (f *fakeRelay) SetToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	return nil
}

func (f *fakeRelay) ClearToken(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared++
	return nil
}

type testEnv struct {
	svc     *services
	session *session.Store
	toasts  *toast.Queue
	relay   *fakeRelay
}

// newTestEnv builds services against apiURL ("" for a client that is never called).
func newTestEnv(t *testing.T, apiURL string) *testEnv {
	t.Helper()
	if apiURL == "" {
		apiURL = "http://127.0.0.1:1/api"
	}
	s := session.New(storage.NewMemory())
	q := toast.NewQueue()
	r := &fakeRelay{}
	t.Cleanup(func() {
		s.Close()
		q.Close()
	})
	return &testEnv{
		svc: &services{
			client:  client.New(apiURL, s),
			session: s,
			toasts:  q,
			relay:   r,
			webURL:  "https://blog.example.com",
			logger:  logging.Discard(),
		},
		session: s,
		toasts:  q,
		relay:   r,
	}
}

func (e *testEnv) signIn(t *testing.T, u domain.User) {
	t.Helper()
	e.session.InitializeAuth(context.Background())
	if err := e.session.Login(context.Background(), "tok", u); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
}

func (e *testEnv) lastToast(t *testing.T) toast.Toast {
	t.Helper()
	ts := e.toasts.Toasts()
	if len(ts) == 0 {
		t.Fatal("expected a toast, queue is empty")
	}
	return ts[len(ts)-1]
}

func newTestApp(t *testing.T, apiURL string) (App, *testEnv) {
	t.Helper()
	env := newTestEnv(t, apiURL)
	a := NewApp(Options{
		Client:  env.svc.client,
		Session: env.session,
		Toasts:  env.toasts,
		Relay:   env.relay,
		WebURL:  env.svc.webURL,
		Logger:  logging.Discard(),
	})
	t.Cleanup(a.Close)
	a.width = 100
	a.height = 40
	return a, env
}

// settle feeds the session's current state to the app.
func settle(t *testing.T, a App, env *testEnv) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(sessionChangedMsg{state: env.session.State()})
	return m.(App), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText sends each rune of s as a key press.
func typeText[M interface {
	Update(tea.Msg) (M, tea.Cmd)
}](m M, s string) M {
	for _, r := range s {
		m, _ = m.Update(keyMsg(string(r)))
	}
	return m
}

// navTarget runs cmd and returns the navigateMsg it produces.
func navTarget(t *testing.T, cmd tea.Cmd) navigateMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a navigate command, got nil")
	}
	nav, ok := cmd().(navigateMsg)
	if !ok {
		t.Fatalf("expected navigateMsg, got %T", cmd())
	}
	return nav
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

// apiStub serves canned JSON responses by "METHOD path".
func apiStub(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}
