package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/quill/internal/guard"
	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/internal/toast"
	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

type view int

const (
	viewHome view = iota
	viewLogin
	viewRegister
	viewPost
	viewCreate
	viewEdit
)

// protected views need a signed-in user.
func (v view) protected() bool {
	return v == viewPost || v == viewCreate || v == viewEdit
}

// DefaultToastDuration is how long a toast stays on screen.
const DefaultToastDuration = 3 * time.Second

// TokenRelay receives the session token so a relay server can serve
// cookie-authenticated reads. relay.Handoff implements it.
type TokenRelay interface {
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Options wires the App to its collaborators. Client, Session and Toasts are
// required.
type Options struct {
	Client        *client.Client
	Session       *session.Store
	Toasts        *toast.Queue
	Relay         TokenRelay
	WebURL        string
	ToastDuration time.Duration
	Logger        *slog.Logger
}

// services is shared by every view.
type services struct {
	client  *client.Client
	session *session.Store
	toasts  *toast.Queue
	relay   TokenRelay
	webURL  string
	logger  *slog.Logger
	cancels []func()
}

// navigateMsg asks the App to switch views.
type navigateMsg struct {
	to     view
	postID int64
}

func navigate(to view, postID int64) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to, postID: postID} }
}

type sessionChangedMsg struct {
	state session.State
}

type toastsChangedMsg struct {
	toasts []toast.Toast
}

type toastExpiredMsg struct {
	id string
}

type loggedOutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	svc           *services
	view          view
	postID        int64
	home          homeModel
	login         loginModel
	register      registerModel
	post          postModel
	create        createModel
	auth          session.State
	toasts        []toast.Toast
	timers        map[string]bool
	toastDuration time.Duration
	sessionCh     <-chan session.State
	toastCh       <-chan []toast.Toast
	width         int
	height        int
	frame         int
}

// NewApp creates the TUI and subscribes it to the session and toast queue.
// Call Close when the program exits.
func NewApp(opts Options) App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	svc := &services{
		client:  opts.Client,
		session: opts.Session,
		toasts:  opts.Toasts,
		relay:   opts.Relay,
		webURL:  opts.WebURL,
		logger:  logger.With("component", "tui"),
	}

	sessionCh, cancelSession := opts.Session.Subscribe()
	toastCh, cancelToasts := opts.Toasts.Subscribe()
	svc.cancels = []func(){cancelSession, cancelToasts}

	d := opts.ToastDuration
	if d <= 0 {
		d = DefaultToastDuration
	}
	return App{
		svc:           svc,
		home:          newHomeModel(svc),
		login:         newLoginModel(svc),
		register:      newRegisterModel(svc),
		post:          newPostModel(svc),
		create:        newCreateModel(svc),
		auth:          opts.Session.State(),
		timers:        make(map[string]bool),
		toastDuration: d,
		sessionCh:     sessionCh,
		toastCh:       toastCh,
	}
}

// Close ends the App's subscriptions.
func (a App) Close() {
	for _, cancel := range a.svc.cancels {
		cancel()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.initSession(),
		waitForSession(a.sessionCh),
		waitForToasts(a.toastCh),
		shimmerTickCmd(),
	)
}

// initSession hydrates the session once at startup. The result arrives
// through the session subscription. A restored token is handed to the relay.
func (a App) initSession() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		ctx := context.Background()
		st := svc.session.InitializeAuth(ctx)
		if st.IsAuthenticated && svc.relay != nil {
			if err := svc.relay.SetToken(ctx, st.Token); err != nil {
				svc.logger.Warn("relay handoff failed", "error", err)
			}
		}
		return nil
	}
}

func waitForSession(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: st}
	}
}

func waitForToasts(ch <-chan []toast.Toast) tea.Cmd {
	return func() tea.Msg {
		ts, ok := <-ch
		if !ok {
			return nil
		}
		return toastsChangedMsg{toasts: ts}
	}
}

func expireToast(id string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (a App) logout() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		ctx := context.Background()
		if err := svc.session.Logout(ctx); err != nil {
			svc.logger.Warn("session storage not cleared", "error", err)
		}
		if svc.relay != nil {
			if err := svc.relay.ClearToken(ctx); err != nil {
				svc.logger.Warn("relay clear failed", "error", err)
			}
		}
		return loggedOutMsg{}
	}
}

// navigate switches to view to, applying the route guard first.
func (a App) navigate(to view, postID int64) (App, tea.Cmd) {
	a.view = to
	a.postID = postID

	switch d := guard.Check(a.auth); {
	case to.protected() && d == guard.Redirect:
		a.view = viewLogin
		a.login = newLoginModel(a.svc)
		return a, nil
	case to.protected() && d == guard.Wait:
		// placeholder until hydration settles; sessionChangedMsg re-enters
		return a, nil
	case (to == viewLogin || to == viewRegister) && d == guard.Allow:
		to = viewHome
		a.view = viewHome
	}

	var cmd tea.Cmd
	switch to {
	case viewHome:
		if a.auth.IsAuthenticated {
			a.home, cmd = a.home.refresh()
		}
	case viewLogin:
		a.login = newLoginModel(a.svc)
	case viewRegister:
		a.register = newRegisterModel(a.svc)
	case viewPost:
		a.post, cmd = a.post.load(postID)
	case viewCreate:
		a.create = newCreateModel(a.svc)
	case viewEdit:
		a.create, cmd = a.create.edit(postID)
	}
	return a, cmd
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + nav(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.home, _ = a.home.Update(bodyMsg)
		a.post, _ = a.post.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionChangedMsg:
		prev := guard.Check(a.auth)
		a.auth = msg.state
		var cmd tea.Cmd
		if guard.Check(a.auth) != prev {
			a, cmd = a.navigate(a.view, a.postID)
		}
		return a, tea.Batch(waitForSession(a.sessionCh), cmd)

	case toastsChangedMsg:
		a.toasts = msg.toasts
		cmds := []tea.Cmd{waitForToasts(a.toastCh)}
		for _, t := range msg.toasts {
			if !a.timers[t.ID] {
				a.timers[t.ID] = true
				cmds = append(cmds, expireToast(t.ID, a.toastDuration))
			}
		}
		return a, tea.Batch(cmds...)

	case toastExpiredMsg:
		delete(a.timers, msg.id)
		a.svc.toasts.Remove(msg.id)
		return a, nil

	case navigateMsg:
		return a.navigate(msg.to, msg.postID)

	case loggedOutMsg:
		a.svc.toasts.Info("Logged out")
		return a.navigate(viewHome, 0)

	case postsLoadedMsg:
		var cmd tea.Cmd
		a.home, cmd = a.home.Update(msg)
		return a, cmd

	case authResultMsg:
		var cmd tea.Cmd
		if msg.register {
			a.register, cmd = a.register.Update(msg)
		} else {
			a.login, cmd = a.login.Update(msg)
		}
		return a, cmd

	case postLoadedMsg, postDeletedMsg, copyResultMsg, openResultMsg:
		var cmd tea.Cmd
		a.post, cmd = a.post.Update(msg)
		return a, cmd

	case editorLoadedMsg, postSavedMsg:
		var cmd tea.Cmd
		a.create, cmd = a.create.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if next, cmd, handled := a.globalKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewPost:
		if guard.Check(a.auth) == guard.Allow {
			a.post, cmd = a.post.Update(msg)
		}
	case viewCreate, viewEdit:
		if guard.Check(a.auth) == guard.Allow {
			a.create, cmd = a.create.Update(msg)
		}
	}
	return a, cmd
}

// globalKey handles navigation keys. handled is false when the key belongs
// to the current view.
func (a App) globalKey(msg tea.KeyMsg) (App, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return a, tea.Quit, true
	case "esc":
		switch {
		case a.view == viewPost && a.post.confirming:
			return a, nil, false
		case a.view == viewEdit:
			next, cmd := a.navigate(viewPost, a.postID)
			return next, cmd, true
		case a.view != viewHome:
			next, cmd := a.navigate(viewHome, 0)
			return next, cmd, true
		}
		return a, nil, true
	}

	if a.isEditing() {
		return a, nil, false
	}

	switch key {
	case "q":
		return a, tea.Quit, true
	case "1":
		next, cmd := a.navigate(viewHome, 0)
		return next, cmd, true
	case "n":
		next, cmd := a.navigate(viewCreate, 0)
		return next, cmd, true
	case "l":
		if !a.auth.IsAuthenticated && !a.auth.IsLoading {
			next, cmd := a.navigate(viewLogin, 0)
			return next, cmd, true
		}
	case "r":
		if !a.auth.IsAuthenticated && !a.auth.IsLoading {
			next, cmd := a.navigate(viewRegister, 0)
			return next, cmd, true
		}
	case "o":
		if a.auth.IsAuthenticated {
			return a, a.logout(), true
		}
	}
	return a, nil, false
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister, viewCreate, viewEdit:
		return true
	case viewPost:
		return a.post.confirming
	}
	return false
}

func (a App) View() string {
	header := centerLine(renderShimmerLogo(a.frame), a.width) + "\n" + centerLine(a.statusLine(), a.width)

	body := a.body()
	help := a.helpLine()

	var toasts strings.Builder
	for _, t := range a.toasts {
		toasts.WriteString(" " + toastStyle(t.Severity).Render(t.Message) + "\n")
	}

	// Chrome budget: header(2) + nav(1) + help(1) + one line per toast
	chrome := 4 + len(a.toasts)
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s%s", header, a.navBar(), body, toasts.String(), help)
}

// body renders the current view behind the route guard.
func (a App) body() string {
	if a.view.protected() {
		switch guard.Check(a.auth) {
		case guard.Wait:
			return "\n " + dimStyle.Render("loading...")
		case guard.Redirect:
			return ""
		}
	}
	switch a.view {
	case viewLogin:
		return a.login.View()
	case viewRegister:
		return a.register.View()
	case viewPost:
		return a.post.View()
	case viewCreate, viewEdit:
		return a.create.View()
	}
	return a.home.View()
}

func (a App) statusLine() string {
	switch a.auth.Status() {
	case session.StatusUninitialized:
		return dimStyle.Render("checking session...")
	case session.StatusUnauthenticated:
		return dimStyle.Render("not signed in")
	}
	u := a.auth.User
	avatar := u.Avatar
	if avatar == "" {
		avatar = domain.DefaultAvatar
	}
	line := avatar + " " + normalStyle.Render(u.Email)
	if exp, ok := a.auth.ExpiresAt(); ok {
		line += metaStyle.Render(" · session expires in " + formatRemaining(time.Until(exp)))
	}
	return line
}

func (a App) navBar() string {
	type tab struct {
		key, name string
		v         view
	}
	tabs := []tab{{"1", "Blog App", viewHome}}
	if a.auth.IsAuthenticated {
		tabs = append(tabs, tab{"n", "New Post", viewCreate}, tab{"o", "Logout", -1})
	} else {
		tabs = append(tabs, tab{"l", "Login", viewLogin}, tab{"r", "Register", viewRegister})
	}

	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.v == a.view {
			parts = append(parts, accentStyle.Render(t.key)+" "+selectedStyle.Underline(true).Render(t.name))
		} else {
			parts = append(parts, metaStyle.Render(t.key)+" "+dimStyle.Render(t.name))
		}
	}
	return centerLine(strings.Join(parts, "    "), a.width)
}

func (a App) helpLine() string {
	switch a.view {
	case viewLogin, viewRegister:
		return helpBar("tab", "next", "enter", "submit", "esc", "back")
	case viewCreate, viewEdit:
		return helpBar("tab", "next", "h/l", "mood", "ctrl+s", "submit", "esc", "cancel")
	case viewPost:
		return a.post.helpKeys()
	}
	if a.auth.IsAuthenticated {
		return helpBar("j/k", "nav", "enter", "open", "f", "mood", "g", "refresh", "n", "new", "o", "logout", "q", "quit")
	}
	return helpBar("l", "login", "r", "register", "q", "quit")
}
