package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

// authResultMsg reports a finished login or registration. On success the
// session has already been stored.
type authResultMsg struct {
	register bool
	user     *domain.User
	err      error
}

// signIn stores a fresh credential and hands it to the relay when one is
// configured. Persistence and relay failures are logged, not returned: the
// in-memory session is already usable.
func signIn(ctx context.Context, svc *services, resp *client.AuthResponse) {
	if err := svc.session.Login(ctx, resp.Token, resp.User); err != nil {
		svc.logger.Warn("session not persisted", "error", err)
	}
	if svc.relay != nil {
		if err := svc.relay.SetToken(ctx, resp.Token); err != nil {
			svc.logger.Warn("relay handoff failed", "error", err)
		}
	}
}

const (
	loginEmail = iota
	loginPassword
	numLoginFields
)

type loginModel struct {
	svc    *services
	fields []formField
	focus  int
	busy   bool
}

func newLoginModel(svc *services) loginModel {
	return loginModel{
		svc: svc,
		fields: []formField{
			loginEmail:    {label: "email", placeholder: "you@example.com"},
			loginPassword: {label: "password", secret: true},
		},
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		if msg.register {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.svc.toasts.Error(client.Message(msg.err, "Login failed"))
			m.fields[loginPassword].value = ""
			return m, nil
		}
		m.svc.toasts.Success("Welcome back!")
		return newLoginModel(m.svc), navigate(viewHome, 0)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % numLoginFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		case "enter":
			if m.focus == numLoginFields-1 {
				return m.submit()
			}
			m.focus++
		case "ctrl+s":
			return m.submit()
		default:
			f := &m.fields[m.focus]
			f.value = editRune(f.value, msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[loginEmail].value)
	password := m.fields[loginPassword].value
	if email == "" || password == "" {
		m.svc.toasts.Error("Email and password are required")
		return m, nil
	}

	m.busy = true
	svc := m.svc
	return m, func() tea.Msg {
		ctx := context.Background()
		resp, err := svc.client.Login(ctx, email, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		signIn(ctx, svc, resp)
		return authResultMsg{user: &resp.User}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + titleStyle.Render("Login") + "\n\n")
	b.WriteString(renderForm(m.fields, m.focus))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(" " + dimStyle.Render("signing in..."))
	} else {
		b.WriteString(" " + dimStyle.Render("Don't have an account? press esc, then r to register"))
	}
	return b.String()
}

const (
	registerEmail = iota
	registerPassword
	registerConfirm
	registerBio
	numRegisterFields
)

type registerModel struct {
	svc    *services
	fields []formField
	focus  int
	busy   bool
}

func newRegisterModel(svc *services) registerModel {
	return registerModel{
		svc: svc,
		fields: []formField{
			registerEmail:    {label: "email", placeholder: "you@example.com"},
			registerPassword: {label: "password", secret: true},
			registerConfirm:  {label: "confirm password", secret: true},
			registerBio:      {label: "bio", placeholder: "optional"},
		},
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		if !msg.register {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.svc.toasts.Error(client.Message(msg.err, "Registration failed"))
			return m, nil
		}
		m.svc.toasts.Success("Account created successfully! Welcome to Blog App!")
		return newRegisterModel(m.svc), navigate(viewHome, 0)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % numRegisterFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numRegisterFields) % numRegisterFields
		case "enter":
			if m.focus == numRegisterFields-1 {
				return m.submit()
			}
			m.focus++
		case "ctrl+s":
			return m.submit()
		default:
			f := &m.fields[m.focus]
			f.value = editRune(f.value, msg.String())
		}
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	req := client.RegisterRequest{
		Email:    strings.TrimSpace(m.fields[registerEmail].value),
		Password: m.fields[registerPassword].value,
		Bio:      strings.TrimSpace(m.fields[registerBio].value),
	}
	if req.Email == "" || req.Password == "" {
		m.svc.toasts.Error("Email and password are required")
		return m, nil
	}
	if req.Password != m.fields[registerConfirm].value {
		m.svc.toasts.Error("Passwords do not match")
		return m, nil
	}

	m.busy = true
	svc := m.svc
	return m, func() tea.Msg {
		ctx := context.Background()
		resp, err := svc.client.Register(ctx, req)
		if err != nil {
			return authResultMsg{register: true, err: err}
		}
		signIn(ctx, svc, resp)
		return authResultMsg{register: true, user: &resp.User}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + titleStyle.Render("Register") + "\n\n")
	b.WriteString(renderForm(m.fields, m.focus))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(" " + dimStyle.Render("creating account..."))
	} else {
		b.WriteString(" " + dimStyle.Render("Already have an account? press esc, then l to login"))
	}
	return b.String()
}
