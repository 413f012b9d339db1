package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/quill/internal/browser"
	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

type postLoadedMsg struct {
	id   int64
	post *domain.Post
	err  error
}

type postDeletedMsg struct {
	id  int64
	err error
}

type copyResultMsg struct {
	err error
}

type openResultMsg struct {
	err error
}

// postModel shows one post. Its author may edit or delete it.
type postModel struct {
	svc        *services
	id         int64
	post       *domain.Post
	loading    bool
	err        string
	confirming bool
	deleting   bool
	width      int
}

func newPostModel(svc *services) postModel {
	return postModel{svc: svc}
}

func (m postModel) load(id int64) (postModel, tea.Cmd) {
	m = newPostModel(m.svc)
	m.id = id
	m.loading = true
	c := m.svc.client
	return m, func() tea.Msg {
		post, err := c.GetPost(context.Background(), id)
		return postLoadedMsg{id: id, post: post, err: err}
	}
}

func (m postModel) isAuthor() bool {
	return m.post != nil && m.post.IsAuthoredBy(m.svc.session.State().User)
}

func (m postModel) Update(msg tea.Msg) (postModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postLoadedMsg:
		if msg.id != m.id {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = client.Message(msg.err, "Post not found")
			return m, nil
		}
		m.post = msg.post
		return m, nil

	case postDeletedMsg:
		if msg.id != m.id {
			return m, nil
		}
		m.deleting = false
		if msg.err != nil {
			m.svc.logger.Warn("delete post failed", "id", msg.id, "error", msg.err)
			m.svc.toasts.Error(client.Message(msg.err, "Failed to delete post"))
			return m, nil
		}
		m.svc.toasts.Success("Post deleted successfully!")
		return m, navigate(viewHome, 0)

	case copyResultMsg:
		if msg.err != nil {
			m.svc.toasts.Error(fmt.Sprintf("copy failed: %v", msg.err))
		} else {
			m.svc.toasts.Info("Copied to clipboard")
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.svc.toasts.Error(fmt.Sprintf("open failed: %v", msg.err))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m postModel) updateConfirm(msg tea.KeyMsg) (postModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.confirming = false
		return m.delete()
	case "n", "esc":
		m.confirming = false
	}
	return m, nil
}

func (m postModel) updateKeys(msg tea.KeyMsg) (postModel, tea.Cmd) {
	if m.post == nil || m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "e":
		if m.isAuthor() {
			return m, navigate(viewEdit, m.id)
		}
	case "d":
		if m.isAuthor() {
			m.confirming = true
		}
	case "c":
		text := m.post.Content
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(text)}
		}
	case "w":
		url, err := browser.PostURL(m.svc.webURL, m.id)
		if err != nil {
			m.svc.toasts.Error(err.Error())
			return m, nil
		}
		return m, func() tea.Msg {
			return openResultMsg{err: browser.Open(url)}
		}
	}
	return m, nil
}

func (m postModel) delete() (postModel, tea.Cmd) {
	if m.svc.session.Token() == "" {
		m.svc.toasts.Error("Session expired. Please login again.")
		return m, navigate(viewLogin, 0)
	}
	m.deleting = true
	c := m.svc.client
	id := m.id
	return m, func() tea.Msg {
		return postDeletedMsg{id: id, err: c.DeletePost(context.Background(), id)}
	}
}

func (m postModel) View() string {
	if m.err != "" {
		return "\n " + errorStyle.Render("error: "+m.err) + "\n\n " + dimStyle.Render("esc to go back")
	}
	if m.loading || m.post == nil {
		return "\n " + dimStyle.Render("loading...")
	}

	p := m.post
	var b strings.Builder
	avatar := p.Author.Avatar
	if avatar == "" {
		avatar = domain.DefaultAvatar
	}
	fmt.Fprintf(&b, "\n %s %s\n", avatar, normalStyle.Render(p.Author.Email))
	meta := formatTime(p.CreatedAt.Time)
	if p.UpdatedAt != nil && !p.UpdatedAt.IsZero() && p.UpdatedAt.After(p.CreatedAt.Time) {
		meta += " (edited)"
	}
	fmt.Fprintf(&b, "   %s  %s\n\n", metaStyle.Render(meta), MoodBadge(p.Mood))
	fmt.Fprintf(&b, " %s\n\n", titleStyle.Render(p.Title))
	for _, line := range strings.Split(p.Content, "\n") {
		fmt.Fprintf(&b, " %s\n", normalStyle.Render(line))
	}

	switch {
	case m.confirming:
		b.WriteString("\n " + errorStyle.Render("Are you sure you want to delete this post? (y/n)"))
	case m.deleting:
		b.WriteString("\n " + dimStyle.Render("deleting..."))
	}
	return b.String()
}

// helpKeys lists the keys the detail view accepts for the current user.
func (m postModel) helpKeys() string {
	if m.confirming {
		return helpBar("y", "delete", "n", "cancel")
	}
	pairs := []string{"c", "copy", "w", "web"}
	if m.isAuthor() {
		pairs = append(pairs, "e", "edit", "d", "delete")
	}
	pairs = append(pairs, "esc", "back", "q", "quit")
	return helpBar(pairs...)
}
