package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

const (
	fieldTitle = iota
	fieldContent
	fieldMood
	numEditorFields
)

type editorLoadedMsg struct {
	id   int64
	post *domain.Post
	err  error
}

type postSavedMsg struct {
	id   int64 // 0 for a new post
	post *domain.Post
	err  error
}

// createModel composes a new post or edits an existing one.
type createModel struct {
	svc       *services
	editID    int64 // 0 when creating
	title     string
	content   string
	mood      string
	focus     int
	loading   bool
	forbidden bool
	err       string
	busy      bool
}

func newCreateModel(svc *services) createModel {
	return createModel{svc: svc, mood: domain.DefaultMood}
}

// edit resets the form and loads post id into it.
func (m createModel) edit(id int64) (createModel, tea.Cmd) {
	m = newCreateModel(m.svc)
	m.editID = id
	m.loading = true
	c := m.svc.client
	return m, func() tea.Msg {
		post, err := c.GetPost(context.Background(), id)
		return editorLoadedMsg{id: id, post: post, err: err}
	}
}

func (m createModel) editing() bool { return m.editID != 0 }

func (m createModel) Update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorLoadedMsg:
		if msg.id != m.editID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = client.Message(msg.err, "Post not found")
			return m, nil
		}
		m.title = msg.post.Title
		m.content = msg.post.Content
		m.mood = msg.post.Mood
		if !msg.post.IsAuthoredBy(m.svc.session.State().User) {
			m.forbidden = true
			m.err = "You can only edit your own posts"
		}
		return m, nil

	case postSavedMsg:
		if msg.id != m.editID {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			fallback := "Failed to create post"
			if m.editing() {
				fallback = "Failed to update post"
			}
			m.svc.toasts.Error(client.Message(msg.err, fallback))
			return m, nil
		}
		if m.editing() {
			m.svc.toasts.Success("Post updated successfully!")
			return m, navigate(viewPost, m.editID)
		}
		m.svc.toasts.Success("Post created successfully!")
		return newCreateModel(m.svc), navigate(viewHome, 0)

	case tea.KeyMsg:
		if m.busy || m.loading || m.forbidden || m.err != "" {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m createModel) updateKeys(msg tea.KeyMsg) (createModel, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+s":
		return m.submit()
	case "tab":
		m.focus = (m.focus + 1) % numEditorFields
	case "shift+tab":
		m.focus = (m.focus - 1 + numEditorFields) % numEditorFields
	case "enter":
		if m.focus == fieldContent {
			m.content += "\n"
		} else {
			m.focus = (m.focus + 1) % numEditorFields
		}
	default:
		switch m.focus {
		case fieldTitle:
			m.title = editRune(m.title, key)
		case fieldContent:
			m.content = editRune(m.content, key)
		case fieldMood:
			switch key {
			case "l", "right":
				m.mood = domain.NextMood(m.mood, 1)
			case "h", "left":
				m.mood = domain.NextMood(m.mood, -1)
			}
		}
	}
	return m, nil
}

func (m createModel) submit() (createModel, tea.Cmd) {
	if err := domain.ValidatePost(m.title, m.content, m.mood); err != nil {
		m.svc.toasts.Error(err.Error())
		return m, nil
	}
	if m.svc.session.Token() == "" {
		m.svc.toasts.Error("Session expired. Please login again.")
		return m, navigate(viewLogin, 0)
	}

	m.busy = true
	req := client.PostRequest{
		Title:   strings.TrimSpace(m.title),
		Content: m.content,
		Mood:    m.mood,
	}
	c := m.svc.client
	id := m.editID
	return m, func() tea.Msg {
		ctx := context.Background()
		var (
			post *domain.Post
			err  error
		)
		if id != 0 {
			post, err = c.UpdatePost(ctx, id, req)
		} else {
			post, err = c.CreatePost(ctx, req)
		}
		return postSavedMsg{id: id, post: post, err: err}
	}
}

func (m createModel) View() string {
	var b strings.Builder
	heading := "Create New Post"
	if m.editing() {
		heading = "Edit Post"
	}
	b.WriteString("\n " + titleStyle.Render(heading) + "\n\n")

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n\n " + dimStyle.Render("esc to go back"))
		return b.String()
	}

	fields := []formField{
		fieldTitle:   {label: "title", placeholder: "Title", value: m.title},
		fieldContent: {label: "content", placeholder: "Content", value: m.content, multiline: true},
	}
	b.WriteString(renderForm(fields, m.focus))

	cursor := " "
	style := metaStyle
	if m.focus == fieldMood {
		cursor = inputPromptStyle.Render(">")
		style = selectedStyle
	}
	fmt.Fprintf(&b, "%s %s: %s  %s\n", cursor, style.Render("mood"), MoodBadge(m.mood), dimStyle.Render("(h/l to cycle)"))

	b.WriteString("\n")
	switch {
	case m.busy && m.editing():
		b.WriteString(" " + dimStyle.Render("Saving..."))
	case m.busy:
		b.WriteString(" " + dimStyle.Render("Publishing..."))
	default:
		fmt.Fprintf(&b, " %s", metaStyle.Render(fmt.Sprintf("%d/%d title chars", len([]rune(m.title)), domain.MaxTitleLen)))
	}
	return b.String()
}
