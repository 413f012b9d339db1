package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/quill/internal/guard"
	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

type postsLoadedMsg struct {
	posts []domain.Post
	mood  string
	err   error
}

// homeModel is the landing view: a welcome screen for visitors and the
// latest posts for signed-in users.
type homeModel struct {
	svc     *services
	posts   []domain.Post
	cursor  int
	mood    string // "" means all moods
	loading bool
	loaded  bool
	err     string
	width   int
	height  int
}

func newHomeModel(svc *services) homeModel {
	return homeModel{svc: svc}
}

func (m homeModel) load() tea.Cmd {
	c := m.svc.client
	mood := m.mood
	return func() tea.Msg {
		posts, err := c.ListPosts(context.Background(), client.PostFilter{Mood: mood})
		return postsLoadedMsg{posts: posts, mood: mood, err: err}
	}
}

// refresh marks the list loading and returns the fetch command.
func (m homeModel) refresh() (homeModel, tea.Cmd) {
	m.loading = true
	m.err = ""
	return m, m.load()
}

// nextMoodFilter cycles all -> each mood -> all.
func nextMoodFilter(current string) string {
	if current == "" {
		return domain.Moods[0].Value
	}
	for i, md := range domain.Moods {
		if md.Value == current && i+1 < len(domain.Moods) {
			return domain.Moods[i+1].Value
		}
	}
	return ""
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postsLoadedMsg:
		if msg.mood != m.mood {
			// stale response for a filter the user already moved past
			return m, nil
		}
		m.loading = false
		m.loaded = true
		if msg.err != nil {
			m.err = client.Message(msg.err, "Failed to fetch posts")
			m.svc.logger.Warn("list posts failed", "error", msg.err)
			return m, nil
		}
		m.err = ""
		m.posts = msg.posts
		if m.cursor >= len(m.posts) {
			m.cursor = max(len(m.posts)-1, 0)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if guard.Check(m.svc.session.State()) != guard.Allow {
			return m, nil
		}
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.posts)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.posts) {
				return m, navigate(viewPost, m.posts[m.cursor].ID)
			}
		case "f":
			m.mood = nextMoodFilter(m.mood)
			m.cursor = 0
			return m.refresh()
		case "g":
			return m.refresh()
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	switch guard.Check(m.svc.session.State()) {
	case guard.Wait:
		return "\n " + dimStyle.Render("loading...")
	case guard.Redirect:
		return m.welcomeView()
	}
	return m.listView()
}

func (m homeModel) welcomeView() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(centerLine(titleStyle.Render("Welcome to Blog App"), m.width) + "\n\n")
	b.WriteString(centerLine(normalStyle.Render("Join our community to read and share amazing blog posts!"), m.width) + "\n\n")
	b.WriteString(centerLine(dimStyle.Render("You need to be logged in to view posts and create content."), m.width) + "\n\n")
	actions := accentStyle.Render("r") + " " + normalStyle.Render("Get Started - Register") +
		"    " + accentStyle.Render("l") + " " + normalStyle.Render("Already have an account? Login")
	b.WriteString(centerLine(actions, m.width) + "\n")
	return b.String()
}

func (m homeModel) listView() string {
	var b strings.Builder

	filter := "all moods"
	if m.mood != "" {
		filter = MoodBadge(m.mood)
	}
	fmt.Fprintf(&b, "\n %s  %s\n\n", titleStyle.Render("Latest Posts"), dimStyle.Render("["+filter+"]"))

	if m.loading && !m.loaded {
		b.WriteString(" " + dimStyle.Render("loading posts..."))
		return b.String()
	}
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render("error: "+m.err))
		return b.String()
	}
	if len(m.posts) == 0 {
		b.WriteString(" " + dimStyle.Render("No posts yet. Be the first to create one!"))
		return b.String()
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	for i, p := range m.posts {
		cursor := "  "
		title := normalStyle.Render(truncStr(p.Title, width-8))
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			title = selectedStyle.Render(truncStr(p.Title, width-8))
		}
		avatar := p.Author.Avatar
		if avatar == "" {
			avatar = domain.DefaultAvatar
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, title)
		fmt.Fprintf(&b, "    %s %s  %s  %s\n",
			avatar,
			dimStyle.Render(p.Author.Email),
			metaStyle.Render(formatTime(p.CreatedAt.Time)),
			MoodBadge(p.Mood))
		if ex := excerpt(p.Content, width-6); ex != "" {
			fmt.Fprintf(&b, "    %s\n", metaStyle.Render(ex))
		}
		b.WriteString("\n")
	}
	return b.String()
}
