package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Post is a blog post.
type Post struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	Mood      string     `json:"mood"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// IsAuthoredBy reports whether u wrote the post.
func (p Post) IsAuthoredBy(u *User) bool {
	return u != nil && p.Author.ID == u.ID
}

// Mood is one of the fixed post moods.
type Mood struct {
	Value string
	Label string
}

// Moods in display order. The server rejects anything else.
var Moods = []Mood{
	{Value: "💻", Label: "Tech"},
	{Value: "🎨", Label: "Creative"},
	{Value: "🤔", Label: "Thought"},
}

// DefaultMood is applied by the server when a post omits one.
const DefaultMood = "💻"

// MaxTitleLen is the server-side title limit in characters.
const MaxTitleLen = 200

// ValidMood returns true if v is a known mood value.
func ValidMood(v string) bool {
	for _, m := range Moods {
		if m.Value == v {
			return true
		}
	}
	return false
}

// MoodLabel returns the label for a mood value, or "" if unknown.
func MoodLabel(v string) string {
	for _, m := range Moods {
		if m.Value == v {
			return m.Label
		}
	}
	return ""
}

// NextMood cycles through Moods. step is +1 or -1.
func NextMood(current string, step int) string {
	idx := 0
	for i, m := range Moods {
		if m.Value == current {
			idx = i
			break
		}
	}
	n := len(Moods)
	idx = ((idx+step)%n + n) % n
	return Moods[idx].Value
}

// Post validation errors. Messages are shown to the user as-is.
var (
	ErrContentRequired = errors.New("Title and content are required")
	ErrTitleTooLong    = errors.New("Title too long (max 200 chars)")
	ErrInvalidMood     = errors.New("Invalid mood")
)

// ValidatePost checks a post draft before it is sent. An empty mood is allowed
// and means the server default.
func ValidatePost(title, content, mood string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if mood != "" && !ValidMood(mood) {
		return ErrInvalidMood
	}
	return nil
}
