package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 10000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// formField is one labelled input in a form.
type formField struct {
	label       string
	placeholder string
	value       string
	secret      bool
	multiline   bool
}

// display returns what the field shows: masked for secrets.
func (f formField) display() string {
	if f.secret {
		return strings.Repeat("•", utf8.RuneCountInString(f.value))
	}
	return f.value
}

// renderForm draws fields with a cursor on the focused one.
func renderForm(fields []formField, focus int) string {
	var b strings.Builder
	for i, f := range fields {
		cursor := " "
		style := metaStyle
		if i == focus {
			cursor = inputPromptStyle.Render(">")
			style = selectedStyle
		}
		value := f.display()
		switch {
		case value == "" && i != focus:
			value = inputPlaceholderStyle.Render(f.placeholder)
		case i == focus:
			value += accentStyle.Render("█")
		}
		if f.multiline {
			fmt.Fprintf(&b, "%s %s:\n", cursor, style.Render(f.label))
			for _, line := range strings.Split(value, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
			continue
		}
		fmt.Fprintf(&b, "%s %s: %s\n", cursor, style.Render(f.label), value)
	}
	return b.String()
}
