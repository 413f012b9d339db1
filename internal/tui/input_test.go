package tui

import (
	"strings"
	"testing"
)

func TestEditRune(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "hel", "l", "hell"},
		{"append special", "abc", "!", "abc!"},
		{"space key", "hello", "space", "hello "},
		{"literal space", "hello", " ", "hello "},
		{"emoji", "mood ", "🎨", "mood 🎨"},
		{"backspace", "hello", "backspace", "hell"},
		{"backspace empty", "", "backspace", ""},
		{"backspace multibyte", "café", "backspace", "caf"},
		{"backspace emoji", "hi🦊", "backspace", "hi"},
		{"enter ignored", "abc", "enter", "abc"},
		{"esc ignored", "abc", "esc", "abc"},
		{"ctrl ignored", "abc", "ctrl+a", "abc"},
		{"multi-rune ignored", "abc", "xyz", "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := editRune(tc.start, tc.key); got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneMaxInputLen(t *testing.T) {
	full := strings.Repeat("a", maxInputLen)
	if got := editRune(full, "b"); got != full {
		t.Errorf("expected input clamped at %d runes, got %d", maxInputLen, len(got))
	}
	if got := editRune(full, "backspace"); len(got) != maxInputLen-1 {
		t.Errorf("backspace at limit: len = %d", len(got))
	}
}

func TestTruncateToHeight(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"limits lines", "a\nb\nc\nd\n", 2, "a\nb\n"},
		{"fits", "a\nb", 5, "a\nb"},
		{"exact", "a\nb\n", 2, "a\nb\n"},
		{"zero max", "a\nb\nc", 0, "a\nb\nc"},
		{"negative max", "a\nb\nc", -1, "a\nb\nc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncateToHeight(tc.in, tc.max); got != tc.want {
				t.Errorf("truncateToHeight(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestRenderFormMasksSecrets(t *testing.T) {
	out := renderForm([]formField{
		{label: "email", value: "a@x.com"},
		{label: "password", value: "hunter2", secret: true},
	}, 0)
	if strings.Contains(out, "hunter2") {
		t.Error("secret value rendered in clear text")
	}
	if !strings.Contains(out, strings.Repeat("•", 7)) {
		t.Errorf("expected masked password, got:\n%s", out)
	}
	if !strings.Contains(out, "a@x.com") {
		t.Errorf("expected email value, got:\n%s", out)
	}
}

func TestRenderFormPlaceholderOnlyWhenUnfocused(t *testing.T) {
	fields := []formField{
		{label: "title", placeholder: "Title"},
		{label: "bio", placeholder: "optional"},
	}
	out := renderForm(fields, 0)
	if !strings.Contains(out, "optional") {
		t.Errorf("expected placeholder on unfocused field, got:\n%s", out)
	}
	if strings.Contains(out, "Title") {
		t.Errorf("focused empty field should show the cursor, not its placeholder:\n%s", out)
	}
}

func TestRenderFormMultiline(t *testing.T) {
	out := renderForm([]formField{{label: "content", value: "line1\nline2", multiline: true}}, 1)
	for _, want := range []string{"content:", "    line1", "    line2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}
