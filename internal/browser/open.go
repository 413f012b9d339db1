// Package browser opens post pages in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Open opens rawURL in the user's default browser.
func Open(rawURL string) error {
	cmd, err := Command(runtime.GOOS, rawURL)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the launcher for goos without starting it.
func Command(goos, rawURL string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", rawURL), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", rawURL), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

// PostURL returns the web page for post id under webURL, e.g.
// https://blog.example.com/posts/7.
func PostURL(webURL string, id int64) (string, error) {
	if webURL == "" {
		return "", fmt.Errorf("web_url is not configured")
	}
	u, err := url.Parse(strings.TrimRight(webURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse web_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("web_url must be http or https, got %q", webURL)
	}
	return u.JoinPath("posts", strconv.FormatInt(id, 10)).String(), nil
}
