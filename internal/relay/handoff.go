package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Handoff pushes the session token to a running relay. The terminal client
// calls it after login and logout so server-rendered reads see the same
// session.
type Handoff struct {
	baseURL string
	http    *http.Client
}

// NewHandoff targets the relay at addr (host:port or a full URL).
func NewHandoff(addr string) *Handoff {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Handoff{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// SetToken asks the relay to store token in its cookie.
func (h *Handoff) SetToken(ctx context.Context, token string) error {
	return h.post(ctx, "/api/set-token", setTokenRequest{Token: token})
}

// ClearToken asks the relay to expire its cookie.
func (h *Handoff) ClearToken(ctx context.Context) error {
	return h.post(ctx, "/api/clear-token", struct{}{})
}

func (h *Handoff) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay %s: HTTP %d", path, resp.StatusCode)
	}
	return nil
}
