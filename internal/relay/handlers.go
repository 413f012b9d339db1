package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naveenspark/quill/internal/guard"
	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/pkg/client"
)

const maxBodyBytes = 16 << 10

type setTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.TokenHandoffs.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		s.metrics.TokenHandoffs.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	maxAge := s.cookieMaxAge(req.Token, time.Now())
	if maxAge <= 0 {
		s.metrics.TokenHandoffs.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "token has expired")
		return
	}

	http.SetCookie(w, s.cookie(req.Token, int(maxAge.Seconds())))
	s.metrics.TokenHandoffs.WithLabelValues("set").Inc()
	s.logger.Info("token cookie set", "max_age", maxAge)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// cookieMaxAge is the configured Max-Age, cut short so the cookie never
// outlives the token's exp claim when one is readable.
func (s *Server) cookieMaxAge(token string, now time.Time) time.Duration {
	maxAge := s.opts.CookieMaxAge
	if exp, ok := session.TokenExpiry(token); ok {
		maxAge = min(maxAge, exp.Sub(now).Truncate(time.Second))
	}
	return maxAge
}

func (s *Server) handleClearToken(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.cookie("", -1))
	s.metrics.TokenHandoffs.WithLabelValues("cleared").Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: http.SameSiteLaxMode,
	}
}

// apiClient calls the blog API as the cookie's owner.
func (s *Server) apiClient(r *http.Request) *client.Client {
	return client.New(s.opts.APIURL, client.StaticToken(guard.TokenFromContext(r.Context())))
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f := client.PostFilter{Mood: r.URL.Query().Get("mood")}
	if raw := r.URL.Query().Get("author_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author_id")
			return
		}
		f.AuthorID = id
	}

	posts, err := s.apiClient(r).ListPosts(r.Context(), f)
	if err != nil {
		s.upstreamError(w, err, "Failed to fetch posts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := s.apiClient(r).GetPost(r.Context(), id)
	if err != nil {
		s.upstreamError(w, err, "Failed to fetch post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// upstreamError passes API rejections through with their status and maps
// transport failures to 502.
func (s *Server) upstreamError(w http.ResponseWriter, err error, fallback string) {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		writeError(w, httpErr.StatusCode, client.Message(err, fallback))
		return
	}
	s.logger.Warn("upstream request failed", "error", err)
	writeError(w, http.StatusBadGateway, client.Message(err, fallback))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Not signed in.\n\nRun `quill login` (or sign in from the quill terminal app) to hand your session to this relay.\n") //nolint:errcheck
}
