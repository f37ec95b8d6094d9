// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

// Package web is the HTTP surface of the gateway: a thin adapter that parses
// forms, carries the session token in a cookie, and maps auth outcomes to
// pages. It holds no authentication state of its own.
package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
	"github.com/hanfeyyap/secure-auth-demo/internal/observability"
	"github.com/hanfeyyap/secure-auth-demo/pkg/errutil"
)

// SessionCookieName carries the opaque session token.
const SessionCookieName = "authgate_session"

//go:embed index.html
var indexPage []byte

// AuthService defines the authentication operations needed by the gateway.
type AuthService interface {
	// Register creates a new identity.
	Register(ctx context.Context, username, password string) (*auth.Identity, error)

	// Login authenticates a user and returns a session token.
	Login(ctx context.Context, clientKey, username, password string) (string, error)

	// CheckAccess resolves a session token to a username.
	CheckAccess(ctx context.Context, token string) (string, error)

	// Logout destroys the session for the token.
	Logout(ctx context.Context, token string) error
}

// Handler routes gateway HTTP requests to the auth service.
type Handler struct {
	authService AuthService
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// HandlerOption configures optional Handler behavior.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics enables outcome counters on the handler.
func WithMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a Handler. Returns an error if authService is nil.
func NewHandler(authService AuthService, opts ...HandlerOption) (*Handler, error) {
	if authService == nil {
		return nil, oops.Errorf("auth service is required")
	}
	h := &Handler{
		authService: authService,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		return nil, oops.Errorf("logger cannot be nil")
	}
	return h, nil
}

// Routes returns the gateway's HTTP mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /protected", h.handleProtected)
	mux.HandleFunc("GET /logout", h.handleLogout)
	return mux
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck // client may disconnect mid-write
	w.Write(indexPage)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, err := h.authService.Register(r.Context(), username, password)
	if err == nil {
		h.countRegistration("success")
		writePage(w, http.StatusOK, `User registered successfully! <a href="/">Go back</a>`)
		return
	}

	var weakErr *auth.WeakPasswordError
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		h.countRegistration("username_taken")
		writePage(w, http.StatusConflict, `Username is already taken. <a href="/">Go back</a>`)
	case errors.As(err, &weakErr):
		h.countRegistration("weak_password")
		msg := "Password is too weak."
		if len(weakErr.Suggestions) > 0 {
			msg += " " + strings.Join(weakErr.Suggestions, " ")
		}
		writePage(w, http.StatusBadRequest, html.EscapeString(msg)+` <a href="/">Go back</a>`)
	case isBadInput(err):
		h.countRegistration("invalid_username")
		writePage(w, http.StatusBadRequest, html.EscapeString(err.Error())+`. <a href="/">Go back</a>`)
	default:
		h.countRegistration("error")
		errutil.LogError(h.logger, "registration failed", err)
		writePage(w, http.StatusInternalServerError, `Something went wrong. <a href="/">Go back</a>`)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, err := h.authService.Login(r.Context(), clientKey(r), username, password)
	if err == nil {
		h.countLogin("success")
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
		writePage(w, http.StatusOK, fmt.Sprintf(
			`Welcome, %s! <a href="/protected">Go to protected page</a>`,
			html.EscapeString(username),
		))
		return
	}

	var invalidErr *auth.InvalidCredentialsError
	var limitedErr *auth.RateLimitedError
	switch {
	case errors.As(err, &invalidErr):
		h.countLogin("invalid_credentials")
		writePage(w, http.StatusUnauthorized, fmt.Sprintf(
			`Invalid username or password (%d attempts remaining). <a href="/">Try again</a>`,
			invalidErr.Remaining,
		))
	case errors.As(err, &limitedErr):
		h.countLogin("rate_limited")
		retryAfter := limitedErr.RetryAfter.Round(time.Second)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
		writePage(w, http.StatusTooManyRequests, fmt.Sprintf(
			`Too many failed login attempts. Try again in %s. <a href="/">Home</a>`,
			retryAfter,
		))
	default:
		h.countLogin("error")
		errutil.LogError(h.logger, "login failed", err)
		writePage(w, http.StatusInternalServerError, `Something went wrong. <a href="/">Go back</a>`)
	}
}

func (h *Handler) handleProtected(w http.ResponseWriter, r *http.Request) {
	username, err := h.authService.CheckAccess(r.Context(), sessionToken(r))
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthenticated) {
			errutil.LogError(h.logger, "session check failed", err)
		}
		writePage(w, http.StatusUnauthorized, `You must be logged in to see this page. <a href="/">Home</a>`)
		return
	}

	writePage(w, http.StatusOK, fmt.Sprintf(
		`Hello, %s! <a href="/logout">Logout</a>`,
		html.EscapeString(username),
	))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), sessionToken(r)); err != nil {
		errutil.LogError(h.logger, "logout failed", err)
		writePage(w, http.StatusInternalServerError, `Error logging out. <a href="/">Home</a>`)
		return
	}

	// Expire the cookie regardless of whether a session existed.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writePage(w, http.StatusOK, `You have been logged out. <a href="/">Home</a>`)
}

// sessionToken extracts the opaque token from the session cookie, or empty.
// The token is never inspected here; only the core interprets it.
func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clientKey identifies the caller's network origin for throttling: the host
// portion of the remote address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isBadInput reports whether the error is a rejected username or an empty
// password, both client mistakes rather than server faults.
func isBadInput(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	code := oopsErr.Code()
	return code == "AUTH_INVALID_USERNAME" || code == "AUTH_EMPTY_PASSWORD"
}

func (h *Handler) countRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect mid-write
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><body>%s</body></html>\n", body)
}
