package http

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"carteira/internal/core"
	"carteira/internal/storage"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

func validateCredentials(req credentialsRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return core.Invalid(errors.New("invalid email"))
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return core.Invalid(errors.New("password must have at least 8 characters"))
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateCredentials(req); err != nil {
		s.fail(w, r, "register", err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, core.ErrEmptyName) {
		err = core.Invalid(err)
	}
	if err != nil {
		s.fail(w, r, "register", err)
		return
	}
	s.startSession(w, r, user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			s.logger.WarnContext(r.Context(), "Login failed", "client_ip", s.detector.ExtractClientIP(r))
		}
		s.fail(w, r, "login", err)
		return
	}
	s.startSession(w, r, user, http.StatusOK)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user core.User, status int) {
	session, err := s.store.CreateSession(r.Context(), user.ID, s.sessionTTL)
	if err != nil {
		s.fail(w, r, "create_session", err)
		return
	}
	s.setSessionCookie(w, r, session.Token, session.ExpiresAt)
	writeJSON(w, status, sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

// handleLogout is idempotent: an unknown or missing token still clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.store.DeleteSession(r.Context(), token); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.fail(w, r, "logout", err)
			return
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
