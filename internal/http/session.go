package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/storage"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "carteira_session"

type userKey struct{}

// sessionToken returns the token from the session cookie or a Bearer
// Authorization header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// requireSession rejects requests without a live session and stores the
// authenticated user in the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Autenticação necessária")
			return
		}

		user, err := s.store.SessionUser(r.Context(), token, s.now())
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Sessão expirada ou inválida")
			return
		}
		if err != nil {
			s.fail(w, r, "session", err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		logger := applog.FromContext(ctx).With(applog.NewFields().WithUser(user.ID, user.FamilyID).ToSlice()...)
		ctx = applog.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user stored by requireSession.
func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userKey{}).(core.User)
	return u
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
