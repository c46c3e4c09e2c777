package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dasdy/turismo/logging"
)

const SessionCookie = "turismo_session"

type sessionKey struct{}

// SessionFrom returns the session id stored by WithSession.
func SessionFrom(ctx context.Context) string {
	session, _ := ctx.Value(sessionKey{}).(string)

	return session
}

// ContextWithSession is what WithSession attaches to every request.
func ContextWithSession(ctx context.Context, session string) context.Context {
	return logging.SessionCtx(context.WithValue(ctx, sessionKey{}, session), session)
}

// WithSession makes sure every request belongs to a known session, starting a new one
// (and forgetting expired ones) when the cookie is missing or stale.
func (s *ServerHandler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
			exists, err := s.Storage.SessionExists(ctx, cookie.Value)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to look up session", "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)

				return
			}

			if exists {
				next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, cookie.Value)))

				return
			}
		}

		if s.SessionTTL > 0 {
			s.forgetIdle(ctx, time.Now().Add(-s.SessionTTL))
		}

		session, err := s.Storage.CreateSession(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create session", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    session,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		ctx = ContextWithSession(ctx, session)
		slog.InfoContext(ctx, "Started new session")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// forgetIdle drops sessions idle since before, then the tables only they were looking at.
func (s *ServerHandler) forgetIdle(ctx context.Context, before time.Time) {
	if _, err := s.Storage.PruneSessions(ctx, before); err != nil {
		slog.WarnContext(ctx, "Failed to prune sessions", "error", err)

		return
	}

	keys, err := s.Storage.DatasetKeys(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to list datasets", "error", err)

		return
	}

	s.Tables.Retain(keys, before)
}
