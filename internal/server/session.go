package server

import (
	"context"
	"net/http"

	"github.com/emberwiki/emberwiki/wiki/repository"
)

type key string

const sessionKey key = "Session"

const sessionCookie = "emberwiki-login"

// SessionMiddleware extracts the login session, if any, and stashes it in
// the request context. Viewer resolution happens per handler, so a read
// path can degrade gracefully while a write path hard-fails.
func (a *App) SessionMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		session, _ := a.Sessions.Get(req, sessionCookie)
		if !session.IsNew {
			if actorID, ok := session.Values["actor_id"].(string); ok && actorID != "" {
				sess := &repository.Session{Token: actorID}
				ctx := context.WithValue(req.Context(), sessionKey, sess)
				handler.ServeHTTP(rw, req.WithContext(ctx))
				return
			}
		}
		handler.ServeHTTP(rw, req)
	})
}

// requestSession returns the login session from the request context, nil
// when the request is anonymous.
func requestSession(req *http.Request) *repository.Session {
	sess, _ := req.Context().Value(sessionKey).(*repository.Session)
	return sess
}

// beginSession writes the login cookie for an actor.
func (a *App) beginSession(rw http.ResponseWriter, req *http.Request, actorID string) error {
	session, _ := a.Sessions.Get(req, sessionCookie)
	session.Values["actor_id"] = actorID
	session.Options.MaxAge = a.Config.CookieExpiry
	session.Options.HttpOnly = true
	return session.Save(req, rw)
}

// endSession expires the login cookie.
func (a *App) endSession(rw http.ResponseWriter, req *http.Request) error {
	session, _ := a.Sessions.Get(req, sessionCookie)
	session.Options.MaxAge = -1
	delete(session.Values, "actor_id")
	return session.Save(req, rw)
}
