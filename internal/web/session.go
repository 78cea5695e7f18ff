package web

import (
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// sessionFor returns the caller's session, creating one and setting the
// cookie when the request has none or it has expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *core.Session {
	var id string
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		id = c.Value
	}

	sess, created := s.store.GetOrCreate(id)
	if created {
		s.setSessionCookie(w, sess.ID)
	}
	return sess
}

// existingSession returns the caller's session without creating one.
func (s *Server) existingSession(r *http.Request) (*core.Session, error) {
	c, err := r.Cookie(s.cfg.Session.CookieName)
	if err != nil {
		return nil, core.ErrSessionNotFound
	}
	return s.store.Get(c.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.IdleTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
