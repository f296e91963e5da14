package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/example/spanishbot/internal/learning"
)

const sessionCookie = "session_id"

// currentScreen returns the Screen of a known browser session, or nil.
// Read-only requests never create sessions.
func (s *Server) currentScreen(r *http.Request) *learning.Screen {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return nil
	}
	screen, ok := s.sessions.Get(sessionKey(id))
	if !ok {
		return nil
	}
	return screen
}

// screenFor returns the Screen of the browser session. Unknown or missing
// session ids get a fresh server-issued id and cookie.
func (s *Server) screenFor(w http.ResponseWriter, r *http.Request) *learning.Screen {
	if screen := s.currentScreen(r); screen != nil {
		return screen
	}

	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	screen, _ := s.sessions.GetOrCreate(sessionKey(id))
	s.log.Debug("new web session", "session", id.String())
	return screen
}

// snapshot is the view of a known session, or the empty registration view
func (s *Server) snapshot(r *http.Request) learning.View {
	if screen := s.currentScreen(r); screen != nil {
		return screen.Snapshot()
	}
	return learning.View{}
}

func sessionKey(id uuid.UUID) string {
	return "web:" + id.String()
}
