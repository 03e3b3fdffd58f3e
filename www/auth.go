package www

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "fixtureaudit_session"

// sessionStore carries the signed-in employee id through the cookie
// session. The login gate is deliberately a no-op: any employee id is
// accepted without a credential check.
type sessionStore struct {
	store *sessions.CookieStore
}

func newSessionStore(secret string) *sessionStore {
	var key []byte
	if secret != "" {
		key, _ = base64.StdEncoding.DecodeString(secret)
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   12 * 60 * 60, // one shift and then some
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionStore{store: cs}
}

func (s *sessionStore) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *sessionStore) getOperator(r *http.Request) (employeeID string, ok bool) {
	sess := s.get(r)
	v, exists := sess.Values["employee_id"]
	if !exists {
		return "", false
	}
	employeeID, ok = v.(string)
	return
}

func (s *sessionStore) setOperator(w http.ResponseWriter, r *http.Request, employeeID string) {
	sess := s.get(r)
	sess.Values["employee_id"] = employeeID
	sess.Save(r, w)
}

func (s *sessionStore) clear(w http.ResponseWriter, r *http.Request) {
	sess := s.get(r)
	delete(sess.Values, "employee_id")
	sess.Options.MaxAge = -1
	sess.Save(r, w)
}
