package cache

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	gorillasessions "github.com/gorilla/sessions"
	"github.com/gorilla/securecookie"
)

const (
	sessionKeyPrefix = "session:"
	defaultMaxAge    = 86400
)

func init() {
	// flashes are stored as []any
	gob.Register([]any{})
}

// SessionStore keeps session values in redis; the cookie only carries the
// signed session id.
type SessionStore struct {
	cache   *Cache
	Codecs  []securecookie.Codec
	options *sessions.Options
}

var _ sessions.Store = (*SessionStore)(nil)

func NewSessionStore(cache *Cache, keyPairs ...[]byte) *SessionStore {
	return &SessionStore{
		cache:  cache,
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &sessions.Options{
			Path:   "/",
			MaxAge: defaultMaxAge,
		},
	}
}

func (s *SessionStore) Options(opts sessions.Options) {
	s.options = &opts
}

func (s *SessionStore) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New returns the session referenced by the request cookie, or a fresh one
// when the cookie is missing, tampered with or expired in redis.
func (s *SessionStore) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = s.options.ToGorillaOptions()
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, nil
	}
	if err := s.load(r.Context(), session); err == nil {
		session.IsNew = false
	}
	return session, nil
}

func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.delete(r.Context(), session); err != nil {
			return err
		}
		http.SetCookie(w, s.newCookie(session, ""))
		return nil
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(
			base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}
	if err := s.save(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.newCookie(session, encoded))
	return nil
}

func (s *SessionStore) newCookie(session *gorillasessions.Session, value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     session.Name(),
		Value:    value,
		Path:     session.Options.Path,
		Domain:   session.Options.Domain,
		MaxAge:   session.Options.MaxAge,
		Secure:   session.Options.Secure,
		HttpOnly: session.Options.HttpOnly,
		SameSite: session.Options.SameSite,
	}
	if session.Options.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	}
	return cookie
}

func (s *SessionStore) save(ctx context.Context, session *gorillasessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}

	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.options.MaxAge
	}
	return s.cache.Set(ctx, sessionKeyPrefix+session.ID, buf.Bytes(), time.Duration(maxAge)*time.Second)
}

func (s *SessionStore) load(ctx context.Context, session *gorillasessions.Session) error {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+session.ID)
	if err != nil {
		return err
	}
	if data == "" {
		return errors.New("empty session record")
	}
	if err := gob.NewDecoder(strings.NewReader(data)).Decode(&session.Values); err != nil {
		return fmt.Errorf("failed to decode session data: %w", err)
	}
	return nil
}

func (s *SessionStore) delete(ctx context.Context, session *gorillasessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.cache.Delete(ctx, sessionKeyPrefix+session.ID)
}
