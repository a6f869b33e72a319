package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
)

// ErrSessionNotFound is returned by LoadByID when the session expired or was
// destroyed.
var ErrSessionNotFound = errors.New("session not found")

// Profile is the signed-in user as reported by the REST backend.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data. It is safe for concurrent use so
// fan-out handlers can refresh tokens from several goroutines.
type Session struct {
	ID string

	mu          sync.Mutex
	values      map[string]string
	profile     Profile
	credentials apiclient.Credentials
	isNew       bool
	dirty       bool
	destroyed   bool
}

type sessionPayload struct {
	Values      map[string]string     `json:"values"`
	Profile     Profile               `json:"profile"`
	Credentials apiclient.Credentials `json:"credentials"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	sess, err := sm.LoadByID(ctx, cookie.Value)
	if errors.Is(err, ErrSessionNotFound) {
		sess = sm.newSession()
		return sess, nil
	}
	return sess, err
}

// LoadByID reads a stored session without a request, as background jobs do.
func (sm *SessionManager) LoadByID(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = id
	if stored.Values != nil {
		sess.values = stored.Values
	}
	sess.profile = stored.Profile
	sess.credentials = stored.Credentials
	sess.isNew = false
	sess.dirty = false
	return sess, nil
}

// Save persists dirty session data without touching cookies. The remaining
// TTL of the stored session is kept.
func (sm *SessionManager) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.destroyed || !sess.dirty {
		return nil
	}
	data, err := json.Marshal(sess.payloadLocked())
	if err != nil {
		return err
	}
	ttl := sm.ttl
	if remaining, err := sm.client.TTL(ctx, sm.redisKey(sess.ID)).Result(); err == nil && remaining > 0 {
		ttl = remaining
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, ttl).Err(); err != nil {
		return err
	}
	sess.dirty = false
	return nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		data, err := json.Marshal(sess.payloadLocked())
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.isNew = false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.mu.Lock()
	sess.destroyed = true
	sess.mu.Unlock()
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok && old == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SignIn binds the session to a user and their credentials.
func (s *Session) SignIn(profile Profile, creds apiclient.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.credentials = creds
	s.dirty = true
}

// User returns the current user ID.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.ID
}

// Profile returns the signed-in user.
func (s *Session) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Authenticated reports whether the session holds a user and an access token.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.ID != "" && !s.credentials.Empty()
}

// Credentials implements apiclient.TokenStore.
func (s *Session) Credentials() apiclient.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials
}

// SaveCredentials implements apiclient.TokenStore. The session is persisted
// when the request commits or when the owner calls SessionManager.Save.
func (s *Session) SaveCredentials(_ context.Context, creds apiclient.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = creds
	s.dirty = true
	return nil
}

// ClearCredentials implements apiclient.TokenStore. The user is signed out
// together with the tokens.
func (s *Session) ClearCredentials(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = apiclient.Credentials{}
	s.profile = Profile{}
	s.dirty = true
	return nil
}

func (s *Session) payloadLocked() sessionPayload {
	return sessionPayload{Values: s.values, Profile: s.profile, Credentials: s.credentials}
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:     sm.generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
