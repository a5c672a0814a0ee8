// Package session keeps the locally held proof of a completed authorization.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/storage"
	"go.uber.org/zap"
)

// Persisted keys.
const (
	KeyAccessToken      = "access_token"
	KeyMerchantID       = "merchant_id"
	KeyProfilePublished = "profile_published"
	KeyIssuedAt         = "auth_issued_at"
	KeyBackendURL       = "api_base_url"
)

// DefaultMaxAge is how long a committed session stays valid.
const DefaultMaxAge = 24 * time.Hour

// maxClockSkew is how far in the future an issue time may lie before the
// session is treated as invalid.
const maxClockSkew = time.Minute

var sessionKeys = []string{KeyAccessToken, KeyMerchantID, KeyProfilePublished, KeyIssuedAt}

var (
	// ErrNoSession means nothing usable was persisted.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired means a persisted session exceeded the max age and was cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrIncomplete is returned by Commit when the token or merchant id is empty.
	ErrIncomplete = errors.New("access token and merchant id are both required")
)

// Session is a committed authorization.
type Session struct {
	AccessToken      string
	MerchantID       string
	ProfilePublished bool
	IssuedAt         time.Time
}

// Store persists at most one Session in a storage.Storage.
type Store struct {
	kv      storage.Storage
	maxAge  time.Duration
	now     func() time.Time
	onClear func()
	log     *zap.Logger

	mu      sync.Mutex
	current *Session
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l.Named("session") }
}

// New returns a Store over kv. Nothing is read until Restore.
func New(kv storage.Storage, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnClear registers fn to run after every Clear. The profile store uses it
// to drop back to defaults.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = fn
}

// MaxAge returns the configured expiry window.
func (s *Store) MaxAge() time.Duration { return s.maxAge }

// Restore loads the persisted session. A partial or expired session is
// cleared; callers only ever see a complete, fresh Session or an error.
func (s *Store) Restore() (Session, error) {
	token, hasToken := s.kv.Get(KeyAccessToken)
	merchant, hasMerchant := s.kv.Get(KeyMerchantID)
	hasToken = hasToken && token != ""
	hasMerchant = hasMerchant && merchant != ""

	if !hasToken && !hasMerchant {
		s.setCurrent(nil)
		return Session{}, ErrNoSession
	}
	if hasToken != hasMerchant {
		s.log.Warn("partial session found, clearing",
			zap.Bool("has_token", hasToken), zap.Bool("has_merchant", hasMerchant))
		if err := s.Clear(); err != nil {
			return Session{}, err
		}
		return Session{}, ErrNoSession
	}

	issuedAt, ok := s.issuedAt()
	if !ok || !s.fresh(issuedAt) {
		s.log.Info("session expired, clearing",
			zap.Time("issued_at", issuedAt), zap.Duration("max_age", s.maxAge))
		if err := s.Clear(); err != nil {
			return Session{}, err
		}
		return Session{}, ErrSessionExpired
	}

	published, _ := s.kv.Get(KeyProfilePublished)
	sess := Session{
		AccessToken:      token,
		MerchantID:       merchant,
		ProfilePublished: published == "true",
		IssuedAt:         issuedAt,
	}
	s.setCurrent(&sess)
	s.log.Debug("session restored",
		logging.Token("token", token), zap.String("merchant_id", merchant))
	return sess, nil
}

// Commit replaces any existing session with a new one.
func (s *Store) Commit(token, merchantID string, published bool) (Session, error) {
	if token == "" || merchantID == "" {
		return Session{}, ErrIncomplete
	}
	if err := s.kv.Remove(sessionKeys...); err != nil {
		return Session{}, fmt.Errorf("clearing previous session: %w", err)
	}
	s.setCurrent(nil)

	sess := Session{
		AccessToken:      token,
		MerchantID:       merchantID,
		ProfilePublished: published,
		IssuedAt:         s.now().UTC(),
	}
	writes := []struct{ k, v string }{
		{KeyIssuedAt, sess.IssuedAt.Format(time.RFC3339Nano)},
		{KeyProfilePublished, strconv.FormatBool(published)},
		{KeyMerchantID, merchantID},
		{KeyAccessToken, token},
	}
	for _, w := range writes {
		if err := s.kv.Set(w.k, w.v); err != nil {
			_ = s.kv.Remove(sessionKeys...)
			return Session{}, fmt.Errorf("writing session: %w", err)
		}
	}
	s.setCurrent(&sess)
	s.log.Info("session committed",
		logging.Token("token", token), zap.String("merchant_id", merchantID), zap.Bool("published", published))
	return sess, nil
}

// Clear removes every session key and runs the clear hook. The backend URL
// override is kept.
func (s *Store) Clear() error {
	err := s.kv.Remove(sessionKeys...)
	s.setCurrent(nil)

	s.mu.Lock()
	hook := s.onClear
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.log.Debug("session cleared")
	return nil
}

// SetPublished persists the profile-published flag alongside the session.
func (s *Store) SetPublished(published bool) error {
	if err := s.kv.Set(KeyProfilePublished, strconv.FormatBool(published)); err != nil {
		return fmt.Errorf("writing publish flag: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.ProfilePublished = published
	}
	return nil
}

// Current returns the active session, if any. A session that expired since
// it was loaded is not returned.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	if !s.fresh(s.current.IssuedAt) {
		return Session{}, false
	}
	return *s.current, true
}

// fresh reports whether a session issued at t is within the max age. An
// issue time beyond the allowed clock skew is never fresh.
func (s *Store) fresh(t time.Time) bool {
	now := s.now()
	if t.After(now.Add(maxClockSkew)) {
		return false
	}
	return now.Sub(t) <= s.maxAge
}

// Authenticated reports whether a valid session is active.
func (s *Store) Authenticated() bool {
	_, ok := s.Current()
	return ok
}

// AccessToken returns the active bearer token or "".
func (s *Store) AccessToken() string {
	sess, ok := s.Current()
	if !ok {
		return ""
	}
	return sess.AccessToken
}

// BackendOverride returns the persisted backend base URL, if any.
func (s *Store) BackendOverride() string {
	v, _ := s.kv.Get(KeyBackendURL)
	return v
}

// SetBackendOverride persists url as the backend base URL. An empty url
// removes the override.
func (s *Store) SetBackendOverride(url string) error {
	if url == "" {
		return s.kv.Remove(KeyBackendURL)
	}
	return s.kv.Set(KeyBackendURL, url)
}

func (s *Store) issuedAt() (time.Time, bool) {
	raw, ok := s.kv.Get(KeyIssuedAt)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	// Millisecond epoch, as written by older clients.
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

func (s *Store) setCurrent(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}
