package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/synvya/merchant-connect/internal/api"
	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/notify"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrPublishRejected means the backend answered but did not publish.
	ErrPublishRejected = errors.New("publish rejected by backend")
	// ErrNotConnected means there is no valid session to act with.
	ErrNotConnected = errors.New("not connected")
)

// Notices shown to the user.
const (
	MsgSaved             = "Profile updated and published successfully!"
	MsgSavedNotPublished = "Profile updated but publishing failed. You can retry publishing later."
	MsgSaveFailed        = "Failed to update profile. Please try again."
	MsgRepublished       = "Profile successfully published to Nostr!"
	MsgRepublishFailed   = "Failed to publish profile to Nostr. Please try again."
	MsgUploadUnsupported = "Image uploads are not supported yet; the %s was not uploaded."
	MsgLoadFailed        = "Failed to load profile data"
	MsgLocationsOK       = "Locations published successfully!"
	MsgLocationsFailed   = "Failed to publish locations."
	MsgCatalogOK         = "Products published successfully!"
	MsgCatalogFailed     = "Failed to publish products."
	MsgServerUnreachable = "Failed to connect to the server"
)

// Backend is the part of the API client the store uses.
type Backend interface {
	MerchantProfile(ctx context.Context) (api.MerchantProfile, error)
	PublishProfile(ctx context.Context, mp api.MerchantProfile) (api.PublishResult, error)
	PublishLocations(ctx context.Context) (api.PublishResult, error)
	PublishCatalog(ctx context.Context) (api.PublishResult, error)
	SellerInfo(ctx context.Context) (map[string]any, error)
}

// SessionState is the part of the session store the profile store uses.
type SessionState interface {
	Authenticated() bool
	SetPublished(published bool) error
	Clear() error
	OnClear(fn func())
}

// Store is the in-memory profile, hydrated from and pushed to the backend.
type Store struct {
	backend      Backend
	sess         SessionState
	notifier     notify.Notifier
	log          *zap.Logger
	handleDomain string

	mu      sync.Mutex
	profile Profile

	loading   atomic.Bool
	saving    atomic.Bool
	locations atomic.Bool
	catalog   atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where user notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l.Named("profile") }
}

// WithHandleDomain sets the domain of the derived handle.
func WithHandleDomain(domain string) Option {
	return func(s *Store) { s.handleDomain = domain }
}

// NewStore returns a Store holding the default profile. It registers itself
// to be reset whenever the session is cleared.
func NewStore(backend Backend, sess SessionState, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		sess:     sess,
		notifier: notify.Discard{},
		log:      logging.Nop(),
		profile:  Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	sess.OnClear(s.resetLocal)
	return s
}

// Snapshot returns a copy of the current profile with the connection and
// loading flags filled in.
func (s *Store) Snapshot() Profile {
	s.mu.Lock()
	p := s.profile
	s.mu.Unlock()
	p.IsConnected = s.sess.Authenticated()
	p.IsLoading = s.loading.Load() || s.saving.Load()
	return p
}

// Update shallow-merges u into the profile. No I/O.
func (s *Store) Update(u Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = s.profile.Apply(u)
}

// Fetch reloads the profile from the backend and reports success. Errors
// are logged, never returned.
func (s *Store) Fetch(ctx context.Context) bool {
	return s.Refresh(ctx) == nil
}

// Refresh is Fetch with the underlying error, for callers that need to tell
// an expired token from an unreachable backend.
func (s *Store) Refresh(ctx context.Context) error {
	if !s.loading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.loading.Store(false)

	mp, err := s.backend.MerchantProfile(ctx)
	if err != nil {
		s.log.Error("fetching merchant profile", zap.Error(err))
		return fmt.Errorf("fetching profile: %w", err)
	}

	p, missing := FromMerchant(mp)
	if len(missing) > 0 {
		s.log.Warn("merchant profile missing fields, using defaults", zap.Strings("fields", missing))
	}

	s.mu.Lock()
	published := s.profile.ProfilePublished
	s.profile = p
	s.profile.ProfilePublished = published
	s.mu.Unlock()
	s.log.Debug("profile loaded", zap.String("name", p.Name), zap.String("public_key", p.PublicKey))
	return nil
}

// MarkPublished records the publish flag locally without I/O.
func (s *Store) MarkPublished(published bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.ProfilePublished = published
}

// Save pushes the profile and records whether the backend published it.
// It returns true when the backend accepted the request, even if publishing
// was rejected; local edits are kept either way.
func (s *Store) Save(ctx context.Context) bool {
	err := s.push(ctx, false)
	return err == nil || errors.Is(err, ErrPublishRejected)
}

// Republish pushes the profile again and returns whether it was published.
func (s *Store) Republish(ctx context.Context) bool {
	return s.push(ctx, true) == nil
}

func (s *Store) push(ctx context.Context, republish bool) error {
	if !s.saving.CompareAndSwap(false, true) {
		s.log.Debug("save already in progress")
		return ErrBusy
	}
	defer s.saving.Store(false)

	s.mu.Lock()
	p := s.profile
	s.mu.Unlock()

	if !republish {
		if p.PictureFile != "" {
			s.log.Warn("picture selected but upload is not implemented", zap.String("file", p.PictureFile))
			s.notifier.Warning(fmt.Sprintf(MsgUploadUnsupported, "profile picture"))
		}
		if p.BannerFile != "" {
			s.log.Warn("banner selected but upload is not implemented", zap.String("file", p.BannerFile))
			s.notifier.Warning(fmt.Sprintf(MsgUploadUnsupported, "banner"))
		}
	}

	payload := ToMerchant(p, s.handleDomain)
	res, err := s.backend.PublishProfile(ctx, payload)
	if err != nil {
		s.log.Error("publishing profile", zap.Bool("republish", republish), zap.Error(err))
		if republish {
			s.notifier.Error(MsgRepublishFailed)
		} else {
			s.notifier.Error(MsgSaveFailed)
		}
		return fmt.Errorf("publishing profile: %w", err)
	}

	if res.Success {
		s.setPublished(true)
		if republish {
			s.notifier.Success(MsgRepublished)
		} else {
			s.notifier.Success(MsgSaved)
		}
		return nil
	}

	s.log.Warn("backend did not publish profile", zap.String("message", res.Message))
	if republish {
		s.notifier.Error(MsgRepublishFailed)
	} else {
		s.setPublished(false)
		s.notifier.Error(MsgSavedNotPublished)
	}
	return ErrPublishRejected
}

func (s *Store) setPublished(published bool) {
	s.MarkPublished(published)
	if err := s.sess.SetPublished(published); err != nil {
		s.log.Warn("persisting publish flag", zap.Error(err))
	}
}

// PublishLocations publishes the merchant's locations. It returns the
// outcome and the message shown to the user.
func (s *Store) PublishLocations(ctx context.Context) (bool, string) {
	return s.publishResource(ctx, &s.locations, "locations", s.backend.PublishLocations, MsgLocationsOK, MsgLocationsFailed)
}

// PublishCatalog publishes the merchant's product catalog.
func (s *Store) PublishCatalog(ctx context.Context) (bool, string) {
	return s.publishResource(ctx, &s.catalog, "catalog", s.backend.PublishCatalog, MsgCatalogOK, MsgCatalogFailed)
}

func (s *Store) publishResource(
	ctx context.Context,
	busy *atomic.Bool,
	name string,
	call func(context.Context) (api.PublishResult, error),
	okMsg, failMsg string,
) (bool, string) {
	if !busy.CompareAndSwap(false, true) {
		return false, ErrBusy.Error()
	}
	defer busy.Store(false)

	res, err := call(ctx)
	if err != nil {
		s.log.Error("publishing "+name, zap.Error(err))
		msg := MsgServerUnreachable
		if !api.IsNoResponse(err) {
			msg = failMsg
		}
		s.notifier.Error(msg)
		return false, msg
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = failMsg
		}
		s.log.Warn(name+" publish rejected", zap.String("message", res.Message))
		s.notifier.Error(msg)
		return false, msg
	}
	s.notifier.Success(okMsg)
	return true, okMsg
}

// Publishing reports which resource publishes are in flight.
func (s *Store) Publishing() (locations, catalog bool) {
	return s.locations.Load(), s.catalog.Load()
}

// SellerInfo returns auxiliary merchant metadata.
func (s *Store) SellerInfo(ctx context.Context) (map[string]any, error) {
	if !s.sess.Authenticated() {
		return nil, ErrNotConnected
	}
	return s.backend.SellerInfo(ctx)
}

// Reset drops the local profile and clears the session.
func (s *Store) Reset() {
	if err := s.sess.Clear(); err != nil {
		s.log.Warn("clearing session", zap.Error(err))
	}
	s.resetLocal()
}

func (s *Store) resetLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = Default()
}
