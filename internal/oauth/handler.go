// Package oauth drives the "connect with Square" flow: it opens the
// authorization page, waits for the callback and turns the callback into a
// committed session.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/probe"
	"github.com/synvya/merchant-connect/internal/session"
	"go.uber.org/zap"
)

// Notices and inline alerts.
const (
	MsgBackendOffline        = "Cannot connect to backend server. Please try again later."
	MsgInitiateFailedToast   = "Failed to connect with Square. Please try again later."
	MsgInitiateFailed        = "Failed to initiate Square connection. Please try again later."
	MsgDeniedPrefix          = "Square authorization failed: "
	MsgIncompleteToast       = "Authorization incomplete. Please try again."
	MsgIncomplete            = "Square authorization was not completed properly. Please try again."
	MsgConnectedPublished    = "Successfully connected with Square and published your profile!"
	MsgConnectedNotPublished = "Connected with Square, but profile publishing failed. You can retry in settings."
	MsgRefreshFailedToast    = "Square authorization failed"
	MsgRefreshFailed         = "Failed to connect with Square after authorization. Please try again."
	MsgCommitFailed          = "Could not save the Square session. Please try again."
)

var (
	// ErrBackendOffline means connect was refused because the backend is down.
	ErrBackendOffline = errors.New("backend is offline")
	// ErrAuthorizationIncomplete means a code arrived without an access token.
	ErrAuthorizationIncomplete = errors.New("authorization incomplete")
	// ErrRefreshFailed means the session was committed but the first profile
	// fetch failed. The session is kept.
	ErrRefreshFailed = errors.New("profile refresh after authorization failed")
	// ErrSuperseded means a newer connect attempt replaced this one.
	ErrSuperseded = errors.New("connect attempt superseded")
)

// DeniedError carries the raw reason returned by the identity provider.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "authorization denied: " + e.Reason
}

// State is the position in the connect flow.
type State int

const (
	Idle State = iota
	Initiating
	AwaitingCallback
	Finalizing
)

func (s State) String() string {
	switch s {
	case Initiating:
		return "initiating"
	case AwaitingCallback:
		return "awaiting-callback"
	case Finalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// SessionCommitter persists a completed authorization.
type SessionCommitter interface {
	Commit(token, merchantID string, published bool) (session.Session, error)
}

// Refresher loads the profile once a session exists.
type Refresher interface {
	MarkPublished(published bool)
	Refresh(ctx context.Context) error
}

// Navigator shows the profile view.
type Navigator interface {
	ShowProfile(ctx context.Context)
}

// Opener sends the user to the authorization page.
type Opener interface {
	Open(url string) error
}

// StatusSource reports backend connectivity.
type StatusSource interface {
	Status() probe.Status
}

// Transport delivers the callback of one authorization attempt.
type Transport interface {
	// Prepare arms a fresh attempt and returns its redirect URI. Callbacks
	// belonging to earlier attempts are ignored afterwards.
	Prepare() string
	CompleteAuthorization(ctx context.Context) (Params, error)
}

// URLBuilder builds the backend authorization URL.
type URLBuilder interface {
	AuthorizeURL(redirectURI string) string
}

// Deps are the collaborators of a Handler. Notifier and Log may be nil.
type Deps struct {
	Sessions  SessionCommitter
	Profiles  Refresher
	Navigator Navigator
	Notifier  notify.Notifier
	Opener    Opener
	Status    StatusSource
	Transport Transport
	URLs      URLBuilder
	Log       *zap.Logger
}

// Result describes what a callback led to.
type Result struct {
	Outcome   Outcome
	Session   session.Session
	Published bool
	Navigated bool
	CleanURL  string
}

// Handler runs the connect flow. At most one attempt is in flight; a new
// Connect cancels the previous one.
type Handler struct {
	d   Deps
	log *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr string
	attempt uint64
	cancel  context.CancelFunc
}

// NewHandler returns an idle Handler.
func NewHandler(d Deps) *Handler {
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{d: d, log: log.Named("oauth")}
}

// State returns the current flow state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// LastError returns the inline alert text of the last failed attempt, or "".
func (h *Handler) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Connect starts an authorization attempt and blocks until its callback has
// been handled, ctx is done, or a newer attempt supersedes it.
func (h *Handler) Connect(ctx context.Context) (Result, error) {
	h.mu.Lock()
	h.lastErr = ""
	if h.d.Status != nil && h.d.Status.Status() == probe.Offline {
		h.mu.Unlock()
		h.log.Warn("refusing to connect while backend is offline")
		h.d.Notifier.Error(MsgBackendOffline)
		return Result{}, ErrBackendOffline
	}
	if h.cancel != nil {
		h.log.Debug("restarting connect attempt", zap.Uint64("previous", h.attempt))
		h.cancel()
	}
	h.attempt++
	id := h.attempt
	attemptCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.state = Initiating
	h.mu.Unlock()

	defer func() {
		cancel()
		h.mu.Lock()
		if h.attempt == id {
			h.cancel = nil
		}
		h.mu.Unlock()
	}()

	redirectURI := h.d.Transport.Prepare()
	authURL := h.d.URLs.AuthorizeURL(redirectURI)
	h.log.Debug("opening authorization page", zap.Uint64("attempt", id), zap.String("redirect_uri", redirectURI))
	if err := h.d.Opener.Open(authURL); err != nil {
		h.log.Error("opening authorization page", zap.Error(err))
		if h.finish(id, MsgInitiateFailed) {
			h.d.Notifier.Error(MsgInitiateFailedToast)
		}
		return Result{}, fmt.Errorf("opening authorization page: %w", err)
	}
	if !h.transition(id, AwaitingCallback) {
		return Result{}, ErrSuperseded
	}

	params, err := h.d.Transport.CompleteAuthorization(attemptCtx)
	if !h.current(id) {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		h.finish(id, "")
		return Result{}, fmt.Errorf("waiting for authorization callback: %w", err)
	}
	return h.HandleParams(ctx, params)
}

// HandleURL handles a callback URL. On success Result.CleanURL is raw without
// the callback parameters; otherwise it is raw unchanged.
func (h *Handler) HandleURL(ctx context.Context, raw string) (Result, error) {
	params, err := ParseURL(raw)
	if err != nil {
		return Result{CleanURL: raw}, err
	}
	res, err := h.HandleParams(ctx, params)
	res.CleanURL = raw
	if res.Outcome == OutcomeAuthorized {
		res.CleanURL = CleanURL(raw)
	}
	return res, err
}

// HandleParams applies the callback decision table to p. Nothing is
// committed unless both an access token and a merchant id are present.
func (h *Handler) HandleParams(ctx context.Context, p Params) (Result, error) {
	outcome := Classify(p)
	res := Result{Outcome: outcome}

	switch outcome {
	case OutcomeNone:
		h.log.Debug("no callback parameters")
		h.setState(Idle, "")
		return res, nil

	case OutcomeDenied:
		msg := MsgDeniedPrefix + p.Error
		h.log.Warn("authorization denied", zap.String("reason", p.Error))
		h.setState(Idle, msg)
		h.d.Notifier.Error(msg)
		return res, &DeniedError{Reason: p.Error}

	case OutcomeIncomplete:
		h.log.Warn("authorization code received without access token")
		h.setState(Idle, MsgIncomplete)
		h.d.Notifier.Error(MsgIncompleteToast)
		return res, ErrAuthorizationIncomplete
	}

	res.Published = p.Published()
	h.log.Info("authorization callback received",
		logging.Token("access_token", p.AccessToken),
		zap.String("merchant_id", p.MerchantID),
		zap.Bool("profile_published", res.Published),
	)
	sess, err := h.d.Sessions.Commit(p.AccessToken, p.MerchantID, res.Published)
	if err != nil {
		h.log.Error("committing session", zap.Error(err))
		h.setState(Idle, MsgCommitFailed)
		h.d.Notifier.Error(MsgCommitFailed)
		return res, fmt.Errorf("committing session: %w", err)
	}
	res.Session = sess

	if res.Published {
		h.d.Notifier.Success(MsgConnectedPublished)
	} else {
		h.d.Notifier.Warning(MsgConnectedNotPublished)
	}

	h.setState(Finalizing, "")
	h.d.Profiles.MarkPublished(res.Published)
	if err := h.d.Profiles.Refresh(ctx); err != nil {
		h.log.Error("refreshing profile after authorization", zap.Error(err))
		h.setState(Idle, MsgRefreshFailed)
		h.d.Notifier.Error(MsgRefreshFailedToast)
		return res, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if h.d.Navigator != nil {
		h.d.Navigator.ShowProfile(ctx)
		res.Navigated = true
	}
	h.setState(Idle, "")
	return res, nil
}

func (h *Handler) setState(s State, lastErr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	if lastErr != "" {
		h.lastErr = lastErr
	}
}

func (h *Handler) current(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempt == id
}

// transition moves attempt id to s unless a newer attempt took over.
func (h *Handler) transition(id uint64, s State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attempt != id {
		return false
	}
	h.state = s
	return true
}

// finish returns attempt id to Idle and reports whether it was still current.
func (h *Handler) finish(id uint64, lastErr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attempt != id {
		return false
	}
	h.state = Idle
	if lastErr != "" {
		h.lastErr = lastErr
	}
	return true
}
