package commands

import (
	"context"
	"errors"

	"github.com/synvya/merchant-connect/internal/api"
	"github.com/synvya/merchant-connect/internal/session"
	"go.uber.org/zap"
)

// Notices shown while restoring a session.
const (
	MsgSessionExpired  = "Your Square session expired. Run 'merchant-connect connect' to reconnect."
	MsgSessionRejected = "The backend no longer accepts your Square session. Run 'merchant-connect connect' to reconnect."
)

// RestoreResult describes the session found at startup.
type RestoreResult struct {
	Session   session.Session
	Connected bool
	Expired   bool
	Rejected  bool
	Loaded    bool
	// LoadErr is set when the session was kept but the profile could not
	// be fetched.
	LoadErr error
}

// Restore loads the persisted session and, when one exists, fetches the
// profile. A 401 from the backend clears the session; any other fetch
// failure keeps the tokens so the user can retry.
func (a *App) Restore(ctx context.Context) RestoreResult {
	var res RestoreResult
	s, err := a.Session.Restore()
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		a.Notifier.Warning(MsgSessionExpired)
		res.Expired = true
		return res
	case err != nil:
		return res
	}
	res.Session = s
	res.Connected = true
	a.Profiles.MarkPublished(s.ProfilePublished)

	if err := a.Profiles.Refresh(ctx); err != nil {
		if api.IsUnauthorized(err) {
			a.Log.Info("backend rejected restored session, clearing it")
			if err := a.Session.Clear(); err != nil {
				a.Log.Warn("clearing rejected session", zap.Error(err))
			}
			a.Notifier.Warning(MsgSessionRejected)
			res.Connected = false
			res.Rejected = true
			return res
		}
		a.Log.Warn("profile not loaded after restore", zap.Error(err))
		res.LoadErr = err
		return res
	}
	res.Loaded = true
	return res
}
