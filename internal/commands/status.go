package commands

import (
	"context"
	"time"

	"github.com/synvya/merchant-connect/internal/probe"
	"github.com/synvya/merchant-connect/internal/profile"
)

// StatusResult is everything `merchant-connect status` prints.
type StatusResult struct {
	BackendURL string
	Backend    probe.Status
	Connected  bool
	MerchantID string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Published  bool
	Profile    profile.Profile
	Restore    RestoreResult
}

// Status probes the backend silently, restores the session and reports both.
func (a *App) Status(ctx context.Context) *StatusResult {
	res := &StatusResult{
		BackendURL: a.BackendURL,
		Backend:    a.Prober.Initial(ctx),
	}
	res.Restore = a.Restore(ctx)

	if s, ok := a.Session.Current(); ok {
		res.Connected = true
		res.MerchantID = s.MerchantID
		res.IssuedAt = s.IssuedAt
		res.ExpiresAt = s.IssuedAt.Add(a.Session.MaxAge())
		res.Published = s.ProfilePublished
	}
	res.Profile = a.Profiles.Snapshot()
	return res
}

// MenuState holds the detected state used to build the interactive menu.
type MenuState struct {
	BackendURL   string
	Backend      probe.Status
	Connected    bool
	MerchantID   string
	Published    bool
	BusinessName string
}

// MenuState summarizes r for the menu header.
func (r *StatusResult) MenuState() MenuState {
	return MenuState{
		BackendURL:   r.BackendURL,
		Backend:      r.Backend,
		Connected:    r.Connected,
		MerchantID:   r.MerchantID,
		Published:    r.Published,
		BusinessName: r.Profile.Name,
	}
}
