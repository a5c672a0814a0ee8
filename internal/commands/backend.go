package commands

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidBackendURL is returned for URLs that are not absolute http(s).
var ErrInvalidBackendURL = errors.New("backend URL must be an absolute http or https URL")

// NormalizeBackendURL validates raw and strips a trailing slash.
func NormalizeBackendURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBackendURL, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// SetBackend persists a backend URL override. It takes effect on the next
// invocation.
func (a *App) SetBackend(raw string) (string, error) {
	u, err := NormalizeBackendURL(raw)
	if err != nil {
		return "", err
	}
	if err := a.Session.SetBackendOverride(u); err != nil {
		return "", fmt.Errorf("saving backend override: %w", err)
	}
	return u, nil
}

// UnsetBackend removes the persisted backend URL override.
func (a *App) UnsetBackend() error {
	if err := a.Session.SetBackendOverride(""); err != nil {
		return fmt.Errorf("removing backend override: %w", err)
	}
	return nil
}

// Reset forgets the session and the local profile. The backend override
// is kept.
func (a *App) Reset() {
	a.Profiles.Reset()
}
