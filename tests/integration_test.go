//go:build integration

package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/config"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/probe"
	"github.com/synvya/merchant-connect/internal/session"
)

const testToken = "sq0atp-integration"

// squareBackend is a fake of the Synvya retail backend. It only accepts
// requests bearing testToken.
type squareBackend struct {
	mu        sync.Mutex
	profile   map[string]any
	published []map[string]any
}

func newSquareBackend() *squareBackend {
	return &squareBackend{profile: map[string]any{
		"name":         "Corner Bakery",
		"about":        "Fresh bread daily",
		"hashtags":     []string{"bakery", "coffee"},
		"profile_type": "restaurant",
		"nip05":        "corner-bakery@synvya.com",
		"public_key":   "npub1integration",
	}}
}

func (b *squareBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/square", func(r chi.Router) {
		r.Use(b.requireToken)
		r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, b.profile)
		})
		r.Post("/profile/publish", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			b.mu.Lock()
			b.published = append(b.published, body)
			for k, v := range body {
				b.profile[k] = v
			}
			b.mu.Unlock()
			writeJSON(w, map[string]any{"success": true})
		})
		r.Post("/locations/publish", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"success": true})
		})
		r.Post("/catalog/publish", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"success": true})
		})
		r.Get("/seller/info", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"business_name": "Corner Bakery", "country": "US"})
		})
	})
	return r
}

func (b *squareBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *squareBackend) Published() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.published...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// squareBrowser plays the browser: it follows the authorization URL back to
// the loopback redirect with the parameters Square would append.
type squareBrowser struct {
	params url.Values
}

func (b squareBrowser) Open(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	redirect, err := url.Parse(u.Query().Get("redirect_uri"))
	if err != nil {
		return err
	}
	q := redirect.Query()
	for k, v := range b.params {
		q[k] = v
	}
	redirect.RawQuery = q.Encode()
	go func() {
		resp, err := http.Get(redirect.String())
		if err == nil {
			resp.Body.Close()
		}
	}()
	return nil
}

type env struct {
	t         *testing.T
	backend   *squareBackend
	serverURL string
	statePath string
	cfg       config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := newSquareBackend()
	srv := httptest.NewServer(b.router())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.CallbackPort = 0
	cfg.ProbeTimeout = time.Second
	cfg.RequestTimeout = 2 * time.Second
	return &env{
		t:         t,
		backend:   b,
		serverURL: srv.URL,
		statePath: filepath.Join(t.TempDir(), "state.yaml"),
		cfg:       cfg,
	}
}

// start simulates one invocation of the CLI against the same state file.
func (e *env) start(opener oauth.Opener) (*commands.App, *notify.Recorder) {
	e.t.Helper()
	rec := &notify.Recorder{}
	app, err := commands.NewApp(commands.Options{
		Config:      e.cfg,
		StatePath:   e.statePath,
		BackendFlag: e.serverURL,
		Notifier:    rec,
		Opener:      opener,
	})
	require.NoError(e.t, err)
	return app, rec
}

func TestMerchantLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Connect through the loopback callback.
	app, rec := e.start(squareBrowser{params: url.Values{
		oauth.ParamAccessToken:      {testToken},
		oauth.ParamMerchantID:       {"MLR9XJBFVQ"},
		oauth.ParamProfilePublished: {"true"},
	}})
	res, err := app.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, oauth.OutcomeAuthorized, res.Outcome)
	assert.Empty(t, res.Alert)
	assert.Contains(t, rec.Messages(notify.LevelSuccess), oauth.MsgConnectedPublished)
	assert.Equal(t, "Corner Bakery", app.Profiles.Snapshot().Name)

	// 2. A later invocation restores the session from disk.
	app, _ = e.start(nil)
	status := app.Status(ctx)
	assert.Equal(t, probe.Online, status.Backend)
	require.True(t, status.Connected)
	assert.Equal(t, "MLR9XJBFVQ", status.MerchantID)
	assert.True(t, status.Published)
	assert.Equal(t, "bakery, coffee", status.Profile.Categories)
	assert.Equal(t, "restaurant", status.Profile.BusinessType)
	assert.Equal(t, "npub1integration", status.Profile.PublicKey)

	// 3. Publish everything.
	all, err := app.PublishAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all.Failed())

	info, err := app.Profiles.SellerInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "US", info["country"])

	// 4. Reset forgets the session for every later invocation.
	app.Reset()
	app, _ = e.start(nil)
	status = app.Status(ctx)
	assert.False(t, status.Connected)
	assert.Equal(t, "retail", status.Profile.BusinessType)
}

func TestMerchantLifecycle_PastedCallbackURL(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app, rec := e.start(nil)
	res, err := app.CompleteFromURL(ctx,
		"http://127.0.0.1:8765/auth/callback?access_token="+testToken+"&merchant_id=M2&profile_published=false")
	require.NoError(t, err)
	assert.Equal(t, oauth.OutcomeAuthorized, res.Outcome)
	assert.Equal(t, "http://127.0.0.1:8765/auth/callback", res.CleanURL)
	assert.Contains(t, rec.Messages(notify.LevelWarning), oauth.MsgConnectedNotPublished)

	app, _ = e.start(nil)
	require.True(t, app.Restore(ctx).Connected)
	assert.True(t, app.Profiles.Save(ctx))
	require.Len(t, e.backend.Published(), 1)

	s, ok := app.Session.Current()
	require.True(t, ok)
	assert.True(t, s.ProfilePublished, "a successful save marks the session published")
}

func TestMerchantLifecycle_RejectedTokenIsCleared(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app, _ := e.start(nil)
	_, err := app.Session.Commit("revoked-token", "M3", true)
	require.NoError(t, err)

	app, rec := e.start(nil)
	r := app.Restore(ctx)
	assert.True(t, r.Rejected)
	assert.False(t, r.Connected)
	assert.Contains(t, rec.Messages(notify.LevelWarning), commands.MsgSessionRejected)

	data, err := os.ReadFile(e.statePath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "revoked-token")
	assert.NotContains(t, string(data), session.KeyAccessToken)
}

func TestMerchantLifecycle_ExpiredSession(t *testing.T) {
	e := newEnv(t)
	e.cfg.SessionMaxAge = 50 * time.Millisecond
	ctx := context.Background()

	app, _ := e.start(nil)
	_, err := app.Session.Commit(testToken, "M4", true)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	app, rec := e.start(nil)
	r := app.Restore(ctx)
	assert.True(t, r.Expired)
	assert.False(t, app.Session.Authenticated())
	assert.Contains(t, rec.Messages(notify.LevelWarning), commands.MsgSessionExpired)
}
