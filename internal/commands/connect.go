package commands

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/probe"
	"go.uber.org/zap"
)

const shutdownTimeout = 2 * time.Second

// OAuthHandler builds the connect flow handler around transport.
func (a *App) OAuthHandler(transport oauth.Transport) *oauth.Handler {
	return oauth.NewHandler(oauth.Deps{
		Sessions:  a.Session,
		Profiles:  a.Profiles,
		Navigator: a.navigator,
		Notifier:  a.Notifier,
		Opener:    a.opener,
		Status:    a.Prober,
		Transport: transport,
		URLs:      a.Client,
		Log:       a.Log,
	})
}

// ConnectResult is an authorization outcome plus the inline alert to show
// when it failed.
type ConnectResult struct {
	oauth.Result
	Alert string
}

// Connect runs the full authorization flow: probe the backend, start the
// loopback callback server, open the authorization page and wait for the
// redirect.
func (a *App) Connect(ctx context.Context) (*ConnectResult, error) {
	if a.Prober.Status() == probe.Checking {
		a.Prober.Initial(ctx)
	}

	srv := oauth.NewCallbackServer(a.Config.TrustedOrigins, a.Log)
	h := a.OAuthHandler(srv)

	// An offline backend is refused before the port is bound.
	if a.Prober.Status() == probe.Offline {
		res, err := h.Connect(ctx)
		return &ConnectResult{Result: res, Alert: h.LastError()}, err
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(a.Config.CallbackPort))
	if err := srv.Listen(addr); err != nil {
		return &ConnectResult{}, fmt.Errorf("starting callback server: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.Log.Warn("stopping callback server", zap.Error(err))
		}
	}()

	res, err := h.Connect(ctx)
	return &ConnectResult{Result: res, Alert: h.LastError()}, err
}

// CompleteFromURL handles a callback URL pasted by the user, for backends
// that cannot redirect to the loopback address.
func (a *App) CompleteFromURL(ctx context.Context, raw string) (*ConnectResult, error) {
	h := a.OAuthHandler(nil)
	res, err := h.HandleURL(ctx, raw)
	return &ConnectResult{Result: res, Alert: h.LastError()}, err
}
