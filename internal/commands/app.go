package commands

import (
	"fmt"
	"net/http"

	"github.com/synvya/merchant-connect/internal/api"
	"github.com/synvya/merchant-connect/internal/browser"
	"github.com/synvya/merchant-connect/internal/config"
	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/probe"
	"github.com/synvya/merchant-connect/internal/profile"
	"github.com/synvya/merchant-connect/internal/session"
	"github.com/synvya/merchant-connect/internal/storage"
	"go.uber.org/zap"
)

// Options are the inputs NewApp wires together.
type Options struct {
	Config      config.Config
	StatePath   string
	BackendFlag string

	Log        *zap.Logger
	Notifier   notify.Notifier
	Opener     oauth.Opener
	Navigator  oauth.Navigator
	HTTPClient *http.Client
}

// App holds every component of one CLI invocation.
type App struct {
	Config     config.Config
	BackendURL string
	Log        *zap.Logger
	Notifier   notify.Notifier

	State    *storage.FileStorage
	Session  *session.Store
	Client   *api.Client
	Prober   *probe.Prober
	Profiles *profile.Store

	opener    oauth.Opener
	navigator oauth.Navigator
}

// NewApp opens the state file and builds the component graph. Nothing
// touches the network until a method is called.
func NewApp(opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	opener := opts.Opener
	if opener == nil {
		opener = browser.System{}
	}

	kv, err := storage.Open(opts.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	sess := session.New(kv,
		session.WithMaxAge(opts.Config.SessionMaxAge),
		session.WithLogger(log),
	)

	backendURL := opts.Config.ResolveBackendURL(opts.BackendFlag, sess.BackendOverride())
	client := api.New(api.Config{
		BaseURL:    backendURL,
		Timeout:    opts.Config.RequestTimeout,
		HTTPClient: opts.HTTPClient,
	}, sess, log)

	prober := probe.New(
		probe.DefaultStrategies(client, opts.Config.ProbePaths...),
		probe.WithAttemptTimeout(opts.Config.ProbeTimeout),
		probe.WithNotifier(n),
		probe.WithLogger(log),
	)

	profiles := profile.NewStore(client, sess,
		profile.WithNotifier(n),
		profile.WithLogger(log),
		profile.WithHandleDomain(opts.Config.HandleDomain),
	)

	log.Debug("app ready",
		zap.String("backend", backendURL),
		zap.String("state", kv.Path()),
	)
	return &App{
		Config:     opts.Config,
		BackendURL: backendURL,
		Log:        log,
		Notifier:   n,
		State:      kv,
		Session:    sess,
		Client:     client,
		Prober:     prober,
		Profiles:   profiles,
		opener:     opener,
		navigator:  opts.Navigator,
	}, nil
}

// Poller returns a poller that re-probes on the configured interval.
func (a *App) Poller() *probe.Poller {
	return probe.NewPoller(a.Prober, a.Config.ProbeInterval)
}
