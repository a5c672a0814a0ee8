package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/synvya/merchant-connect/internal/logging"
	"go.uber.org/zap"
)

// Routes served on the loopback address.
const (
	CallbackPath = "/auth/callback"
	DonePath     = "/auth/done"

	// MessagePath accepts popup messages posted by a trusted origin. The
	// message must echo the state from the redirect URL; one without it is
	// logged and dropped.
	MessagePath = "/auth/message"
)

const maxMessageBytes = 64 << 10

// ErrNoAttempt is returned by CompleteAuthorization before Prepare.
var ErrNoAttempt = errors.New("no authorization attempt in progress")

// CallbackServer receives the browser redirect (or popup message) that ends
// an authorization attempt. Each attempt carries a random state value and
// callbacks with any other state are ignored.
type CallbackServer struct {
	trusted []string
	log     *zap.Logger
	router  chi.Router

	mu      sync.Mutex
	srv     *http.Server
	baseURL string
	state   string
	results chan Params
}

// NewCallbackServer returns a server that accepts popup messages from the
// trusted origins.
func NewCallbackServer(trusted []string, log *zap.Logger) *CallbackServer {
	if log == nil {
		log = logging.Nop()
	}
	s := &CallbackServer{
		trusted: trusted,
		log:     log.Named("callback"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get(CallbackPath, s.callback)
	r.Get(DonePath, s.done)
	r.Options(MessagePath, s.preflight)
	r.Post(MessagePath, s.message)
	s.router = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *CallbackServer) Handler() http.Handler { return s.router }

// Listen binds addr and serves in the background.
func (s *CallbackServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	s.mu.Lock()
	s.srv = srv
	s.baseURL = "http://" + ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("callback server stopped", zap.Error(err))
		}
	}()
	s.log.Debug("callback server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// SetBaseURL sets the externally visible base URL when the router is served
// by something other than Listen.
func (s *CallbackServer) SetBaseURL(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = base
}

// CallbackURL is the redirect target without a state value.
func (s *CallbackServer) CallbackURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL + CallbackPath
}

// Shutdown stops the listener started by Listen.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Prepare implements Transport.
func (s *CallbackServer) Prepare() string {
	state := uuid.NewString()
	s.mu.Lock()
	s.state = state
	s.results = make(chan Params, 1)
	s.mu.Unlock()
	return s.CallbackURL() + "?" + url.Values{ParamState: {state}}.Encode()
}

// CompleteAuthorization implements Transport.
func (s *CallbackServer) CompleteAuthorization(ctx context.Context) (Params, error) {
	s.mu.Lock()
	ch := s.results
	s.mu.Unlock()
	if ch == nil {
		return Params{}, ErrNoAttempt
	}
	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return Params{}, ctx.Err()
	}
}

// deliver hands p to the waiting attempt. Only the first callback carrying
// the current state is accepted.
func (s *CallbackServer) deliver(p Params) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" || p.State != s.state {
		return false
	}
	s.state = ""
	s.results <- p
	return true
}

func (s *CallbackServer) callback(w http.ResponseWriter, r *http.Request) {
	p := FromQuery(r.URL.Query())
	if !s.deliver(p) {
		s.log.Warn("ignoring callback for unknown attempt")
		writePage(w, http.StatusBadRequest, "This authorization link is no longer valid. Start again from your terminal.")
		return
	}
	http.Redirect(w, r, DonePath, http.StatusSeeOther)
}

func (s *CallbackServer) done(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusOK, "You can close this window and return to your terminal.")
}

func (s *CallbackServer) preflight(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); TrustedOrigin(origin, s.trusted) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", http.MethodPost)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *CallbackServer) message(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	origin := r.Header.Get("Origin")
	p, ok := ParseMessage(origin, msg, s.trusted)
	if !ok {
		s.log.Debug("ignoring message", zap.String("origin", origin), zap.String("type", msg.Type))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	switch {
	case p.State == "":
		s.log.Warn("ignoring message without state; the poster must echo the redirect state",
			zap.String("origin", origin))
	case !s.deliver(p):
		s.log.Warn("ignoring message for unknown attempt", zap.String("origin", origin))
	}
	w.WriteHeader(http.StatusNoContent)
}

// logRequests logs method, path and status. Query strings carry tokens and
// are never logged.
func (s *CallbackServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

const pageTemplate = `<!doctype html>
<html><head><meta charset="utf-8"><title>Merchant Connect</title></head>
<body style="font-family: sans-serif; margin: 4em auto; max-width: 32em;">
<h1>Merchant Connect</h1>
<p>%s</p>
</body></html>
`

func writePage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageTemplate, html.EscapeString(msg))
}
