// Package probe answers whether the backend is reachable.
package probe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/notify"
	"go.uber.org/zap"
)

// DefaultAttemptTimeout bounds every single strategy attempt.
const DefaultAttemptTimeout = 5 * time.Second

// Status is the backend connectivity state.
type Status int32

const (
	Checking Status = iota
	Online
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "checking"
	}
}

// Notices shown to the user.
const (
	MsgOnline  = "Connected to backend successfully!"
	MsgOffline = "Cannot connect to backend server. Please check if the server is running."
)

// Prober runs strategies in order until one reports the backend up.
type Prober struct {
	strategies []Strategy
	timeout    time.Duration
	notifier   notify.Notifier
	log        *zap.Logger

	busy atomic.Bool

	mu       sync.Mutex
	status   Status
	notified bool
	watchers []chan Status
}

// Option configures a Prober.
type Option func(*Prober)

// WithAttemptTimeout overrides DefaultAttemptTimeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithNotifier sets where online/offline notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Prober) { p.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) { p.log = l.Named("probe") }
}

// New returns a Prober in the Checking state.
func New(strategies []Strategy, opts ...Option) *Prober {
	p := &Prober{
		strategies: strategies,
		timeout:    DefaultAttemptTimeout,
		notifier:   notify.Discard{},
		log:        logging.Nop(),
		status:     Checking,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status returns the last known status.
func (p *Prober) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Busy reports whether a probe is in flight.
func (p *Prober) Busy() bool {
	return p.busy.Load()
}

// Watch returns a channel receiving every status change. Slow readers miss
// intermediate values; the channel is never closed.
func (p *Prober) Watch() <-chan Status {
	ch := make(chan Status, 4)
	p.mu.Lock()
	p.watchers = append(p.watchers, ch)
	p.mu.Unlock()
	return ch
}

// Initial is the silent start-up check. It never notifies.
func (p *Prober) Initial(ctx context.Context) Status {
	return p.run(ctx, false, false)
}

// Retry is the user-requested check. It notifies on both outcomes, with the
// success notice limited to once per online period.
func (p *Prober) Retry(ctx context.Context) Status {
	return p.run(ctx, true, true)
}

// Check probes once. notify controls both notices.
func (p *Prober) Check(ctx context.Context, notify bool) Status {
	return p.run(ctx, notify, notify)
}

func (p *Prober) run(ctx context.Context, notifySuccess, notifyFailure bool) Status {
	if !p.busy.CompareAndSwap(false, true) {
		p.log.Debug("probe already running, dropping request")
		return p.Status()
	}
	defer p.busy.Store(false)

	p.setStatus(Checking)
	err := p.probe(ctx)

	p.mu.Lock()
	announce := false
	if err == nil {
		announce = notifySuccess && !p.notified
		p.notified = true
	} else {
		p.notified = false
	}
	p.mu.Unlock()

	if err == nil {
		p.setStatus(Online)
		if announce {
			p.notifier.Success(MsgOnline)
		}
		return Online
	}

	p.log.Warn("backend unreachable", zap.Error(err))
	p.setStatus(Offline)
	if notifyFailure {
		p.notifier.Error(MsgOffline)
	}
	return Offline
}

func (p *Prober) probe(ctx context.Context) error {
	if len(p.strategies) == 0 {
		return fmt.Errorf("no probe strategies configured")
	}
	var lastErr error
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			return err
		}
		actx, cancel := context.WithTimeout(ctx, p.timeout)
		err := s.Probe(actx)
		cancel()
		if err == nil {
			p.log.Debug("probe succeeded", zap.String("strategy", s.Name()))
			return nil
		}
		p.log.Debug("probe strategy failed", zap.String("strategy", s.Name()), zap.Error(err))
		lastErr = fmt.Errorf("%s: %w", s.Name(), err)
	}
	return lastErr
}

func (p *Prober) setStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == s {
		return
	}
	p.status = s
	for _, ch := range p.watchers {
		select {
		case ch <- s:
		default:
		}
	}
}
