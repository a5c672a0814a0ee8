package probe

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is how often an offline backend is re-probed.
const DefaultInterval = 5 * time.Second

// Poller re-probes on a fixed interval while the prober reports Offline.
// Ticks that land while a probe is in flight are dropped by the prober.
type Poller struct {
	prober   *Prober
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a stopped Poller.
func NewPoller(p *Prober, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{prober: p, interval: interval}
}

// Start begins polling. Calling Start on a running Poller is a no-op.
func (pl *Poller) Start(ctx context.Context) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	pl.cancel = cancel
	pl.done = make(chan struct{})
	go pl.loop(ctx, pl.done)
}

// Stop halts polling and waits for the loop to exit.
func (pl *Poller) Stop() {
	pl.mu.Lock()
	cancel, done := pl.cancel, pl.done
	pl.cancel, pl.done = nil, nil
	pl.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (pl *Poller) Running() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.cancel != nil
}

func (pl *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(pl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pl.prober.Status() == Offline {
				pl.prober.run(ctx, true, false)
			}
		}
	}
}
