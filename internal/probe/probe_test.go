package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synvya/merchant-connect/internal/api"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/probe"
)

// switchStrategy reports up or down depending on a shared flag.
type switchStrategy struct {
	up    atomic.Bool
	calls atomic.Int32
}

func (s *switchStrategy) Name() string { return "switch" }

func (s *switchStrategy) Probe(ctx context.Context) error {
	s.calls.Add(1)
	if s.up.Load() {
		return nil
	}
	return errors.New("down")
}

// blockingStrategy holds every probe until released.
type blockingStrategy struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingStrategy) Name() string { return "blocking" }

func (s *blockingStrategy) Probe(ctx context.Context) error {
	s.calls.Add(1)
	s.entered <- struct{}{}
	<-s.release
	return nil
}

func TestInitial_IsSilent(t *testing.T) {
	s := &switchStrategy{}
	s.up.Store(true)
	var rec notify.Recorder
	p := probe.New([]probe.Strategy{s}, probe.WithNotifier(&rec))

	assert.Equal(t, probe.Checking, p.Status())
	assert.Equal(t, probe.Online, p.Initial(context.Background()))
	assert.Empty(t, rec.Notices())

	s.up.Store(false)
	assert.Equal(t, probe.Offline, p.Initial(context.Background()))
	assert.Empty(t, rec.Notices())
}

func TestRetry_NotifiesOncePerOnlineTransition(t *testing.T) {
	s := &switchStrategy{}
	var rec notify.Recorder
	p := probe.New([]probe.Strategy{s}, probe.WithNotifier(&rec))
	ctx := context.Background()

	assert.Equal(t, probe.Offline, p.Retry(ctx))
	assert.Equal(t, 1, rec.Count(notify.LevelError))

	s.up.Store(true)
	assert.Equal(t, probe.Online, p.Retry(ctx))
	assert.Equal(t, probe.Online, p.Retry(ctx))
	assert.Equal(t, probe.Online, p.Retry(ctx))
	assert.Equal(t, 1, rec.Count(notify.LevelSuccess))

	s.up.Store(false)
	assert.Equal(t, probe.Offline, p.Retry(ctx))
	s.up.Store(true)
	assert.Equal(t, probe.Online, p.Retry(ctx))
	assert.Equal(t, 2, rec.Count(notify.LevelSuccess))
}

func TestSilentOnlineSuppressesLaterSuccessNotice(t *testing.T) {
	s := &switchStrategy{}
	s.up.Store(true)
	var rec notify.Recorder
	p := probe.New([]probe.Strategy{s}, probe.WithNotifier(&rec))

	p.Initial(context.Background())
	p.Retry(context.Background())
	assert.Zero(t, rec.Count(notify.LevelSuccess))
}

func TestCheck_DropsOverlappingProbes(t *testing.T) {
	s := &blockingStrategy{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := probe.New([]probe.Strategy{s})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Check(context.Background(), false)
	}()
	<-s.entered
	assert.True(t, p.Busy())

	got := p.Check(context.Background(), false)
	assert.Equal(t, probe.Checking, got)

	close(s.release)
	wg.Wait()
	assert.Equal(t, int32(1), s.calls.Load())
	assert.False(t, p.Busy())
	assert.Equal(t, probe.Online, p.Status())
}

func TestStrategies_FallBackInOrder(t *testing.T) {
	down := &switchStrategy{}
	up := &switchStrategy{}
	up.up.Store(true)

	p := probe.New([]probe.Strategy{down, up})
	assert.Equal(t, probe.Online, p.Initial(context.Background()))
	assert.Equal(t, int32(1), down.calls.Load())
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestNoStrategiesIsOffline(t *testing.T) {
	p := probe.New(nil)
	assert.Equal(t, probe.Offline, p.Initial(context.Background()))
}

func TestAttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client := api.New(api.Config{BaseURL: srv.URL, Timeout: time.Minute}, nil, nil)
	p := probe.New(probe.DefaultStrategies(client), probe.WithAttemptTimeout(50*time.Millisecond))

	start := time.Now()
	assert.Equal(t, probe.Offline, p.Initial(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPStrategies(t *testing.T) {
	var methods []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := api.New(api.Config{BaseURL: srv.URL}, nil, nil)
	p := probe.New(probe.DefaultStrategies(client, "/health"))
	assert.Equal(t, probe.Online, p.Initial(context.Background()))
	assert.Equal(t, []string{http.MethodGet, http.MethodHead}, methods)
}

func TestWatch(t *testing.T) {
	s := &switchStrategy{}
	s.up.Store(true)
	p := probe.New([]probe.Strategy{s})
	ch := p.Watch()

	p.Initial(context.Background())
	require.Equal(t, probe.Online, <-ch)
}

func TestPoller_RetriesWhileOffline(t *testing.T) {
	s := &switchStrategy{}
	var rec notify.Recorder
	p := probe.New([]probe.Strategy{s}, probe.WithNotifier(&rec))
	p.Initial(context.Background())
	require.Equal(t, probe.Offline, p.Status())

	pl := probe.NewPoller(p, 10*time.Millisecond)
	pl.Start(context.Background())
	pl.Start(context.Background())
	assert.True(t, pl.Running())

	require.Eventually(t, func() bool { return s.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, rec.Count(notify.LevelError))

	s.up.Store(true)
	require.Eventually(t, func() bool { return p.Status() == probe.Online }, 2*time.Second, 5*time.Millisecond)

	calls := s.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, s.calls.Load(), "poller must not probe while online")
	assert.Equal(t, 1, rec.Count(notify.LevelSuccess))

	pl.Stop()
	pl.Stop()
	assert.False(t, pl.Running())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "checking", probe.Checking.String())
	assert.Equal(t, "online", probe.Online.String())
	assert.Equal(t, "offline", probe.Offline.String())
}
