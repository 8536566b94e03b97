package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"market-pulse/internal/domain"
)

type refreshFunc func(ctx context.Context, prev domain.Dashboard) domain.Dashboard

func (f refreshFunc) Refresh(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
	return f(ctx, prev)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Dashboard
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, d domain.Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, d)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func successDashboard(marketCap float64) domain.Dashboard {
	d := domain.NewDashboard()
	d.Stats = &domain.MarketStats{MarketCap: marketCap}
	d.TVL = &domain.TVLSnapshot{}
	fg := domain.DefaultFearGreed()
	d.FearGreed = &fg
	return d
}

func failedDashboard(prev domain.Dashboard) domain.Dashboard {
	next := prev.Clone()
	msg := domain.RefreshFailedMessage
	next.Error = &msg
	next.Loading = false
	return next
}

func TestStoreInitialState(t *testing.T) {
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		return prev
	}), nil, nil)

	snap := s.Snapshot()
	if snap.Loading || snap.Error != nil || snap.Stats != nil {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	if snap.Trending == nil || snap.RecentProjects == nil {
		t.Fatal("initial lists must be empty, not nil")
	}
}

func TestStoreRefreshSuccessPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		if !prev.Loading {
			t.Error("refresher must observe loading=true")
		}
		return successDashboard(42)
	}), pub, nil)

	got := s.Refresh(context.Background())

	if got.Loading || s.Loading() {
		t.Fatal("loading must be cleared after success")
	}
	if got.Stats == nil || got.Stats.MarketCap != 42 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
	if pub.count() != 1 {
		t.Fatalf("expected one publish, got %d", pub.count())
	}
}

func TestStoreFailureKeepsData(t *testing.T) {
	fail := false
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		if fail {
			return failedDashboard(prev)
		}
		return successDashboard(7)
	}), nil, nil)

	s.Refresh(context.Background())
	fail = true
	got := s.Refresh(context.Background())

	if got.Error == nil || *got.Error != domain.RefreshFailedMessage {
		t.Fatalf("expected error, got %v", got.Error)
	}
	if got.Stats == nil || got.Stats.MarketCap != 7 {
		t.Fatalf("data must survive a failed cycle: %+v", got.Stats)
	}
	if got.Loading {
		t.Fatal("loading must be cleared after failure")
	}

	fail = false
	got = s.Refresh(context.Background())
	if got.Error != nil {
		t.Fatal("success must clear the error")
	}
}

func TestStorePanicClearsLoading(t *testing.T) {
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		panic("boom")
	}), nil, nil)

	func() {
		defer func() { _ = recover() }()
		s.Refresh(context.Background())
	}()

	if s.Loading() {
		t.Fatal("loading must be cleared after a panic")
	}
}

func TestStoreCancelledResultIsDropped(t *testing.T) {
	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		cancel()
		return successDashboard(99)
	}), pub, nil)

	got := s.Refresh(ctx)

	if got.Stats != nil {
		t.Fatalf("result of a cancelled refresh must be dropped: %+v", got.Stats)
	}
	if got.Loading {
		t.Fatal("loading must be cleared")
	}
	if pub.count() != 0 {
		t.Fatal("dropped result must not be published")
	}
}

func TestStorePublishErrorIsIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis down")}
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		return successDashboard(1)
	}), pub, nil)

	got := s.Refresh(context.Background())
	if got.Error != nil || got.Stats == nil {
		t.Fatalf("publish failure must not affect state: %+v", got)
	}
}

func TestStoreEnsureLoadedRunsOnce(t *testing.T) {
	var calls atomic.Int32
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return successDashboard(1)
	}), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.EnsureLoaded(context.Background())
		}()
	}
	wg.Wait()
	s.EnsureLoaded(context.Background())

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one initial refresh, got %d", n)
	}
	if s.Snapshot().Stats == nil {
		t.Fatal("expected data after EnsureLoaded")
	}
}

func TestStoreEnsureLoadedSkipsAfterRefresh(t *testing.T) {
	var calls atomic.Int32
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		calls.Add(1)
		return successDashboard(1)
	}), nil, nil)

	s.Refresh(context.Background())
	s.EnsureLoaded(context.Background())

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected EnsureLoaded to be a no-op, got %d calls", n)
	}
}

func TestStoreEnsureLoadedRetriesAfterCancelledCaller(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		if calls.Add(1) == 1 {
			cancel()
		}
		return successDashboard(3)
	}), nil, nil)

	s.EnsureLoaded(ctx)
	if s.Snapshot().Stats != nil {
		t.Fatal("result for a cancelled caller must not be published")
	}

	s.EnsureLoaded(context.Background())
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected the initial load to run again, got %d calls", n)
	}
	snap := s.Snapshot()
	if snap.Stats == nil || snap.Stats.MarketCap != 3 {
		t.Fatalf("expected data after the second EnsureLoaded: %+v", snap.Stats)
	}

	s.EnsureLoaded(context.Background())
	if n := calls.Load(); n != 2 {
		t.Fatalf("EnsureLoaded must be a no-op once loaded, got %d calls", n)
	}
}

func TestStoreOverlappingRefreshes(t *testing.T) {
	release := make(chan struct{})
	var n atomic.Int32
	s := NewStore(testTracer, nil, refreshFunc(func(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
		i := n.Add(1)
		if i == 1 {
			<-release
			return failedDashboard(prev)
		}
		return successDashboard(float64(i))
	}), nil, nil)

	done := make(chan struct{})
	go func() {
		s.Refresh(context.Background())
		close(done)
	}()
	for n.Load() < 1 {
		time.Sleep(time.Millisecond)
	}

	s.Refresh(context.Background())
	if !s.Loading() {
		t.Fatal("loading must stay true while a cycle is still running")
	}

	close(release)
	<-done

	snap := s.Snapshot()
	if snap.Loading {
		t.Fatal("loading must be false once all cycles finish")
	}
	if snap.Stats == nil || snap.Stats.MarketCap != 2 {
		t.Fatalf("a late failure must not roll back newer data: %+v", snap.Stats)
	}
	if snap.Error == nil {
		t.Fatal("the late failure must still surface its error")
	}
}
