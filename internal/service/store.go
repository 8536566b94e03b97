package service

import (
	"context"
	"sync"
	"sync/atomic"

	"market-pulse/internal/domain"
	"market-pulse/internal/metrics"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Refresher produces the next dashboard from the previous one.
type Refresher interface {
	Refresh(ctx context.Context, prev domain.Dashboard) domain.Dashboard
}

// Publisher receives every newly published dashboard.
type Publisher interface {
	Publish(ctx context.Context, dashboard domain.Dashboard) error
}

// Store owns the last published dashboard and the loading/error flags.
// Overlapping refreshes are allowed; the last one to complete wins.
type Store struct {
	tracer    trace.Tracer
	log       *zap.SugaredLogger
	refresher Refresher
	publisher Publisher
	metrics   *metrics.Recorder

	mu       sync.RWMutex
	state    domain.Dashboard
	inFlight int

	loaded atomic.Bool
	initMu sync.Mutex
}

func NewStore(
	tracer trace.Tracer,
	log *zap.SugaredLogger,
	refresher Refresher,
	publisher Publisher,
	recorder *metrics.Recorder,
) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{
		tracer:    tracer,
		log:       log,
		refresher: refresher,
		publisher: publisher,
		metrics:   recorder,
		state:     domain.NewDashboard(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Loading reports whether a refresh cycle is running.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// EnsureLoaded runs the initial refresh unless some refresh has already
// published a result. Concurrent callers wait for the one in progress. A load
// whose caller went away publishes nothing, so the next caller retries it.
func (s *Store) EnsureLoaded(ctx context.Context) {
	if s.loaded.Load() {
		return
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.loaded.Load() {
		return
	}
	s.Refresh(ctx)
}

// Refresh runs one cycle and publishes its outcome. Loading is cleared even
// if the cycle panics. When ctx is already cancelled on completion the
// result is dropped, since the caller that asked for it is gone.
func (s *Store) Refresh(ctx context.Context) domain.Dashboard {
	ctx, span := s.tracer.Start(ctx, "store.refresh")
	defer span.End()

	prev := s.begin()
	done := false
	defer func() {
		if !done {
			s.finish(nil)
			s.metrics.RefreshFinished(false)
		}
	}()

	next := s.refresher.Refresh(ctx, prev)
	if ctx.Err() != nil {
		s.log.Infow("refresh result dropped, caller cancelled", "err", ctx.Err())
		snapshot := s.finish(nil)
		done = true
		s.metrics.RefreshFinished(false)
		return snapshot
	}

	snapshot := s.finish(&next)
	done = true
	s.loaded.Store(true)
	s.metrics.RefreshFinished(next.Error == nil)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snapshot); err != nil {
			s.log.Warnw("publish dashboard failed", "cycle", snapshot.CycleID, "err", err)
		}
	}
	return snapshot
}

func (s *Store) begin() domain.Dashboard {
	s.metrics.RefreshStarted()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.state.Loading = true
	return s.state.Clone()
}

// finish applies next (nil means nothing to publish) and recomputes loading.
// A failed cycle only sets the error so newer data from an overlapping
// cycle is never rolled back.
func (s *Store) finish(next *domain.Dashboard) domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	if next != nil {
		if next.Error != nil {
			msg := *next.Error
			s.state.Error = &msg
		} else {
			s.state = next.Clone()
		}
	}
	s.state.Loading = s.inFlight > 0
	return s.state.Clone()
}
