package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"market-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestNewRefreshJobInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	job := NewRefreshJob(tracer, nil, &refresherTestStub{}, 2)
	if job.interval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", job.interval)
	}
	if !job.Enabled() {
		t.Fatal("expected job to be enabled")
	}
}

func TestRefreshJobRunsImmediately(t *testing.T) {
	stub := &refresherTestStub{}
	job := NewRefreshJob(trace.NewNoopTracerProvider().Tracer("test"), nil, stub, 60)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return stub.calls.Load() > 0 })
	cancel()
	<-done
}

func TestRefreshJobTicks(t *testing.T) {
	stub := &refresherTestStub{failing: true}
	job := NewRefreshJob(trace.NewNoopTracerProvider().Tracer("test"), nil, stub, 1)
	job.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go job.Start(ctx)

	eventually(t, func() bool { return stub.calls.Load() >= 3 })
}

func TestRefreshJobDisabled(t *testing.T) {
	stub := &refresherTestStub{}
	job := NewRefreshJob(trace.NewNoopTracerProvider().Tracer("test"), nil, stub, 0)
	if job.Enabled() {
		t.Fatal("expected job to be disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if stub.calls.Load() != 0 {
		t.Fatal("disabled job must not refresh")
	}
}

type refresherTestStub struct {
	calls   atomic.Int32
	failing bool
}

func (s *refresherTestStub) Refresh(ctx context.Context) domain.Dashboard {
	s.calls.Add(1)
	d := domain.NewDashboard()
	if s.failing {
		msg := domain.RefreshFailedMessage
		d.Error = &msg
	}
	return d
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
