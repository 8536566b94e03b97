package job

import (
	"context"
	"time"

	"market-pulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DashboardRefresher runs one refresh cycle and returns the published state.
type DashboardRefresher interface {
	Refresh(ctx context.Context) domain.Dashboard
}

// RefreshJob keeps the dashboard warm by refreshing it on a fixed interval.
type RefreshJob struct {
	tracer    trace.Tracer
	log       *zap.SugaredLogger
	refresher DashboardRefresher
	interval  time.Duration
}

// NewRefreshJob returns a job that refreshes every intervalSecs seconds. An
// interval of zero or less disables the job.
func NewRefreshJob(tracer trace.Tracer, log *zap.SugaredLogger, refresher DashboardRefresher, intervalSecs int) *RefreshJob {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RefreshJob{
		tracer:    tracer,
		log:       log,
		refresher: refresher,
		interval:  time.Duration(intervalSecs) * time.Second,
	}
}

func (j *RefreshJob) Enabled() bool {
	return j.refresher != nil && j.interval > 0
}

// Start refreshes immediately and then on every tick. Blocks until ctx is
// cancelled.
func (j *RefreshJob) Start(ctx context.Context) {
	if !j.Enabled() {
		j.log.Info("refresh job disabled")
		<-ctx.Done()
		return
	}

	j.log.Infow("refresh job starting", "interval", j.interval)
	j.runOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("refresh job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RefreshJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once")
	defer span.End()

	d := j.refresher.Refresh(ctx)
	span.SetAttributes(attribute.String("cycle.id", d.CycleID))
	if d.Error != nil {
		j.log.Warnw("scheduled refresh failed", "err", *d.Error)
		return
	}
	j.log.Debugw("scheduled refresh complete", "cycle", d.CycleID)
}
