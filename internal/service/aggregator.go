package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-pulse/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errMarketStatsUnavailable = errors.New("market stats unavailable")

// Fetcher is the never-failing fetcher set driven by the Aggregator.
type Fetcher interface {
	FetchMarketStats(ctx context.Context) *domain.MarketStats
	FetchTVL(ctx context.Context) domain.TVLSnapshot
	FetchFearGreedIndex(ctx context.Context) domain.FearGreedSnapshot
	FetchTrendingTokens(ctx context.Context) []domain.TrendingToken
	FetchRecentlyAddedProjects(ctx context.Context) []domain.RecentProject
}

// Aggregator runs one refresh cycle. It holds no state of its own: Refresh
// maps the previous dashboard to the next one.
type Aggregator struct {
	tracer   trace.Tracer
	log      *zap.SugaredLogger
	fetchers Fetcher
	now      func() time.Time
	newID    func() string
}

func NewAggregator(tracer trace.Tracer, log *zap.SugaredLogger, fetchers Fetcher) *Aggregator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Aggregator{
		tracer:   tracer,
		log:      log,
		fetchers: fetchers,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type cycleResult struct {
	stats     *domain.MarketStats
	tvl       domain.TVLSnapshot
	fearGreed domain.FearGreedSnapshot
	trending  []domain.TrendingToken
	recent    []domain.RecentProject
}

// Refresh fans out to all five fetchers, waits for every one of them and
// merges the results. When market stats are missing, or a fetcher panics,
// the previous data is kept and only the error message is set.
func (a *Aggregator) Refresh(ctx context.Context, prev domain.Dashboard) domain.Dashboard {
	ctx, span := a.tracer.Start(ctx, "aggregator.refresh")
	defer span.End()

	cycleID := a.newID()
	span.SetAttributes(attribute.String("cycle.id", cycleID))

	res, err := a.fanOut(ctx)
	if err == nil && res.stats == nil {
		err = errMarketStatsUnavailable
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.log.Errorw("refresh cycle failed, keeping previous data", "cycle", cycleID, "err", err)

		next := prev.Clone()
		msg := domain.RefreshFailedMessage
		next.Error = &msg
		next.Loading = false
		return next
	}

	stats := *res.stats
	stats.TotalValueLocked = res.tvl.Current
	tvl := res.tvl
	fearGreed := res.fearGreed

	a.log.Infow("refresh cycle complete",
		"cycle", cycleID,
		"market_cap", stats.MarketCap,
		"tvl", stats.TotalValueLocked,
		"fear_greed", fearGreed.Value,
		"trending", len(res.trending),
		"recent_projects", len(res.recent),
	)

	return domain.Dashboard{
		Loading:        false,
		Error:          nil,
		Stats:          &stats,
		TVL:            &tvl,
		FearGreed:      &fearGreed,
		Trending:       nonNilTrending(res.trending),
		RecentProjects: nonNilProjects(res.recent),
		CycleID:        cycleID,
		UpdatedAt:      a.now().UTC(),
	}
}

// fanOut starts the five fetchers concurrently. Each goroutine writes only
// its own field of res, so no locking is needed before Wait returns.
func (a *Aggregator) fanOut(ctx context.Context) (cycleResult, error) {
	var (
		res cycleResult
		g   errgroup.Group
	)
	g.Go(guard(SourceMarketStats, func() { res.stats = a.fetchers.FetchMarketStats(ctx) }))
	g.Go(guard(SourceTrending, func() { res.trending = a.fetchers.FetchTrendingTokens(ctx) }))
	g.Go(guard(SourceRecentProjects, func() { res.recent = a.fetchers.FetchRecentlyAddedProjects(ctx) }))
	g.Go(guard(SourceTVL, func() { res.tvl = a.fetchers.FetchTVL(ctx) }))
	g.Go(guard(SourceFearGreed, func() { res.fearGreed = a.fetchers.FetchFearGreedIndex(ctx) }))

	err := g.Wait()
	return res, err
}

// guard converts a panic in fn into an error for the errgroup.
func guard(source string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s fetcher panicked: %v", source, r)
			}
		}()
		fn()
		return nil
	}
}

func nonNilTrending(v []domain.TrendingToken) []domain.TrendingToken {
	if v == nil {
		return []domain.TrendingToken{}
	}
	return v
}

func nonNilProjects(v []domain.RecentProject) []domain.RecentProject {
	if v == nil {
		return []domain.RecentProject{}
	}
	return v
}
