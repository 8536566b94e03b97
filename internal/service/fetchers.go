package service

import (
	"context"
	"errors"
	"time"

	"market-pulse/internal/domain"
	"market-pulse/internal/metrics"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Source names used in logs, spans and metrics.
const (
	SourceMarketStats    = "market_stats"
	SourceTVL            = "tvl"
	SourceFearGreed      = "fear_greed"
	SourceTrending       = "trending"
	SourceRecentProjects = "recent_projects"
)

// recentProjectsPageSize is fixed: the dashboard table shows the top 10 coins
// by market cap in place of a real listing-date feed.
const recentProjectsPageSize = 10

const (
	defaultFetchTimeout   = 5 * time.Second
	defaultFearGreedLimit = 2
)

var errEmptyResult = errors.New("provider returned no result")

type MarketDataProvider interface {
	FetchMarketStats(ctx context.Context) (*domain.MarketStats, error)
	FetchTrending(ctx context.Context) ([]domain.TrendingToken, error)
	FetchMarkets(ctx context.Context, perPage int) ([]domain.RecentProject, error)
}

type TVLProvider interface {
	FetchTVL(ctx context.Context) (*domain.TVLSnapshot, error)
}

type SentimentProvider interface {
	FetchIndex(ctx context.Context, limit int) (*domain.FearGreedSnapshot, error)
}

type FetcherConfig struct {
	// Timeout bounds each upstream call; expiry counts as a transport failure.
	Timeout        time.Duration
	FearGreedLimit int
}

// Fetchers wraps the upstream providers so that no call ever fails: every
// error is logged and replaced by the source's default value.
type Fetchers struct {
	tracer    trace.Tracer
	log       *zap.SugaredLogger
	metrics   *metrics.Recorder
	market    MarketDataProvider
	tvl       TVLProvider
	sentiment SentimentProvider
	cfg       FetcherConfig
}

func NewFetchers(
	tracer trace.Tracer,
	log *zap.SugaredLogger,
	recorder *metrics.Recorder,
	market MarketDataProvider,
	tvl TVLProvider,
	sentiment SentimentProvider,
	cfg FetcherConfig,
) *Fetchers {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.FearGreedLimit < 1 {
		cfg.FearGreedLimit = defaultFearGreedLimit
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetchers{
		tracer:    tracer,
		log:       log,
		metrics:   recorder,
		market:    market,
		tvl:       tvl,
		sentiment: sentiment,
		cfg:       cfg,
	}
}

// FetchMarketStats returns nil on failure. Unlike the other fetchers there is
// no zero-valued fallback: callers must treat nil as "market data missing".
func (f *Fetchers) FetchMarketStats(ctx context.Context) *domain.MarketStats {
	var stats *domain.MarketStats
	ok := f.call(ctx, SourceMarketStats, func(ctx context.Context) error {
		s, err := f.market.FetchMarketStats(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errEmptyResult
		}
		stats = s
		return nil
	})
	if !ok {
		return nil
	}
	out := *stats
	f.log.Debugw("fetched market stats", "market_cap", out.MarketCap, "bitcoin_price", out.BitcoinPrice)
	return &out
}

func (f *Fetchers) FetchTVL(ctx context.Context) domain.TVLSnapshot {
	var tvl *domain.TVLSnapshot
	ok := f.call(ctx, SourceTVL, func(ctx context.Context) error {
		s, err := f.tvl.FetchTVL(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errEmptyResult
		}
		tvl = s
		return nil
	})
	if !ok {
		return domain.DefaultTVL()
	}
	f.log.Debugw("fetched tvl", "current", tvl.Current, "daily_change", tvl.DailyChange)
	return *tvl
}

func (f *Fetchers) FetchFearGreedIndex(ctx context.Context) domain.FearGreedSnapshot {
	var fg *domain.FearGreedSnapshot
	ok := f.call(ctx, SourceFearGreed, func(ctx context.Context) error {
		s, err := f.sentiment.FetchIndex(ctx, f.cfg.FearGreedLimit)
		if err != nil {
			return err
		}
		if s == nil {
			return errEmptyResult
		}
		fg = s
		return nil
	})
	if !ok {
		return domain.DefaultFearGreed()
	}
	f.log.Debugw("fetched fear & greed index", "value", fg.Value, "indicator", fg.Indicator)
	return domain.NewFearGreedSnapshot(fg.Value, fg.Indicator, fg.PreviousValue)
}

func (f *Fetchers) FetchTrendingTokens(ctx context.Context) []domain.TrendingToken {
	var tokens []domain.TrendingToken
	ok := f.call(ctx, SourceTrending, func(ctx context.Context) error {
		var err error
		tokens, err = f.market.FetchTrending(ctx)
		return err
	})
	if !ok || tokens == nil {
		return []domain.TrendingToken{}
	}
	f.log.Debugw("fetched trending tokens", "count", len(tokens))
	return tokens
}

func (f *Fetchers) FetchRecentlyAddedProjects(ctx context.Context) []domain.RecentProject {
	var projects []domain.RecentProject
	ok := f.call(ctx, SourceRecentProjects, func(ctx context.Context) error {
		var err error
		projects, err = f.market.FetchMarkets(ctx, recentProjectsPageSize)
		return err
	})
	if !ok || projects == nil {
		return []domain.RecentProject{}
	}
	f.log.Debugw("fetched recent projects", "count", len(projects))
	return projects
}

// call runs fn under its own timeout and span and reports whether it succeeded.
func (f *Fetchers) call(ctx context.Context, source string, fn func(context.Context) error) bool {
	ctx, span := f.tracer.Start(ctx, "fetcher."+source)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	f.metrics.ObserveFetch(source, err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.log.Warnw("fetch failed, using default", "source", source, "err", err)
		return false
	}
	return true
}
