package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"market-pulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defiLlamaBaseURL = "https://api.llama.fi"
	// tvlDateLayout is the DD-MM-YYYY day key used to line up the series.
	tvlDateLayout = "02-01-2006"
)

// DefiLlamaProvider fetches DeFi total value locked from DefiLlama.
type DefiLlamaProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewDefiLlamaProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *DefiLlamaProvider {
	if baseURL == "" {
		baseURL = defiLlamaBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DefiLlamaProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// TVLPoint is one day of the historical TVL series.
type TVLPoint struct {
	Date time.Time
	TVL  float64
}

// FetchHistory fetches the daily all-chains TVL series, oldest first.
func (p *DefiLlamaProvider) FetchHistory(ctx context.Context) ([]TVLPoint, error) {
	ctx, span := p.tracer.Start(ctx, "defillama.fetch-history")
	defer span.End()

	body, err := getJSON(ctx, p.client, p.baseURL+"/v2/historicalChainTvl", "defillama")
	if err != nil {
		return nil, fmt.Errorf("fetch tvl history: %w", err)
	}

	// Response shape: [{"date": 1700006400, "tvl": 41234567890.12}, ...]
	var raw []struct {
		Date float64 `json:"date"`
		TVL  float64 `json:"tvl"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse tvl history: %w", err)
	}

	points := make([]TVLPoint, 0, len(raw))
	for _, r := range raw {
		if r.Date <= 0 {
			continue
		}
		points = append(points, TVLPoint{
			Date: time.Unix(int64(r.Date), 0).UTC(),
			TVL:  r.TVL,
		})
	}
	span.SetAttributes(attribute.Int("points", len(points)))
	return points, nil
}

// FetchTVL returns the newest TVL with its change against the previous day
// and against the same day a week earlier.
func (p *DefiLlamaProvider) FetchTVL(ctx context.Context) (*domain.TVLSnapshot, error) {
	points, err := p.FetchHistory(ctx)
	if err != nil {
		return nil, err
	}
	return tvlFromHistory(points)
}

// tvlFromHistory picks today (the newest point), yesterday and last week by
// day key. A day missing from the series counts as 0, which reports a 0%
// change.
func tvlFromHistory(points []TVLPoint) (*domain.TVLSnapshot, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("tvl history: %w", ErrNoData)
	}

	byDay := make(map[string]float64, len(points))
	latest := points[0]
	for _, pt := range points {
		byDay[pt.Date.Format(tvlDateLayout)] = pt.TVL
		if pt.Date.After(latest.Date) {
			latest = pt
		}
	}

	today := latest.TVL
	yesterday := byDay[latest.Date.AddDate(0, 0, -1).Format(tvlDateLayout)]
	lastWeek := byDay[latest.Date.AddDate(0, 0, -7).Format(tvlDateLayout)]

	return &domain.TVLSnapshot{
		Current:      today,
		DailyChange:  percentChange(today, yesterday),
		WeeklyChange: percentChange(today, lastWeek),
	}, nil
}
