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

const fearGreedBaseURL = "https://api.alternative.me"

type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *FearGreedProvider {
	if baseURL == "" {
		baseURL = fearGreedBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FearGreedProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

// FetchIndex fetches the latest limit daily readings (newest first) and
// compares the latest one with the reading before it. With a single reading
// the latest is its own previous value.
func (p *FearGreedProvider) FetchIndex(ctx context.Context, limit int) (*domain.FearGreedSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-index")
	defer span.End()

	if limit < 1 {
		limit = 1
	}
	url := fmt.Sprintf("%s/fng/?limit=%d", strings.TrimRight(p.baseURL, "/"), limit)
	body, err := getJSON(ctx, p.client, url, "fear & greed")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response: %w", ErrNoData)
	}
	span.SetAttributes(attribute.Int("rows", len(payload.Data)))

	latest := payload.Data[0]
	previous := latest
	if len(payload.Data) > 1 {
		previous = payload.Data[1]
	}

	value, err := parseIndexValue(latest.Value)
	if err != nil {
		return nil, fmt.Errorf("parse fear & greed value: %w", err)
	}
	previousValue, err := parseIndexValue(previous.Value)
	if err != nil {
		return nil, fmt.Errorf("parse previous fear & greed value: %w", err)
	}

	snap := domain.NewFearGreedSnapshot(value, latest.Classification, previousValue)
	return &snap, nil
}
