package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"market-pulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches global market data, spot prices, trending
// searches and market listings from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// A refresh cycle issues four calls, so the bucket allows a burst of 10 and
// refills one token every 2 seconds.
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
		limiter: NewRateLimiter(10, 2*time.Second),
	}
}

// GlobalMarket is the subset of /global used by the dashboard.
type GlobalMarket struct {
	MarketCapUSD       float64
	VolumeUSD          float64
	MarketCapChange24h float64
}

// FetchGlobal fetches aggregate market capitalization and volume.
func (p *CoinGeckoProvider) FetchGlobal(ctx context.Context) (*GlobalMarket, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-global")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/global")
	if err != nil {
		return nil, fmt.Errorf("fetch global: %w", err)
	}

	// Response shape: {"data": {"total_market_cap": {"usd": ...}, "total_volume": {"usd": ...}, "market_cap_change_percentage_24h_usd": 1.2}}
	var raw struct {
		Data *struct {
			TotalMarketCap  map[string]float64 `json:"total_market_cap"`
			TotalVolume     map[string]float64 `json:"total_volume"`
			MarketCapChange *float64           `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse global: %w", err)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("parse global: missing data object")
	}

	mcap, ok := raw.Data.TotalMarketCap["usd"]
	if !ok {
		return nil, fmt.Errorf("parse global: missing total_market_cap.usd")
	}
	vol, ok := raw.Data.TotalVolume["usd"]
	if !ok {
		return nil, fmt.Errorf("parse global: missing total_volume.usd")
	}

	global := &GlobalMarket{MarketCapUSD: mcap, VolumeUSD: vol}
	if raw.Data.MarketCapChange != nil {
		global.MarketCapChange24h = *raw.Data.MarketCapChange
	}
	return global, nil
}

// FetchBitcoinPrice fetches the BTC spot price in USD.
func (p *CoinGeckoProvider) FetchBitcoinPrice(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-bitcoin-price")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/simple/price?ids=bitcoin&vs_currencies=usd")
	if err != nil {
		return 0, fmt.Errorf("fetch bitcoin price: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse bitcoin price: %w", err)
	}
	price, ok := raw["bitcoin"]["usd"]
	if !ok {
		return 0, fmt.Errorf("parse bitcoin price: missing bitcoin.usd")
	}
	return price, nil
}

// FetchMarketStats runs the global and bitcoin price calls concurrently and
// combines them. TotalValueLocked and WeeklyChange are always 0: TVL comes
// from DefiLlama and CoinGecko has no weekly figure.
func (p *CoinGeckoProvider) FetchMarketStats(ctx context.Context) (*domain.MarketStats, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-market-stats")
	defer span.End()

	var (
		global   *GlobalMarket
		btcPrice float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverAsError("fetch global", &err)
		global, err = p.FetchGlobal(gctx)
		return err
	})
	g.Go(func() (err error) {
		defer recoverAsError("fetch bitcoin price", &err)
		btcPrice, err = p.FetchBitcoinPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.MarketStats{
		MarketCap:        global.MarketCapUSD,
		BitcoinPrice:     btcPrice,
		TotalValueLocked: 0,
		TradingVolume:    global.VolumeUSD,
		DailyChange:      global.MarketCapChange24h,
		WeeklyChange:     0,
	}, nil
}

// FetchTrending fetches the trending search list, preserving CoinGecko's order.
func (p *CoinGeckoProvider) FetchTrending(ctx context.Context) ([]domain.TrendingToken, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-trending")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/search/trending")
	if err != nil {
		return nil, fmt.Errorf("fetch trending: %w", err)
	}

	var raw struct {
		Coins *[]struct {
			Item struct {
				ID            string   `json:"id"`
				Name          string   `json:"name"`
				Symbol        string   `json:"symbol"`
				MarketCapRank *int     `json:"market_cap_rank"`
				PriceBTC      *float64 `json:"price_btc"`
				Thumb         string   `json:"thumb"`
				Score         *int     `json:"score"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse trending: %w", err)
	}
	if raw.Coins == nil {
		return nil, fmt.Errorf("parse trending: missing coins")
	}

	tokens := make([]domain.TrendingToken, 0, len(*raw.Coins))
	for _, c := range *raw.Coins {
		tokens = append(tokens, domain.TrendingToken{
			ID:            c.Item.ID,
			Name:          c.Item.Name,
			Symbol:        c.Item.Symbol,
			MarketCapRank: c.Item.MarketCapRank,
			PriceBTC:      derefFloat(c.Item.PriceBTC),
			Thumb:         c.Item.Thumb,
			Score:         derefInt(c.Item.Score),
		})
	}
	span.SetAttributes(attribute.Int("coins", len(tokens)))
	return tokens, nil
}

// FetchMarkets fetches the first page of coins ordered by market cap.
func (p *CoinGeckoProvider) FetchMarkets(ctx context.Context, perPage int) ([]domain.RecentProject, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-markets")
	defer span.End()

	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false",
		p.baseURL, perPage)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	var raw []struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Symbol        string   `json:"symbol"`
		CurrentPrice  *float64 `json:"current_price"`
		PriceChange   *float64 `json:"price_change_percentage_24h"`
		MarketCap     *float64 `json:"market_cap"`
		MarketCapRank *int     `json:"market_cap_rank"`
		Image         string   `json:"image"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}

	projects := make([]domain.RecentProject, 0, len(raw))
	for _, c := range raw {
		projects = append(projects, domain.RecentProject{
			ID:          c.ID,
			Name:        c.Name,
			Symbol:      c.Symbol,
			Price:       derefFloat(c.CurrentPrice),
			PriceChange: derefFloat(c.PriceChange),
			MarketCap:   derefFloat(c.MarketCap),
			Rank:        derefInt(c.MarketCapRank),
			Image:       c.Image,
		})
	}
	span.SetAttributes(attribute.Int("coins", len(projects)))
	return projects, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return getJSON(ctx, p.client, url, "coingecko")
}

// getJSON issues a GET and returns the body of a 200 response.
func getJSON(ctx context.Context, client *http.Client, url, upstream string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s API error %d: %s", upstream, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
