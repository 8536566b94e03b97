package domain

import "time"

// RefreshFailedMessage is the user-facing error published when a refresh
// cycle produces no market stats.
const RefreshFailedMessage = "Failed to fetch data"

// UnknownSentiment is the fear/greed label used when the index is unavailable.
const UnknownSentiment = "Unknown"

// MarketStats is the headline market card: global market cap, BTC spot price,
// DeFi TVL, 24h volume and the market cap change percentages.
type MarketStats struct {
	MarketCap        float64 `json:"marketCap"`
	BitcoinPrice     float64 `json:"bitcoinPrice"`
	TotalValueLocked float64 `json:"totalValueLocked"`
	TradingVolume    float64 `json:"tradingVolume"`
	DailyChange      float64 `json:"dailyChange"`
	WeeklyChange     float64 `json:"weeklyChange"`
}

// TVLSnapshot holds the current DeFi total value locked in USD and its
// daily/weekly percent changes.
type TVLSnapshot struct {
	Current      float64 `json:"current"`
	DailyChange  float64 `json:"dailyChange"`
	WeeklyChange float64 `json:"weeklyChange"`
}

// DefaultTVL is returned when TVL data cannot be fetched.
func DefaultTVL() TVLSnapshot {
	return TVLSnapshot{}
}

// FearGreedSnapshot is the latest sentiment reading and its change against
// the previous day.
type FearGreedSnapshot struct {
	Value          int    `json:"value"`
	Indicator      string `json:"indicator"`
	PreviousValue  int    `json:"previousValue"`
	PreviousChange int    `json:"previousChange"`
}

// NewFearGreedSnapshot builds a snapshot; PreviousChange is always
// value - previous.
func NewFearGreedSnapshot(value int, indicator string, previous int) FearGreedSnapshot {
	return FearGreedSnapshot{
		Value:          value,
		Indicator:      indicator,
		PreviousValue:  previous,
		PreviousChange: value - previous,
	}
}

// DefaultFearGreed is returned when the sentiment index cannot be fetched.
func DefaultFearGreed() FearGreedSnapshot {
	return NewFearGreedSnapshot(0, UnknownSentiment, 0)
}

// TrendingToken is one entry of the trending search list, in source order.
type TrendingToken struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank *int    `json:"market_cap_rank"`
	PriceBTC      float64 `json:"price_btc"`
	Thumb         string  `json:"thumb"`
	Score         int     `json:"score"`
}

// RecentProject is one row of the "recently added" table. The rows come from
// the top of the market cap ranking, not from a listing-date feed.
type RecentProject struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	PriceChange float64 `json:"priceChange"`
	MarketCap   float64 `json:"marketCap"`
	Rank        int     `json:"rank"`
	Image       string  `json:"image"`
}

// Dashboard is the published state of the most recently completed refresh
// cycle. Stats, TVL and FearGreed stay nil until the first successful cycle.
type Dashboard struct {
	Loading        bool               `json:"loading"`
	Error          *string            `json:"error"`
	Stats          *MarketStats       `json:"stats"`
	TVL            *TVLSnapshot       `json:"tvlData"`
	FearGreed      *FearGreedSnapshot `json:"fearGreed"`
	Trending       []TrendingToken    `json:"trending"`
	RecentProjects []RecentProject    `json:"recentProjects"`
	CycleID        string             `json:"cycleId,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// NewDashboard returns the empty initial state.
func NewDashboard() Dashboard {
	return Dashboard{
		Trending:       []TrendingToken{},
		RecentProjects: []RecentProject{},
	}
}

// Clone returns a deep copy so callers can never mutate published state.
func (d Dashboard) Clone() Dashboard {
	out := d
	if d.Error != nil {
		msg := *d.Error
		out.Error = &msg
	}
	if d.Stats != nil {
		stats := *d.Stats
		out.Stats = &stats
	}
	if d.TVL != nil {
		tvl := *d.TVL
		out.TVL = &tvl
	}
	if d.FearGreed != nil {
		fg := *d.FearGreed
		out.FearGreed = &fg
	}
	out.Trending = make([]TrendingToken, len(d.Trending))
	for i, t := range d.Trending {
		if t.MarketCapRank != nil {
			rank := *t.MarketCapRank
			t.MarketCapRank = &rank
		}
		out.Trending[i] = t
	}
	out.RecentProjects = append(make([]RecentProject, 0, len(d.RecentProjects)), d.RecentProjects...)
	return out
}
