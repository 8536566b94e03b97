package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"market-pulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type storeStub struct {
	mu           sync.Mutex
	state        domain.Dashboard
	next         domain.Dashboard
	ensureCalls  int
	refreshCalls int
}

func (s *storeStub) Snapshot() domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *storeStub) Refresh(ctx context.Context) domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	s.state = s.next.Clone()
	return s.state.Clone()
}

func (s *storeStub) EnsureLoaded(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCalls++
	if s.state.Stats == nil {
		s.state = s.next.Clone()
	}
}

func loadedDashboard() domain.Dashboard {
	rank := 3
	d := domain.NewDashboard()
	d.Stats = &domain.MarketStats{MarketCap: 2_500_000_000_000, BitcoinPrice: 65000, TotalValueLocked: 80_000_000_000, DailyChange: 1.5}
	d.TVL = &domain.TVLSnapshot{Current: 80_000_000_000, DailyChange: 0.5}
	fg := domain.NewFearGreedSnapshot(55, "Greed", 50)
	d.FearGreed = &fg
	d.Trending = []domain.TrendingToken{{ID: "pepe", Name: "Pepe", Symbol: "PEPE", MarketCapRank: &rank}}
	d.RecentProjects = []domain.RecentProject{{ID: "bitcoin", Rank: 1}}
	d.CycleID = "cycle-1"
	return d
}

func newTestRouter(store DashboardStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(trace.NewNoopTracerProvider().Tracer("test"), store).RegisterRoutes(r)
	return r
}

func doRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetDashboardTriggersInitialLoad(t *testing.T) {
	store := &storeStub{state: domain.NewDashboard(), next: loadedDashboard()}
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.ensureCalls != 1 {
		t.Fatalf("expected EnsureLoaded once, got %d", store.ensureCalls)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"loading", "error", "stats", "tvlData", "fearGreed", "trending", "recentProjects"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing key %q in %s", key, w.Body.String())
		}
	}
	if string(got["error"]) != "null" {
		t.Fatalf("expected null error, got %s", got["error"])
	}
}

func TestRefreshReturnsFailureAsState(t *testing.T) {
	next := loadedDashboard()
	msg := domain.RefreshFailedMessage
	next.Error = &msg
	store := &storeStub{state: domain.NewDashboard(), next: next}
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got domain.Dashboard
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error == nil || *got.Error != domain.RefreshFailedMessage {
		t.Fatalf("expected error message in body, got %v", got.Error)
	}
	if store.refreshCalls != 1 {
		t.Fatalf("expected one refresh, got %d", store.refreshCalls)
	}
}

func TestGetEntities(t *testing.T) {
	store := &storeStub{state: loadedDashboard()}
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var stats domain.MarketStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalValueLocked != 80_000_000_000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	w = doRequest(r, http.MethodGet, "/api/tvl")
	if w.Code != http.StatusOK {
		t.Fatalf("tvl: expected 200, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/fear-greed")
	var fg domain.FearGreedSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &fg); err != nil {
		t.Fatalf("decode fear/greed: %v", err)
	}
	if fg.Value != 55 || fg.PreviousChange != 5 {
		t.Fatalf("unexpected fear/greed: %+v", fg)
	}

	w = doRequest(r, http.MethodGet, "/api/trending")
	var trending struct {
		Trending []domain.TrendingToken `json:"trending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &trending); err != nil {
		t.Fatalf("decode trending: %v", err)
	}
	if len(trending.Trending) != 1 || trending.Trending[0].MarketCapRank == nil || *trending.Trending[0].MarketCapRank != 3 {
		t.Fatalf("unexpected trending: %+v", trending.Trending)
	}

	w = doRequest(r, http.MethodGet, "/api/projects/recent")
	var projects struct {
		Projects []domain.RecentProject `json:"projects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &projects); err != nil {
		t.Fatalf("decode projects: %v", err)
	}
	if len(projects.Projects) != 1 {
		t.Fatalf("unexpected projects: %+v", projects.Projects)
	}
}

func TestEntitiesBeforeFirstLoad(t *testing.T) {
	store := &storeStub{state: domain.NewDashboard()}
	r := newTestRouter(store)

	for _, path := range []string{"/api/stats", "/api/tvl", "/api/fear-greed"} {
		if w := doRequest(r, http.MethodGet, path); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}

	w := doRequest(r, http.MethodGet, "/api/trending")
	if w.Code != http.StatusOK || w.Body.String() != `{"trending":[]}` {
		t.Fatalf("expected empty trending list, got %d %s", w.Code, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://dash.example.com/, https://other.example.com"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", w.Code)
	}
}

func TestParseOrigins(t *testing.T) {
	if got := parseOrigins(""); got != nil {
		t.Fatalf("expected nil for empty, got %v", got)
	}
	if got := parseOrigins("a.com,*"); got != nil {
		t.Fatalf("wildcard must allow all, got %v", got)
	}
	got := parseOrigins(" https://a.com/ ,, https://b.com")
	if len(got) != 2 || got[0] != "https://a.com" || got[1] != "https://b.com" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
