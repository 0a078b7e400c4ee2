package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/execution"
	"equityDayBot/internal/metrics"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/strategy"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockAccount struct {
	account *ports.Account
	err     error
	panics  bool
}

func (m *mockAccount) GetAccount(ctx context.Context) (*ports.Account, error) {
	if m.panics {
		panic("nil map write")
	}
	return m.account, m.err
}

type mockOrders struct {
	submitted []domain.OrderRequest
	err       error
}

func (m *mockOrders) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*ports.OrderResponse, error) {
	m.submitted = append(m.submitted, req)
	if m.err != nil {
		return nil, m.err
	}
	return &ports.OrderResponse{OrderID: "ord-" + req.Symbol, Symbol: req.Symbol, Status: "accepted"}, nil
}

func (m *mockOrders) GetOrderStatus(ctx context.Context, orderID string) (*ports.OrderResponse, error) {
	return nil, ports.ErrOrderNotFound
}

func (m *mockOrders) CancelOrder(ctx context.Context, orderID string) error { return nil }

// mockMarketData serves gap and range figures and records prefetch requests.
type mockMarketData struct {
	gaps         map[string]domain.GapInfo
	ranges       map[string]float64
	prefetchDays int
	prefetchConc int
	prefetchSyms []string
	cacheCleared bool
}

func (m *mockMarketData) GetHistoricalBars(ctx context.Context, symbol string, days int) ([]domain.Candle, error) {
	return nil, nil
}

func (m *mockMarketData) AverageCandleRange(ctx context.Context, symbol string, lookbackDays int) (float64, error) {
	avg, ok := m.ranges[symbol]
	if !ok {
		return 0, ports.ErrInsufficientData
	}
	return avg, nil
}

func (m *mockMarketData) GapInfo(ctx context.Context, symbol string) (domain.GapInfo, error) {
	gap, ok := m.gaps[symbol]
	if !ok {
		return domain.GapInfo{}, fmt.Errorf("fetch bars for %s: %w", symbol, ports.ErrDataUnavailable)
	}
	return gap, nil
}

func (m *mockMarketData) Prefetch(ctx context.Context, symbols []string, days, concurrency int) {
	m.prefetchSyms = symbols
	m.prefetchDays = days
	m.prefetchConc = concurrency
}

func (m *mockMarketData) ClearCache() { m.cacheCleared = true }

type mockJournal struct {
	recorded []domain.RunResult
	err      error
}

func (m *mockJournal) RecordRun(ctx context.Context, result *domain.RunResult) error {
	m.recorded = append(m.recorded, *result)
	return m.err
}

func (m *mockJournal) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	out := make([]*domain.RunRecord, 0, len(m.recorded))
	for i := len(m.recorded) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.recorded[i]
		out = append(out, &domain.RunRecord{RunID: r.RunID, Strategy: r.Strategy, Summary: r.Summary})
	}
	return out, nil
}

func (m *mockJournal) SignalsForRun(ctx context.Context, runID string) ([]domain.TradeSignal, error) {
	for _, r := range m.recorded {
		if r.RunID == runID {
			return r.Signals, nil
		}
	}
	return nil, nil
}

type fixture struct {
	svc     *TradingService
	logger  *mockLogger
	account *mockAccount
	orders  *mockOrders
	data    *mockMarketData
	journal *mockJournal
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		logger:  &mockLogger{},
		account: &mockAccount{account: &ports.Account{BuyingPower: 10000, Cash: 10000, Status: "ACTIVE"}},
		orders:  &mockOrders{},
		data: &mockMarketData{
			gaps: map[string]domain.GapInfo{
				"AAPL": {PreviousClose: 200, CurrentOpen: 190, GapPercent: -5},
				"MSFT": {PreviousClose: 400, CurrentOpen: 402, GapPercent: 0.5},
			},
			ranges: map[string]float64{"AAPL": 4, "MSFT": 6},
		},
		journal: &mockJournal{},
	}

	strat, err := strategy.NewGapDown(0.05, 5, f.logger)
	require.NoError(t, err)
	exec, err := execution.NewExecutor(f.orders, f.logger)
	require.NoError(t, err)
	f.reg = prometheus.NewRegistry()
	m, err := metrics.New(f.reg)
	require.NoError(t, err)

	f.svc, err = NewTradingService(cfg, f.logger, f.account, f.data, strat, exec, f.journal, m)
	require.NoError(t, err)
	f.svc.newID = func() string { return "run-1" }
	f.svc.now = func() time.Time { return time.Date(2025, 3, 7, 14, 35, 0, 0, time.UTC) }
	return f
}

// counter reads a counter sample from the fixture's registry.
func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func boolPtr(b bool) *bool { return &b }

func TestNewTradingService_Validation(t *testing.T) {
	_, err := NewTradingService(Config{}, nil, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestInvoke_DryRunFromConfig(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL", "MSFT"}})

	res := f.svc.Invoke(context.Background(), domain.RunEvent{})

	require.False(t, res.Failed())
	assert.Equal(t, 200, res.StatusCode())
	assert.Equal(t, "run-1", res.RunID)
	assert.True(t, res.DryRun)
	assert.Equal(t, "Simple Gap-Down Strategy", res.Strategy)
	assert.Equal(t, domain.RunSummary{TotalSymbols: 2, Trades: 1, Skips: 1}, res.Summary)
	require.Len(t, res.Signals, 2)
	assert.Equal(t, "AAPL", res.Signals[0].Symbol)
	assert.True(t, res.Signals[0].ShouldTrade)
	require.Len(t, res.Orders, 1)
	assert.True(t, res.Orders[0].DryRun)
	assert.Equal(t, domain.Bracket, res.Orders[0].Class)
	assert.Empty(t, f.orders.submitted)

	require.Len(t, f.journal.recorded, 1)
	assert.Equal(t, "run-1", f.journal.recorded[0].RunID)
}

func TestInvoke_EventOverridesConfig(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"MSFT"}})

	res := f.svc.Invoke(context.Background(), domain.RunEvent{DryRun: boolPtr(false), Watchlist: domain.Watchlist{" aapl "}})

	require.False(t, res.Failed())
	assert.False(t, res.DryRun)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "AAPL", res.Signals[0].Symbol)

	require.Len(t, f.orders.submitted, 1)
	req := f.orders.submitted[0]
	assert.Equal(t, domain.Bracket, req.Class)
	assert.InDelta(t, 500.0, req.Notional, 1e-9)
	assert.InDelta(t, 194.0, req.TakeProfitPrice, 1e-9)
	assert.InDelta(t, 186.0, req.StopLossPrice, 1e-9)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "ord-AAPL", res.Orders[0].OrderID)
}

func TestInvoke_OrderFailureIsIsolated(t *testing.T) {
	f := newFixture(t, Config{DryRun: false, Watchlist: []string{"AAPL"}})
	f.orders.err = fmt.Errorf("PlaceOrder failed: %w", ports.ErrInsufficientFunds)

	res := f.svc.Invoke(context.Background(), domain.RunEvent{})

	require.False(t, res.Failed())
	require.Len(t, res.Orders, 1)
	assert.True(t, res.Orders[0].Failed())
	assert.Contains(t, res.Orders[0].Error, "insufficient funds")
	assert.Equal(t, 1.0, f.counter(t, "daybot_orders_total", map[string]string{"mode": "live", "class": "bracket", "result": "failed"}))
}

func TestInvoke_AccountStates(t *testing.T) {
	tests := []struct {
		name        string
		account     *mockAccount
		wantFailed  bool
		wantErrType string
	}{
		{
			name:        "account unavailable",
			account:     &mockAccount{err: errors.New("connection refused")},
			wantFailed:  true,
			wantErrType: "AccountUnavailable",
		},
		{
			name:        "adapter already classified",
			account:     &mockAccount{err: fmt.Errorf("GetAccount failed: %w: %w", ports.ErrAccountUnavailable, ports.ErrAuthenticationFailed)},
			wantFailed:  true,
			wantErrType: "AccountUnavailable",
		},
		{
			name:        "panic in provider",
			account:     &mockAccount{panics: true},
			wantFailed:  true,
			wantErrType: "Unhandled",
		},
		{
			name:    "trading blocked",
			account: &mockAccount{account: &ports.Account{BuyingPower: 10000, TradingBlocked: true}},
		},
		{
			name:    "no buying power",
			account: &mockAccount{account: &ports.Account{BuyingPower: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{DryRun: false, Watchlist: []string{"AAPL", "MSFT"}})
			f.svc.account = tt.account

			res := f.svc.Invoke(context.Background(), domain.RunEvent{})

			assert.Equal(t, tt.wantFailed, res.Failed())
			assert.Equal(t, tt.wantErrType, res.ErrorType)
			assert.Empty(t, res.Signals)
			assert.Empty(t, res.Orders)
			assert.Empty(t, f.orders.submitted)
			require.Len(t, f.journal.recorded, 1)
			if tt.wantFailed {
				assert.Equal(t, 500, res.StatusCode())
			} else {
				assert.Equal(t, 200, res.StatusCode())
				assert.Equal(t, domain.RunSummary{}, res.Summary)
			}
		})
	}
}

func TestInvoke_DataErrorsBecomeSkips(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"ZZZZ", "AAPL"}})

	res := f.svc.Invoke(context.Background(), domain.RunEvent{})

	require.False(t, res.Failed())
	require.Len(t, res.Signals, 2)
	assert.False(t, res.Signals[0].ShouldTrade)
	assert.Contains(t, res.Signals[0].Reason, "Error: fetch bars for ZZZZ")
	assert.True(t, res.Signals[1].ShouldTrade)
}

func TestInvoke_JournalFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL"}})
	f.journal.err = errors.New("disk full")

	res := f.svc.Invoke(context.Background(), domain.RunEvent{})

	assert.False(t, res.Failed())
	assert.Contains(t, f.logger.errorMsgs, "Failed to journal run")
}

func TestInvoke_Prefetch(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL", "MSFT"}, PrefetchConcurrency: 3})

	f.svc.Invoke(context.Background(), domain.RunEvent{})

	assert.Equal(t, []string{"AAPL", "MSFT"}, f.data.prefetchSyms)
	assert.Equal(t, 5, f.data.prefetchDays)
	assert.Equal(t, 3, f.data.prefetchConc)
	assert.True(t, f.data.cacheCleared)
}

func TestInvoke_NoPrefetchByDefault(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL"}})

	f.svc.Invoke(context.Background(), domain.RunEvent{})

	assert.Nil(t, f.data.prefetchSyms)
	assert.False(t, f.data.cacheCleared)
}

func TestInvoke_EmptyWatchlist(t *testing.T) {
	f := newFixture(t, Config{DryRun: true})

	res := f.svc.Invoke(context.Background(), domain.RunEvent{Watchlist: domain.Watchlist{" "}})

	assert.True(t, res.Failed())
	assert.Equal(t, "ConfigurationError", res.ErrorType)
}

func TestInvoke_Metrics(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL", "MSFT"}})

	f.svc.Invoke(context.Background(), domain.RunEvent{})
	f.svc.account = &mockAccount{err: errors.New("down")}
	f.svc.Invoke(context.Background(), domain.RunEvent{})

	assert.Equal(t, 1.0, f.counter(t, "daybot_runs_total", map[string]string{"result": "success"}))
	assert.Equal(t, 1.0, f.counter(t, "daybot_runs_total", map[string]string{"result": "failure"}))
	assert.Equal(t, 1.0, f.counter(t, "daybot_orders_total", map[string]string{"mode": "dry_run", "class": "bracket", "result": "simulated"}))
	assert.Equal(t, 1.0, f.counter(t, "daybot_signals_total", map[string]string{"strategy": "Simple Gap-Down Strategy", "decision": "trade"}))
}

func TestRecentRuns(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL"}})
	f.svc.Invoke(context.Background(), domain.RunEvent{})

	runs, err := f.svc.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)

	f.svc.journal = nil
	runs, err = f.svc.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunSignals(t *testing.T) {
	f := newFixture(t, Config{DryRun: true, Watchlist: []string{"AAPL", "MSFT"}})
	result := f.svc.Invoke(context.Background(), domain.RunEvent{})
	require.False(t, result.Failed())

	signals, err := f.svc.RunSignals(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Signals, signals)

	signals, err = f.svc.RunSignals(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, signals)
	assert.Empty(t, signals)

	f.svc.journal = nil
	signals, err = f.svc.RunSignals(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Empty(t, signals)
}
