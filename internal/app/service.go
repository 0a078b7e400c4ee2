package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/execution"
	"equityDayBot/internal/metrics"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/strategy"
)

// Config holds the run defaults the service falls back to when an event
// does not override them.
type Config struct {
	DryRun              bool
	Watchlist           []string
	RunTimeout          time.Duration // Zero disables the deadline
	PrefetchConcurrency int           // Zero disables prefetching
}

// prefetcher is implemented by market data sources that can warm a per-run cache.
type prefetcher interface {
	Prefetch(ctx context.Context, symbols []string, days, concurrency int)
	ClearCache()
}

// TradingService orchestrates a single bot run: read the account, evaluate
// the watchlist, execute the accepted signals.
type TradingService struct {
	cfg      Config
	logger   ports.Logger
	account  ports.AccountProvider
	data     ports.MarketData
	strategy ports.Strategy
	executor *execution.Executor
	journal  ports.RunJournal // Optional
	metrics  *metrics.Metrics // Optional

	mu    sync.Mutex // Serializes runs
	now   func() time.Time
	newID func() string
}

// NewTradingService creates a new application service instance.
// journal and m may be nil.
func NewTradingService(
	cfg Config,
	logger ports.Logger,
	account ports.AccountProvider,
	data ports.MarketData,
	strat ports.Strategy,
	executor *execution.Executor,
	journal ports.RunJournal,
	m *metrics.Metrics,
) (*TradingService, error) {
	if logger == nil || account == nil || data == nil || strat == nil || executor == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}
	if cfg.RunTimeout < 0 {
		return nil, fmt.Errorf("run timeout cannot be negative: %w", ports.ErrConfigurationError)
	}
	return &TradingService{
		cfg:      cfg,
		logger:   logger,
		account:  account,
		data:     data,
		strategy: strat,
		executor: executor,
		journal:  journal,
		metrics:  m,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// StrategyName returns the display name of the configured strategy.
func (s *TradingService) StrategyName() string {
	return s.strategy.Name()
}

// Run executes the workflow for one trading session. An account that cannot
// trade, or has no buying power, yields no signals and no orders. Only a
// failure to read the account is returned as an error.
func (s *TradingService) Run(ctx context.Context, watchlist []string, dryRun bool) ([]domain.TradeSignal, []domain.OrderOutcome, error) {
	s.logger.Info(ctx, "Starting bot run", map[string]interface{}{
		"strategy": s.strategy.Name(), "symbols": len(watchlist), "dryRun": dryRun,
	})

	acct, err := s.account.GetAccount(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrAccountUnavailable) {
			err = fmt.Errorf("get account: %w: %w", ports.ErrAccountUnavailable, err)
		}
		s.logger.Error(ctx, err, "Failed to retrieve account")
		return nil, nil, err
	}
	if acct == nil {
		return nil, nil, fmt.Errorf("get account: empty response: %w", ports.ErrAccountUnavailable)
	}

	if acct.TradingBlocked {
		s.logger.Error(ctx, errors.New("trading blocked"), "Account is not tradeable. Exiting.", map[string]interface{}{"status": acct.Status})
		return []domain.TradeSignal{}, nil, nil
	}
	s.metrics.SetBuyingPower(acct.BuyingPower)
	if !acct.Tradeable() {
		s.logger.Warn(ctx, "No buying power available. Exiting.", map[string]interface{}{"buyingPower": acct.BuyingPower})
		return []domain.TradeSignal{}, nil, nil
	}
	s.logger.Info(ctx, "Available buying power", map[string]interface{}{"buyingPower": fmt.Sprintf("%.2f", acct.BuyingPower)})

	if pf, ok := s.data.(prefetcher); ok && s.cfg.PrefetchConcurrency > 0 {
		defer pf.ClearCache()
		if depth, ok := s.strategy.(strategy.DataDepth); ok {
			pf.Prefetch(ctx, watchlist, depth.RequiredDataPoints(), s.cfg.PrefetchConcurrency)
		}
	}

	signals := strategy.EvaluateWatchlist(ctx, s.strategy, watchlist, acct.BuyingPower, s.data, s.logger)

	trades := domain.CountTrades(signals)
	if trades == 0 {
		s.logger.Info(ctx, "No trade signals generated")
		return signals, nil, nil
	}
	s.logger.Info(ctx, "Generated trade signals", map[string]interface{}{"trades": trades})

	outcomes := s.executor.ExecuteAll(ctx, signals, dryRun)

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	s.logger.Info(ctx, "Bot run completed", map[string]interface{}{
		"trades": trades, "skips": len(signals) - trades, "ordersFailed": failed,
	})
	return signals, outcomes, nil
}

// Invoke runs the bot for a trigger event and returns a structured result.
// It never panics; any failure is reported in the result.
func (s *TradingService) Invoke(ctx context.Context, evt domain.RunEvent) (result domain.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	result = domain.RunResult{
		RunID:         s.newID(),
		ExecutionTime: start.UTC(),
		Strategy:      s.strategy.Name(),
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during run: %v", r)
			s.logger.Error(ctx, err, "Unhandled panic in bot run")
			result = FailedResult(result.RunID, result.ExecutionTime, err)
		}
		s.finish(ctx, &result, s.now().Sub(start))
	}()

	result.DryRun = s.cfg.DryRun
	if evt.DryRun != nil {
		result.DryRun = *evt.DryRun
	}
	watchlist := domain.NormalizeSymbols(evt.Watchlist)
	if len(watchlist) == 0 {
		watchlist = s.cfg.Watchlist
	}
	if len(watchlist) == 0 {
		return FailedResult(result.RunID, result.ExecutionTime, fmt.Errorf("watchlist is empty: %w", ports.ErrConfigurationError))
	}

	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	signals, outcomes, err := s.Run(runCtx, watchlist, result.DryRun)
	if err != nil {
		return FailedResult(result.RunID, result.ExecutionTime, err)
	}

	result.Signals = signals
	result.Summary = domain.Summarize(signals)
	result.Orders = outcomes
	return result
}

// finish journals and meters a completed run. Journal failures are logged
// and never change the result.
func (s *TradingService) finish(ctx context.Context, result *domain.RunResult, elapsed time.Duration) {
	s.metrics.ObserveRun(*result, elapsed)
	if s.journal == nil {
		return
	}
	// The run context may have expired; the audit write gets its own budget.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.journal.RecordRun(jctx, result); err != nil {
		s.logger.Error(ctx, err, "Failed to journal run", map[string]interface{}{"runID": result.RunID})
	}
}

// RecentRuns returns journaled runs, newest first. Without a journal it
// returns an empty list.
func (s *TradingService) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if s.journal == nil {
		return []*domain.RunRecord{}, nil
	}
	return s.journal.RecentRuns(ctx, limit)
}

// RunSignals returns the journaled signals of runID in evaluation order.
// Without a journal, or for an unknown run, it returns an empty list.
func (s *TradingService) RunSignals(ctx context.Context, runID string) ([]domain.TradeSignal, error) {
	if s.journal == nil {
		return []domain.TradeSignal{}, nil
	}
	signals, err := s.journal.SignalsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if signals == nil {
		signals = []domain.TradeSignal{}
	}
	return signals, nil
}

// FailedResult builds the failure shape of a run result from err.
func FailedResult(runID string, at time.Time, err error) domain.RunResult {
	return domain.RunResult{
		RunID:         runID,
		ExecutionTime: at,
		Error:         err.Error(),
		ErrorType:     ports.ErrorType(err),
	}
}
