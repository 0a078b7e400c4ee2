package analytics

import (
	"sort"
	"time"

	"equityDayBot/internal/domain"
)

// RunMetrics summarizes a window of journaled runs.
type RunMetrics struct {
	// Basic Metrics
	TotalRuns      int     `json:"total_runs"`
	SuccessfulRuns int     `json:"successful_runs"`
	FailedRuns     int     `json:"failed_runs"`
	DryRuns        int     `json:"dry_runs"`
	SuccessRate    float64 `json:"success_rate"`

	// Signal Metrics
	SymbolsEvaluated int     `json:"symbols_evaluated"`
	Trades           int     `json:"trades"`
	Skips            int     `json:"skips"`
	TradeRate        float64 `json:"trade_rate"` // Trades per evaluated symbol
	OrdersFailed     int     `json:"orders_failed"`

	// Streaks
	MaxConsecutiveFailures int `json:"max_consecutive_failures"`
	CurrentFailureStreak   int `json:"current_failure_streak"`

	ErrorTypes    map[string]int `json:"error_types"`
	MonthlyTrades map[string]int `json:"monthly_trades"`
	FirstRun      time.Time      `json:"first_run"`
	LastRun       time.Time      `json:"last_run"`
}

// AnalyzeRuns computes run metrics. records may be in any order; the input
// slice is not modified.
func AnalyzeRuns(records []*domain.RunRecord) *RunMetrics {
	metrics := &RunMetrics{
		ErrorTypes:    make(map[string]int),
		MonthlyTrades: make(map[string]int),
	}

	runs := make([]*domain.RunRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			runs = append(runs, r)
		}
	}
	if len(runs) == 0 {
		return metrics
	}

	// Oldest first, so streaks follow time
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].ExecutionTime.Before(runs[j].ExecutionTime)
	})

	streak := 0
	for _, run := range runs {
		metrics.TotalRuns++
		if run.DryRun {
			metrics.DryRuns++
		}

		if run.Error != "" {
			metrics.FailedRuns++
			metrics.ErrorTypes[run.ErrorType]++
			streak++
			if streak > metrics.MaxConsecutiveFailures {
				metrics.MaxConsecutiveFailures = streak
			}
			continue
		}
		streak = 0

		metrics.SuccessfulRuns++
		metrics.SymbolsEvaluated += run.Summary.TotalSymbols
		metrics.Trades += run.Summary.Trades
		metrics.Skips += run.Summary.Skips
		metrics.OrdersFailed += run.OrdersFailed
		metrics.MonthlyTrades[run.ExecutionTime.UTC().Format("2006-01")] += run.Summary.Trades
	}
	metrics.CurrentFailureStreak = streak

	metrics.FirstRun = runs[0].ExecutionTime
	metrics.LastRun = runs[len(runs)-1].ExecutionTime
	metrics.SuccessRate = float64(metrics.SuccessfulRuns) / float64(metrics.TotalRuns)
	if metrics.SymbolsEvaluated > 0 {
		metrics.TradeRate = float64(metrics.Trades) / float64(metrics.SymbolsEvaluated)
	}
	return metrics
}

// GetMonthlyTrades returns the monthly trade counts as a sorted slice.
func (m *RunMetrics) GetMonthlyTrades() []MonthlyTrades {
	out := make([]MonthlyTrades, 0, len(m.MonthlyTrades))
	for month, n := range m.MonthlyTrades {
		date, _ := time.Parse("2006-01", month)
		out = append(out, MonthlyTrades{Month: date, Trades: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// MonthlyTrades is the number of trade signals in one calendar month.
type MonthlyTrades struct {
	Month  time.Time `json:"month"`
	Trades int       `json:"trades"`
}
