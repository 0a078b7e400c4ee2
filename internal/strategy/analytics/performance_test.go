package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityDayBot/internal/domain"
)

func run(id string, at time.Time, trades, skips int) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:         id,
		ExecutionTime: at,
		DryRun:        true,
		Summary:       domain.RunSummary{TotalSymbols: trades + skips, Trades: trades, Skips: skips},
	}
}

func failed(id string, at time.Time, errType string) *domain.RunRecord {
	return &domain.RunRecord{RunID: id, ExecutionTime: at, Error: "boom", ErrorType: errType}
}

func TestAnalyzeRuns(t *testing.T) {
	base := time.Date(2025, 2, 27, 14, 35, 0, 0, time.UTC)
	// Newest first, as the journal returns them
	records := []*domain.RunRecord{
		failed("r6", base.AddDate(0, 0, 6), "DataUnavailable"),
		run("r5", base.AddDate(0, 0, 5), 0, 5),
		failed("r4", base.AddDate(0, 0, 4), "AccountUnavailable"),
		failed("r3", base.AddDate(0, 0, 3), "AccountUnavailable"),
		run("r2", base.AddDate(0, 0, 2), 2, 3),
		run("r1", base, 1, 4),
	}
	records[4].OrdersFailed = 1

	m := AnalyzeRuns(records)

	assert.Equal(t, 6, m.TotalRuns)
	assert.Equal(t, 3, m.SuccessfulRuns)
	assert.Equal(t, 3, m.FailedRuns)
	assert.Equal(t, 3, m.DryRuns)
	assert.InDelta(t, 0.5, m.SuccessRate, 1e-9)
	assert.Equal(t, 15, m.SymbolsEvaluated)
	assert.Equal(t, 3, m.Trades)
	assert.Equal(t, 12, m.Skips)
	assert.InDelta(t, 0.2, m.TradeRate, 1e-9)
	assert.Equal(t, 1, m.OrdersFailed)
	assert.Equal(t, 2, m.MaxConsecutiveFailures)
	assert.Equal(t, 1, m.CurrentFailureStreak)
	assert.Equal(t, map[string]int{"AccountUnavailable": 2, "DataUnavailable": 1}, m.ErrorTypes)
	assert.Equal(t, base, m.FirstRun)
	assert.Equal(t, base.AddDate(0, 0, 6), m.LastRun)

	// Input order is untouched
	assert.Equal(t, "r6", records[0].RunID)

	monthly := m.GetMonthlyTrades()
	require.Len(t, monthly, 2)
	assert.Equal(t, time.February, monthly[0].Month.Month())
	assert.Equal(t, 1, monthly[0].Trades)
	assert.Equal(t, time.March, monthly[1].Month.Month())
	assert.Equal(t, 2, monthly[1].Trades)
}

func TestAnalyzeRuns_Empty(t *testing.T) {
	for _, records := range [][]*domain.RunRecord{nil, {nil}} {
		m := AnalyzeRuns(records)
		assert.Zero(t, m.TotalRuns)
		assert.Zero(t, m.SuccessRate)
		assert.Empty(t, m.GetMonthlyTrades())
	}
}
