package ports

import (
	"context"

	"equityDayBot/internal/domain"
)

// RunJournal is a write-mostly audit trail of completed runs.
// Nothing on the evaluation path reads from it.
type RunJournal interface {
	// RecordRun persists the run result together with its signals and orders.
	RecordRun(ctx context.Context, result *domain.RunResult) error
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)
	// SignalsForRun returns the signals of one run in evaluation order.
	// An unknown run yields an empty slice.
	SignalsForRun(ctx context.Context, runID string) ([]domain.TradeSignal, error)
}

// RunInvoker triggers a single bot run.
type RunInvoker interface {
	Invoke(ctx context.Context, evt domain.RunEvent) domain.RunResult
}
