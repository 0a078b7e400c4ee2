package sqlite

import (
	"context"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

var (
	_ ports.RunJournal = (*Repository)(nil)
	_ ports.RunJournal = NoopJournal{}
)

// NoopJournal discards runs. It stands in when no database path is configured.
type NoopJournal struct{}

func (NoopJournal) RecordRun(ctx context.Context, result *domain.RunResult) error { return nil }

func (NoopJournal) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	return nil, nil
}

func (NoopJournal) SignalsForRun(ctx context.Context, runID string) ([]domain.TradeSignal, error) {
	return nil, nil
}
