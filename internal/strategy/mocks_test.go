package strategy

import (
	"context"
	"fmt"
	"time"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

type mockLogger struct {
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// mockMarketData serves canned figures per symbol. Symbols without an entry
// report insufficient data.
type mockMarketData struct {
	gaps    map[string]domain.GapInfo
	ranges  map[string]float64
	bars    map[string][]domain.Candle
	errs    map[string]error
	lookups []string
}

func (m *mockMarketData) GetHistoricalBars(ctx context.Context, symbol string, days int) ([]domain.Candle, error) {
	m.lookups = append(m.lookups, symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	bars := m.bars[symbol]
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (m *mockMarketData) AverageCandleRange(ctx context.Context, symbol string, lookbackDays int) (float64, error) {
	if err := m.errs[symbol]; err != nil {
		return 0, err
	}
	avg, ok := m.ranges[symbol]
	if !ok {
		return 0, fmt.Errorf("average range for %s: %w", symbol, ports.ErrInsufficientData)
	}
	return avg, nil
}

func (m *mockMarketData) GapInfo(ctx context.Context, symbol string) (domain.GapInfo, error) {
	m.lookups = append(m.lookups, symbol)
	if err := m.errs[symbol]; err != nil {
		return domain.GapInfo{}, err
	}
	gap, ok := m.gaps[symbol]
	if !ok {
		return domain.GapInfo{}, fmt.Errorf("gap info for %s: %w", symbol, ports.ErrInsufficientData)
	}
	return gap, nil
}

func gapInfo(prevClose, open float64) domain.GapInfo {
	return domain.GapInfo{PreviousClose: prevClose, CurrentOpen: open, GapPercent: (open - prevClose) / prevClose * 100}
}

// closes builds daily candles with the given closes and a fixed range
// percentage around each close.
func closes(rangePct float64, values ...float64) []domain.Candle {
	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, len(values))
	for i, c := range values {
		half := c * rangePct / 100 / 2
		out[i] = domain.Candle{Timestamp: start.AddDate(0, 0, i), Open: c, High: c + half, Low: c - half, Close: c}
	}
	return out
}
