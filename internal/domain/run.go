package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Watchlist is an ordered list of symbols. When decoded it accepts either a
// sequence or a single comma-separated string.
type Watchlist []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Watchlist) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("watchlist: %w", err)
		}
		*w = NormalizeSymbols(items)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*w = nil
			return nil
		}
		*w = SplitSymbols(node.Value)
	default:
		return fmt.Errorf("watchlist: expected a list or a comma-separated string at line %d", node.Line)
	}
	return nil
}

// SplitSymbols parses a comma-separated symbol list.
func SplitSymbols(s string) []string {
	return NormalizeSymbols(strings.Split(s, ","))
}

// NormalizeSymbols trims and upper-cases symbols, dropping empty entries.
// Order and duplicates are preserved.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunEvent is the trigger payload for a single bot run. Unset fields fall back
// to configuration.
type RunEvent struct {
	DryRun    *bool     `json:"dry_run,omitempty" yaml:"dry_run"`
	Watchlist Watchlist `json:"watchlist,omitempty" yaml:"watchlist"`
}

// ParseRunEvent decodes a JSON or YAML event document. An empty document
// yields the zero event.
func ParseRunEvent(data []byte) (RunEvent, error) {
	var evt RunEvent
	if len(strings.TrimSpace(string(data))) == 0 {
		return evt, nil
	}
	if err := yaml.Unmarshal(data, &evt); err != nil {
		return RunEvent{}, fmt.Errorf("invalid run event: %w", err)
	}
	return evt, nil
}

// RunSummary counts the outcome of a run.
type RunSummary struct {
	TotalSymbols int `json:"total_symbols"`
	Trades       int `json:"trades"`
	Skips        int `json:"skips"`
}

// Summarize counts trades and skips in signals.
func Summarize(signals []TradeSignal) RunSummary {
	trades := CountTrades(signals)
	return RunSummary{
		TotalSymbols: len(signals),
		Trades:       trades,
		Skips:        len(signals) - trades,
	}
}

// RunResult is the structured response of a triggered run. A result carrying
// Error is a failure and only reports the execution time and error fields.
type RunResult struct {
	RunID         string         `json:"run_id"`
	ExecutionTime time.Time      `json:"execution_time"`
	DryRun        bool           `json:"dry_run"`
	Strategy      string         `json:"strategy"`
	Signals       []TradeSignal  `json:"signals"`
	Summary       RunSummary     `json:"summary"`
	Orders        []OrderOutcome `json:"orders,omitempty"`
	Error         string         `json:"error,omitempty"`
	ErrorType     string         `json:"error_type,omitempty"`
}

// Failed reports whether the run failed as a whole.
func (r RunResult) Failed() bool {
	return r.Error != ""
}

// StatusCode maps the result onto an HTTP-style status code.
func (r RunResult) StatusCode() int {
	if r.Failed() {
		return 500
	}
	return 200
}

// MarshalJSON emits the success or failure shape of the result.
func (r RunResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			RunID         string    `json:"run_id"`
			ExecutionTime time.Time `json:"execution_time"`
			Error         string    `json:"error"`
			ErrorType     string    `json:"error_type"`
		}{r.RunID, r.ExecutionTime, r.Error, r.ErrorType})
	}
	type plain RunResult
	p := plain(r)
	if p.Signals == nil {
		p.Signals = []TradeSignal{}
	}
	return json.Marshal(p)
}

// RunRecord is the journaled summary of a past run.
type RunRecord struct {
	RunID         string     `json:"run_id"`
	ExecutionTime time.Time  `json:"execution_time"`
	DryRun        bool       `json:"dry_run"`
	Strategy      string     `json:"strategy"`
	Summary       RunSummary `json:"summary"`
	OrdersFailed  int        `json:"orders_failed"`
	Error         string     `json:"error,omitempty"`
	ErrorType     string     `json:"error_type,omitempty"`
}
