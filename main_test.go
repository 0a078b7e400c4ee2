package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityDayBot/internal/domain"
)

func TestOptionalBool(t *testing.T) {
	var b optionalBool
	assert.Equal(t, "", b.String())
	require.NoError(t, b.Set("false"))
	require.NotNil(t, b.value)
	assert.False(t, *b.value)
	assert.Equal(t, "false", b.String())
	assert.Error(t, b.Set("maybe"))
	assert.True(t, b.IsBoolFlag())
}

func TestBuildEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "event.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dry_run: true\nwatchlist: [aapl, msft]\n"), 0644))
	no, yes := false, true

	tests := []struct {
		name      string
		dryRun    *bool
		symbols   string
		path      string
		stdin     string
		wantDry   *bool
		wantWatch domain.Watchlist
		wantErr   bool
	}{
		{name: "nothing set"},
		{name: "flags only", dryRun: &no, symbols: "nvda, amd", wantDry: &no, wantWatch: domain.Watchlist{"NVDA", "AMD"}},
		{name: "event file", path: path, wantDry: &yes, wantWatch: domain.Watchlist{"AAPL", "MSFT"}},
		{name: "flags override file", path: path, dryRun: &no, symbols: "TSLA", wantDry: &no, wantWatch: domain.Watchlist{"TSLA"}},
		{name: "stdin json", path: "-", stdin: `{"watchlist": "spy,qqq"}`, wantWatch: domain.Watchlist{"SPY", "QQQ"}},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: true},
		{name: "bad document", path: "-", stdin: `{"watchlist": {"x": 1}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := buildEvent(tt.dryRun, tt.symbols, tt.path, strings.NewReader(tt.stdin))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDry, evt.DryRun)
			if tt.wantWatch == nil {
				assert.Empty(t, evt.Watchlist)
			} else {
				assert.Equal(t, tt.wantWatch, evt.Watchlist)
			}
		})
	}
}

// offlineEnv points the CLI at an empty CSV directory in dry-run mode.
func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_PROVIDER", "csv")
	t.Setenv("CSV_DATA_DIR", t.TempDir())
	t.Setenv("DRY_RUN", "true")
	t.Setenv("STRATEGY", "gap_down")
	t.Setenv("CASH_ALLOCATION_PERCENT", "0.05")
	t.Setenv("JOURNAL_DB_PATH", "")
	t.Setenv("LOG_LEVEL", "ERROR")
}

func TestRun_SetupFailuresPrintFailureResult(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		wantType string
		wantErr  string
	}{
		{
			name:     "invalid configuration",
			env:      map[string]string{"CASH_ALLOCATION_PERCENT": "2"},
			wantType: "ConfigurationError",
			wantErr:  "CASH_ALLOCATION_PERCENT must be in (0.0, 1.0]",
		},
		{
			name:     "unknown strategy",
			env:      map[string]string{"STRATEGY": "martingale"},
			wantType: "ConfigurationError",
			wantErr:  "unknown STRATEGY",
		},
		{
			name:     "unreadable event",
			args:     []string{"-event", filepath.Join(os.TempDir(), "no-such-event.yaml")},
			wantType: "Unhandled",
			wantErr:  "invalid run event",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offlineEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var out bytes.Buffer
			code := run(tt.args, strings.NewReader(""), &out)
			assert.Equal(t, 1, code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
			assert.NotEmpty(t, body["run_id"])
			assert.NotEmpty(t, body["execution_time"])
			assert.Equal(t, tt.wantType, body["error_type"])
			assert.Contains(t, body["error"], tt.wantErr)
			assert.NotContains(t, body, "signals")
		})
	}
}

func TestRun_BadFlag(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run([]string{"-dry-run=perhaps"}, strings.NewReader(""), &out))
	assert.Empty(t, out.String())
}
