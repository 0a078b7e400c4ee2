package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log" // Last resort when stdout cannot carry the result
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"equityDayBot/config"
	"equityDayBot/internal/adapters/logger"
	"equityDayBot/internal/app"
	"equityDayBot/internal/bootstrap"
	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// optionalBool is a bool flag that remembers whether it was set.
type optionalBool struct {
	value *bool
}

func (b *optionalBool) String() string {
	if b.value == nil {
		return ""
	}
	return strconv.FormatBool(*b.value)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.value = &v
	return nil
}

func (b *optionalBool) IsBoolFlag() bool { return true }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run performs one bot run and writes the result as JSON to stdout. Setup
// failures are reported in the same failure shape as a failed run. It
// returns the process exit code.
func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("daybot", flag.ContinueOnError)
	var dryRun optionalBool
	fs.Var(&dryRun, "dry-run", "Override DRY_RUN for this run (true|false)")
	symbols := fs.String("symbols", "", "Comma-separated watchlist overriding WATCHLIST")
	eventPath := fs.String("event", "", "Path to a JSON or YAML run event ('-' reads stdin)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return writeFailure(stdout, fmt.Errorf("load configuration: %w", err))
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Build the run event
	evt, err := buildEvent(dryRun.value, *symbols, *eventPath, stdin)
	if err != nil {
		appLogger.Error(context.Background(), err, "Invalid run event")
		return writeFailure(stdout, fmt.Errorf("invalid run event: %w: %w", ports.ErrInvalidRequest, err))
	}

	// 4. Wire the service
	bot, err := bootstrap.Build(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "Failed to initialize trading service")
		return writeFailure(stdout, err)
	}

	// 5. Run once
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result := bot.Service.Invoke(ctx, evt)
	stop()

	if err := bot.Close(); err != nil {
		appLogger.Error(context.Background(), err, "Error closing resources")
	}

	if err := writeResult(stdout, result); err != nil {
		log.Printf("ERROR: Failed to encode result: %v", err) // Stdout is unusable, fall back to stderr
		return 1
	}
	if result.Failed() {
		return 1
	}
	return 0
}

func writeFailure(w io.Writer, err error) int {
	if encErr := writeResult(w, app.FailedResult(uuid.NewString(), time.Now().UTC(), err)); encErr != nil {
		log.Printf("ERROR: %v (result encoding failed: %v)", err, encErr)
	}
	return 1
}

func writeResult(w io.Writer, result domain.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildEvent merges an optional event document with command-line overrides.
// Flags win over the document.
func buildEvent(dryRun *bool, symbols, eventPath string, stdin io.Reader) (domain.RunEvent, error) {
	var evt domain.RunEvent
	if eventPath != "" {
		var (
			data []byte
			err  error
		)
		if eventPath == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(eventPath)
		}
		if err != nil {
			return domain.RunEvent{}, fmt.Errorf("read event %s: %w", eventPath, err)
		}
		if evt, err = domain.ParseRunEvent(data); err != nil {
			return domain.RunEvent{}, err
		}
	}
	if dryRun != nil {
		evt.DryRun = dryRun
	}
	if list := domain.SplitSymbols(symbols); len(list) > 0 {
		evt.Watchlist = list
	}
	return evt, nil
}
