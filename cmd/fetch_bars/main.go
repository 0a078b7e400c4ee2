package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"equityDayBot/config"
	"equityDayBot/internal/adapters/logger"
	"equityDayBot/internal/bootstrap"
	"equityDayBot/internal/domain"
	"equityDayBot/internal/utils"
)

func main() {
	symbols := flag.String("symbols", "", "Comma-separated symbols (default WATCHLIST)")
	days := flag.Int("days", 90, "Calendar days of history to fetch")
	outDir := flag.String("out", "", "Output directory (default CSV_DATA_DIR)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}
	if cfg.DataProvider == config.ProviderCSV {
		log.Fatalf("FATAL: DATA_PROVIDER=csv cannot be used as an export source")
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	// 3. Initialize the market data provider
	provider, err := bootstrap.NewProvider(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data provider")
		log.Fatalf("FATAL: Failed to initialize market data provider: %v", err)
	}

	list := domain.SplitSymbols(*symbols)
	if len(list) == 0 {
		list = cfg.Watchlist
	}
	dir := *outDir
	if dir == "" {
		dir = cfg.CSVDataDir
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)
	failed := 0
	for _, symbol := range list {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
		bars, err := provider.FetchBars(ctx, symbol, start, end, domain.Daily)
		cancel()
		if err != nil {
			appLogger.Error(context.Background(), err, "Error fetching bars", map[string]interface{}{"symbol": symbol})
			failed++
			continue
		}

		filename := utils.CandleFileName(dir, symbol)
		if err := utils.WriteCandlesToCSV(bars, filename); err != nil {
			appLogger.Error(context.Background(), err, "Error writing CSV", map[string]interface{}{"symbol": symbol})
			failed++
			continue
		}
		appLogger.Info(context.Background(), "Saved bars", map[string]interface{}{"symbol": symbol, "count": len(bars), "filename": filename})
	}

	if failed > 0 {
		log.Fatalf("FATAL: %d of %d symbols failed", failed, len(list))
	}
	fmt.Printf("Exported %d symbols to %s\n", len(list), dir)
}
