// Package bootstrap wires configuration into a ready trading service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"equityDayBot/config"
	"equityDayBot/internal/adapters/alpacaclient"
	"equityDayBot/internal/adapters/binanceclient"
	"equityDayBot/internal/adapters/csvdata"
	"equityDayBot/internal/adapters/logger"
	"equityDayBot/internal/adapters/sqlite"
	"equityDayBot/internal/app"
	"equityDayBot/internal/execution"
	"equityDayBot/internal/marketdata"
	"equityDayBot/internal/metrics"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/strategy"
)

// App bundles the service with the resources that must be released on exit.
type App struct {
	Service  *app.TradingService
	Registry *prometheus.Registry
	Provider ports.MarketDataProvider
	closers  []func() error
}

// Close releases the journal and any other held resources.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build constructs every component named by cfg.
func Build(cfg *config.Config, log *logger.StdLogger) (*App, error) {
	ctx := context.Background()
	a := &App{Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.New(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	var (
		account ports.AccountProvider
		orders  ports.OrderExecutor
		broker  *alpacaclient.Client
	)
	if cfg.HasBrokerCredentials() {
		broker, err = alpacaclient.New(alpacaclient.Config{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaAPISecret,
			Paper:     cfg.PaperTrading,
			Feed:      cfg.DataFeed,
			Logger:    log.Named("alpaca"),
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Alpaca client: %w", err)
		}
		account, orders = broker, broker
	} else {
		log.Warn(ctx, "No broker credentials, using a static offline account", map[string]interface{}{
			"buyingPower": cfg.OfflineBuyingPower,
		})
		account = csvdata.StaticAccount{BuyingPower: cfg.OfflineBuyingPower}
	}

	a.Provider, err = newProvider(cfg, broker, log)
	if err != nil {
		return nil, err
	}

	fetcher, err := marketdata.NewFetcher(a.Provider, log.Named("marketdata"), marketdata.Config{
		MaxRetries: cfg.DataMaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize market data: %w", err)
	}

	strat, err := strategy.New(cfg.Strategy, strategy.Config{
		CashAllocationPercent:   cfg.CashAllocationPercent,
		LookbackDays:            cfg.LookbackDays,
		MomentumLookbackDays:    cfg.MomentumLookbackDays,
		MomentumMinGainPercent:  cfg.MomentumMinGainPercent,
		LowVolatilityMaxPercent: cfg.LowVolatilityMaxPercent,
	}, log.Named("strategy"))
	if err != nil {
		return nil, fmt.Errorf("initialize strategy: %w", err)
	}

	executor, err := execution.NewExecutor(orders, log.Named("execution"))
	if err != nil {
		return nil, fmt.Errorf("initialize executor: %w", err)
	}

	var journal ports.RunJournal = sqlite.NoopJournal{}
	if cfg.JournalDBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.JournalDBPath, Logger: log.Named("journal")})
		if err != nil {
			return nil, fmt.Errorf("initialize run journal: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		journal = repo
	}

	a.Service, err = app.NewTradingService(app.Config{
		DryRun:              cfg.DryRun,
		Watchlist:           cfg.Watchlist,
		RunTimeout:          cfg.RunTimeout,
		PrefetchConcurrency: cfg.PrefetchConcurrency,
	}, log.Named("service"), account, fetcher, strat, executor, journal, m)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize trading service: %w", err)
	}

	log.Info(ctx, "Trading service initialized", map[string]interface{}{
		"strategy": strat.Name(), "description": strat.Description(), "provider": cfg.DataProvider, "dryRun": cfg.DryRun,
		"paper": cfg.PaperTrading, "watchlist": len(cfg.Watchlist),
	})
	return a, nil
}

// NewProvider builds the market data provider selected by cfg.DataProvider.
func NewProvider(cfg *config.Config, log *logger.StdLogger) (ports.MarketDataProvider, error) {
	var broker *alpacaclient.Client
	if cfg.DataProvider == config.ProviderAlpaca {
		var err error
		broker, err = alpacaclient.New(alpacaclient.Config{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaAPISecret,
			Paper:     cfg.PaperTrading,
			Feed:      cfg.DataFeed,
			Logger:    log.Named("alpaca"),
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Alpaca client: %w", err)
		}
	}
	return newProvider(cfg, broker, log)
}

func newProvider(cfg *config.Config, broker *alpacaclient.Client, log *logger.StdLogger) (ports.MarketDataProvider, error) {
	switch cfg.DataProvider {
	case config.ProviderAlpaca:
		if broker == nil {
			return nil, fmt.Errorf("alpaca data provider needs broker credentials: %w", ports.ErrConfigurationError)
		}
		return broker, nil
	case config.ProviderBinance:
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceAPISecret,
			UseTestnet: cfg.IsTestnet,
			Logger:     log.Named("binance"),
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Binance client: %w", err)
		}
		return client, nil
	case config.ProviderCSV:
		p, err := csvdata.NewProvider(cfg.CSVDataDir, log.Named("csvdata"))
		if err != nil {
			return nil, fmt.Errorf("initialize CSV provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q: %w", cfg.DataProvider, ports.ErrConfigurationError)
	}
}
