package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/adapters/reports"
	"github.com/LC1207/mint-amazon-tagger/internal/application/tagging"
	"github.com/LC1207/mint-amazon-tagger/internal/cli"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/config"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/logging"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

func main() {
	// Parse flags
	flags := cli.ParseTagFlags()

	// Load configuration
	cfg := loadConfig(flags.ConfigFile)
	if flags.Verbose {
		cfg.Observability.Logging.Level = slog.LevelDebug.String()
	}

	// Setup logging
	logger := logging.NewLogger(cfg.Observability.Logging)

	if flags.ItemsCSV == "" || flags.OrdersCSV == "" {
		logger.Error("Both -items and -orders report paths are required")
		os.Exit(1)
	}
	if cfg.Ledger.Token == "" {
		logger.Error("Ledger token not configured; set LEDGER_TOKEN or ledger.token")
		os.Exit(1)
	}

	// Read the order history reports
	items, err := readItems(flags.ItemsCSV)
	if err != nil {
		logger.Error("Failed to read items report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	orders, err := readOrders(flags.OrdersCSV)
	if err != nil {
		logger.Error("Failed to read orders report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var refunds []*report.Refund
	if flags.RefundsCSV != "" {
		refunds, err = readRefunds(flags.RefundsCSV)
		if err != nil {
			logger.Error("Failed to read refunds report", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// Initialize the ledger client
	client := ledger.NewHTTPClient(cfg.Ledger.BaseURL, cfg.Ledger.Token, logger)

	opts := flags.ToOptions(cfg)

	cli.PrintHeader(opts.DryRun)
	cli.PrintConfiguration(opts, len(items), len(orders), len(refunds))

	orchestrator := tagging.NewOrchestrator(client, store, logger)

	result, err := orchestrator.Run(context.Background(), items, orders, refunds, opts)
	if err != nil {
		logger.Error("Tagging run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if opts.DryRun {
		cli.PrintProposed(result.Results)
	}
	cli.PrintRunSummary(result, store, opts.DryRun)
}

func readItems(path string) ([]*report.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reports.ReadItems(f)
}

func readOrders(path string) ([]*report.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reports.ReadOrders(f)
}

func readRefunds(path string) ([]*report.Refund, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reports.ReadRefunds(f)
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			slog.Error("Failed to load config file",
				slog.String("file", configFile),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadOrEnv()
}
