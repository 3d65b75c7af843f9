// Package cli holds flag parsing and console output for the tagger
// commands.
package cli

import (
	"flag"

	"github.com/LC1207/mint-amazon-tagger/internal/application/tagging"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/config"
)

// TagFlags are the command line flags of the tagger command.
type TagFlags struct {
	ConfigFile string

	ItemsCSV   string
	OrdersCSV  string
	RefundsCSV string

	DryRun       bool
	NoItemize    bool
	RetagChanged bool
	Prefix       string
	RefundPrefix string
	Verbose      bool
}

// ParseTagFlags parses the tagger flags from the command line.
func ParseTagFlags() TagFlags {
	var flags TagFlags
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.ItemsCSV, "items", "", "Path to the Items report CSV (required)")
	flag.StringVar(&flags.OrdersCSV, "orders", "", "Path to the Orders and Shipments report CSV (required)")
	flag.StringVar(&flags.RefundsCSV, "refunds", "", "Path to the Refunds report CSV (optional)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Preview changes without applying them")
	flag.BoolVar(&flags.NoItemize, "no-itemize", false, "Summarize each match into a single entry instead of splitting per item")
	flag.BoolVar(&flags.RetagChanged, "retag-changed", false, "Redo previously tagged transactions when their itemization changed")
	flag.StringVar(&flags.Prefix, "prefix", "", "Description prefix for purchases (overrides config)")
	flag.StringVar(&flags.RefundPrefix, "refund-prefix", "", "Description prefix for refunds (overrides config)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToOptions merges the flags with the loaded configuration.
func (f TagFlags) ToOptions(cfg *config.Config) tagging.Options {
	opts := tagging.Options{
		DryRun:          f.DryRun,
		Itemize:         !cfg.Tagging.NoItemize && !f.NoItemize,
		RetagChanged:    cfg.Tagging.RetagChanged || f.RetagChanged,
		DebitPrefix:     cfg.Tagging.DescriptionPrefix,
		CreditPrefix:    cfg.Tagging.RefundPrefix,
		MerchantKeyword: cfg.Tagging.MerchantKeyword,
	}
	if f.Prefix != "" {
		opts.DebitPrefix = f.Prefix
	}
	if f.RefundPrefix != "" {
		opts.CreditPrefix = f.RefundPrefix
	}
	return opts
}
