package storage

import (
	"time"
)

// TaggingRun is one recorded reconciliation run.
type TaggingRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Itemize    bool      `json:"itemize"`

	// Run statistics, keyed by counter name.
	Stats map[string]int `json:"stats"`

	// StatsJSON is the serialized form for DB storage.
	StatsJSON string `json:"-"`
}

// TagRecord is one validated (original, replacements) pair from a run.
type TagRecord struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	TransactionID    string    `json:"transaction_id"`
	TransactionDate  time.Time `json:"transaction_date"`
	Description      string    `json:"description"`
	Amount           float64   `json:"amount"`
	ReplacementCount int       `json:"replacement_count"`

	// Replacements holds the synthesized entries as JSON.
	Replacements []ReplacementDetail `json:"replacements"`

	ReplacementsJSON string `json:"-"`
}

// ReplacementDetail is the stored shape of one synthesized entry.
type ReplacementDetail struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	CategoryID  string  `json:"category_id"`
	Amount      float64 `json:"amount"`
	IsDebit     bool    `json:"is_debit"`
	Note        string  `json:"note,omitempty"`
}

// Stats aggregates across recorded runs.
type Stats struct {
	TotalRuns     int       `json:"total_runs"`
	TotalTagged   int       `json:"total_tagged"`
	DryRunCount   int       `json:"dry_run_count"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastRunTagged int       `json:"last_run_tagged"`
}
