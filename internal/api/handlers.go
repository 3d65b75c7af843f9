package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

// RunResponse is the wire shape of one tagging run.
type RunResponse struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DryRun     bool           `json:"dry_run"`
	Itemize    bool           `json:"itemize"`
	Stats      map[string]int `json:"stats,omitempty"`
}

// RunListResponse wraps a list of runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// TagRecordResponse is the wire shape of one tagged transaction.
type TagRecordResponse struct {
	TransactionID    string                      `json:"transaction_id"`
	TransactionDate  string                      `json:"transaction_date"`
	Description      string                      `json:"description"`
	Amount           float64                     `json:"amount"`
	ReplacementCount int                         `json:"replacement_count"`
	Replacements     []storage.ReplacementDetail `json:"replacements,omitempty"`
}

// StatsResponse reports aggregate run statistics.
type StatsResponse struct {
	TotalRuns     int       `json:"total_runs"`
	TotalTagged   int       `json:"total_tagged"`
	DryRunCount   int       `json:"dry_run_count"`
	LastRunAt     time.Time `json:"last_run_at,omitempty"`
	LastRunTagged int       `json:"last_run_tagged"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := s.repo.ListRuns(limit)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	response := RunListResponse{
		Runs:  make([]RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.repo.GetRun(c.Param("id"))
	if err != nil {
		s.logger.Error("Failed to load run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func (s *Server) listRunRecords(c *gin.Context) {
	records, err := s.repo.ListTagRecords(c.Param("id"))
	if err != nil {
		s.logger.Error("Failed to list tag records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tag records"})
		return
	}

	response := make([]TagRecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, TagRecordResponse{
			TransactionID:    rec.TransactionID,
			TransactionDate:  rec.TransactionDate.Format("2006-01-02"),
			Description:      rec.Description,
			Amount:           rec.Amount,
			ReplacementCount: rec.ReplacementCount,
			Replacements:     rec.Replacements,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.repo.GetStats()
	if err != nil {
		s.logger.Error("Failed to load stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalRuns:     stats.TotalRuns,
		TotalTagged:   stats.TotalTagged,
		DryRunCount:   stats.DryRunCount,
		LastRunAt:     stats.LastRunAt,
		LastRunTagged: stats.LastRunTagged,
	})
}

func toRunResponse(run *storage.TaggingRun) RunResponse {
	return RunResponse{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DryRun:     run.DryRun,
		Itemize:    run.Itemize,
		Stats:      run.Stats,
	}
}
