package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

func testServer(t *testing.T) (*Server, *storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(DefaultConfig(), store, logger), store
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestListRuns(t *testing.T) {
	s, store := testServer(t)

	require.NoError(t, store.SaveRun(&storage.TaggingRun{
		ID: "run-1", StartedAt: time.Now().Add(-time.Hour),
		Stats: map[string]int{"order_match": 2},
	}))
	require.NoError(t, store.SaveRun(&storage.TaggingRun{
		ID: "run-2", StartedAt: time.Now(), DryRun: true,
	}))

	w := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "run-2", resp.Runs[0].ID)
	assert.True(t, resp.Runs[0].DryRun)
	assert.Equal(t, 2, resp.Runs[1].Stats["order_match"])
}

func TestGetRun(t *testing.T) {
	s, store := testServer(t)

	require.NoError(t, store.SaveRun(&storage.TaggingRun{
		ID: "run-1", StartedAt: time.Now(), Itemize: true,
	}))

	w := get(t, s, "/api/runs/run-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.ID)
	assert.True(t, resp.Itemize)
}

func TestGetRunNotFound(t *testing.T) {
	s, _ := testServer(t)

	w := get(t, s, "/api/runs/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRunRecords(t *testing.T) {
	s, store := testServer(t)

	require.NoError(t, store.SaveRun(&storage.TaggingRun{ID: "run-1", StartedAt: time.Now()}))
	require.NoError(t, store.SaveTagRecords([]*storage.TagRecord{
		{
			RunID: "run-1", TransactionID: "t1", TransactionDate: time.Now(),
			Description: "Amazon", Amount: 21.45, ReplacementCount: 2,
			Replacements: []storage.ReplacementDetail{
				{Description: "Amazon.com: Cable", Category: "Electronics & Software", Amount: 16.23, IsDebit: true},
				{Description: "Amazon.com: Shipping", Category: "Shipping", Amount: 5.22, IsDebit: true},
			},
		},
	}))

	w := get(t, s, "/api/runs/run-1/records")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []TagRecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "t1", resp[0].TransactionID)
	require.Len(t, resp[0].Replacements, 2)
	assert.Equal(t, "Shipping", resp[0].Replacements[1].Category)
}

func TestGetStats(t *testing.T) {
	s, store := testServer(t)

	require.NoError(t, store.SaveRun(&storage.TaggingRun{ID: "a", StartedAt: time.Now()}))
	require.NoError(t, store.SaveTagRecords([]*storage.TagRecord{
		{RunID: "a", TransactionID: "t1"},
	}))

	w := get(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalRuns)
	assert.Equal(t, 1, resp.TotalTagged)
	assert.Equal(t, 1, resp.LastRunTagged)
}
