// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/pkg/types"
)

func testSummary() *types.SummaryFile {
	return &types.SummaryFile{
		Papers: []types.PaperSummary{
			{
				PaperID:        "paper_001_deadbeef",
				CitationNumber: 1,
				Title:          "Vorticity Transport in Shallow Seas",
				Objective:      "We study vorticity transport in rotating shallow water.",
				Methods:        "A finite difference Arakawa scheme integrates the flow.",
				Findings:       "Enstrophy decay matches laboratory benchmarks.",
				Citation:       "Smith J. Vorticity Transport in Shallow Seas. 2021.",
			},
			{
				PaperID:        "paper_002_feedface",
				CitationNumber: 2,
				Title:          "Spectral Tsunami Models",
				Objective:      "Spectral methods resolve tsunami propagation offshore.",
				Citation:       "Spectral Tsunami Models.",
			},
		},
	}
}

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	outDir := t.TempDir()

	summaryPath := filepath.Join(outDir, "paper_summaries.json")
	require.NoError(t, contentstore.WriteJSON(summaryPath, testSummary()))

	store, err := NewStore(types.IndexConfig{OutDir: outDir})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, summaryPath
}

func TestRefresh_BuildsThenSkipsUnchanged(t *testing.T) {
	store, summaryPath := setupStore(t)
	ctx := context.Background()

	rebuilt, err := store.Refresh(ctx, summaryPath)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	// Same mtime: no rebuild.
	rebuilt, err = store.Refresh(ctx, summaryPath)
	require.NoError(t, err)
	assert.False(t, rebuilt)

	// Touching the file forces a rebuild.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(summaryPath, future, future))
	rebuilt, err = store.Refresh(ctx, summaryPath)
	require.NoError(t, err)
	assert.True(t, rebuilt)
}

func TestQuery_RanksAndSnippets(t *testing.T) {
	store, summaryPath := setupStore(t)
	ctx := context.Background()

	_, err := store.Refresh(ctx, summaryPath)
	require.NoError(t, err)

	results, err := store.Query(ctx, "vorticity", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Equal(t, "paper_001_deadbeef", r.PaperID)
		assert.Equal(t, 1, r.CitationNumber)
		assert.Equal(t, "Vorticity Transport in Shallow Seas", r.Title)
		assert.NotEmpty(t, r.Snippet)
	}

	results, err = store.Query(ctx, "tsunami", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "paper_002_feedface", results[0].PaperID)
}

func TestQuery_EmptyAndNoMatch(t *testing.T) {
	store, summaryPath := setupStore(t)
	ctx := context.Background()

	_, err := store.Refresh(ctx, summaryPath)
	require.NoError(t, err)

	_, err = store.Query(ctx, "   ", 0)
	assert.Error(t, err)

	results, err := store.Query(ctx, "magnetohydrodynamics", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_MaxResultsLimit(t *testing.T) {
	store, summaryPath := setupStore(t)
	ctx := context.Background()

	_, err := store.Refresh(ctx, summaryPath)
	require.NoError(t, err)

	// "shallow" appears in the title, objective, and citation of paper 1.
	all, err := store.Query(ctx, "shallow", 0)
	require.NoError(t, err)
	require.Greater(t, len(all), 1)

	one, err := store.Query(ctx, "shallow", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
