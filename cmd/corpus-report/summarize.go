// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/manifest"
	"github.com/meshintel/corpus-report/internal/summarize"
	"github.com/meshintel/corpus-report/pkg/types"
)

// summaryFileName is the stage-3 artifact consumed by compose and query.
const summaryFileName = "paper_summaries.json"

func summaryPath(outDir string) string {
	return filepath.Join(outDir, summaryFileName)
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Build structured per-paper summaries with evidence anchors",
	Long: `Summarize reads the extraction artifacts for every manifest paper and
derives deterministic keyword-based summaries: objective, methods, findings,
limitations, abstract excerpt, key equations, and page-anchored evidence
quotes. The result is the corpus-level paper_summaries.json.`,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)

	manifestPath := manifest.UniquePath(outDir)
	var man types.ManifestUnique
	if err := contentstore.ReadJSON(manifestPath, &man); err != nil {
		return fmt.Errorf("loading manifest (run `corpus-report manifest` first): %w", err)
	}

	sum, err := summarize.Run(&man, manifestPath, outDir, summaryPath(outDir), os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("summarize failed")
		return err
	}

	log.Info().
		Int("summarized", sum.CorpusSummary.SummarizedRecords).
		Bool("all_have_citations", sum.Validation.AllHaveCitations).
		Bool("all_have_evidence", sum.Validation.AllHaveEvidence).
		Msg("summaries written")
	return nil
}
