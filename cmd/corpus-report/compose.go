// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/report"
	"github.com/meshintel/corpus-report/pkg/types"
)

const (
	defaultReportName  = "research_report.md"
	defaultReportTitle = "Research Corpus Report"
	defaultSynopsis    = "Consolidated synthesis of the local research paper corpus: " +
		"per-paper structured summaries, cross-paper method analysis, and a " +
		"numbered bibliography, all derived from machine-readable PDF text."
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Render the consolidated markdown report",
	Long: `Compose renders paper_summaries.json into a single markdown report:
executive synopsis, corpus metrics, cross-paper method histogram, pipeline
diagrams, per-paper sections with equations, evidence anchors and figure
galleries, numbered bibliography, and a validation checklist.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().String("output", "", "report output path (default <out-dir>/research_report.md)")
	composeCmd.Flags().String("title", "", "report title (default \"Research Corpus Report\")")
	composeCmd.Flags().String("synopsis", "", "executive synopsis paragraph")

	rootCmd.AddCommand(composeCmd)
}

func composeConfig(cmd *cobra.Command, outDir string) types.ComposeConfig {
	output := setting(cmd, "output", "compose.output_path", "")
	if output == "" {
		output = filepath.Join(outDir, defaultReportName)
	}
	title := setting(cmd, "title", "compose.title", defaultReportTitle)
	synopsis := setting(cmd, "synopsis", "compose.synopsis", defaultSynopsis)

	return types.ComposeConfig{
		OutDir:     outDir,
		OutputPath: output,
		Title:      title,
		Synopsis:   synopsis,
		ImagesRoot: "papers",
	}
}

func runCompose(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)
	cfg := composeConfig(cmd, outDir)

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)

	var sum types.SummaryFile
	if err := contentstore.ReadJSON(summaryPath(outDir), &sum); err != nil {
		return fmt.Errorf("loading summaries (run `corpus-report summarize` first): %w", err)
	}

	if _, err := report.Compose(&sum, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("compose failed")
		return err
	}

	log.Info().
		Str("output", cfg.OutputPath).
		Int("papers", len(sum.Papers)).
		Msg("report written")
	return nil
}
