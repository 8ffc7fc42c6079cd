// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/corpus-report/internal/assets"
	"github.com/meshintel/corpus-report/internal/execx"
	"github.com/meshintel/corpus-report/internal/manifest"
	"github.com/meshintel/corpus-report/internal/notion"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/internal/report"
	"github.com/meshintel/corpus-report/internal/ris"
	"github.com/meshintel/corpus-report/internal/secrets"
	"github.com/meshintel/corpus-report/internal/summarize"
	"github.com/meshintel/corpus-report/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: manifest, extract, summarize, compose",
	Long: `Run executes the pipeline stages in order against one shared run
context. Publishing only happens with --publish, so the default run is
entirely local. Use --write-config to scaffold a corpus-report.yaml with
the effective settings instead of running.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().Bool("publish", false, "also publish the report after composing")
	runCmd.Flags().Bool("force", false, "regenerate assets for already-processed papers")
	runCmd.Flags().String("ris", "", "RIS bibliography file (default <papers-dir>/references.ris)")
	runCmd.Flags().String("parent-page", "", "parent page ID for --publish")
	runCmd.Flags().Bool("write-config", false, "write corpus-report.yaml with the effective settings and exit")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)
	doPublish, _ := cmd.Flags().GetBool("publish")
	force, _ := cmd.Flags().GetBool("force")

	risPath := setting(cmd, "ris", "extract.ris_path", "")
	if risPath == "" {
		risPath = filepath.Join(papersDir, "references.ris")
	}

	if writeCfg, _ := cmd.Flags().GetBool("write-config"); writeCfg {
		return writeConfigScaffold(cmd, papersDir, outDir, risPath)
	}

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)
	log.Info().
		Str("papers_dir", papersDir).
		Str("out_dir", outDir).
		Bool("publish", doPublish).
		Msg("pipeline run started")

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	ctx := context.Background()
	tools := pdftool.New(execx.New())

	// Stage 1: manifest.
	_, man, err := manifest.Build(ctx, tools,
		types.ManifestConfig{PapersDir: papersDir, OutDir: outDir}, repoRoot, os.Stdout)
	if err != nil {
		return fmt.Errorf("manifest stage: %w", err)
	}
	manifestPath := manifest.UniquePath(outDir)
	log.Info().Int("papers", len(man.Papers)).Msg("manifest stage done")

	// Stage 2: extract.
	entries, err := ris.Parse(risPath)
	if err != nil {
		return err
	}
	extractor := &assets.Extractor{
		Tools:    tools,
		RIS:      ris.NewIndex(entries),
		OutDir:   outDir,
		RepoRoot: repoRoot,
		Force:    force,
	}
	extracted, err := extractor.Run(ctx, man, manifestPath, os.Stdout)
	if err != nil {
		return fmt.Errorf("extract stage: %w", err)
	}
	log.Info().
		Int("processed", extracted.Processed).
		Int("skipped", extracted.Skipped).
		Int("failed", extracted.Failed).
		Msg("extract stage done")
	if extracted.HasFailures() {
		return fmt.Errorf("extract stage: %d paper(s) failed", extracted.Failed)
	}

	// Stage 3: summarize.
	sum, err := summarize.Run(man, manifestPath, outDir, summaryPath(outDir), os.Stdout)
	if err != nil {
		return fmt.Errorf("summarize stage: %w", err)
	}
	log.Info().Int("summarized", sum.CorpusSummary.SummarizedRecords).Msg("summarize stage done")

	// Stage 4: compose.
	composeCfg := composeConfig(cmd, outDir)
	if _, err := report.Compose(sum, composeCfg, os.Stdout); err != nil {
		return fmt.Errorf("compose stage: %w", err)
	}
	log.Info().Str("output", composeCfg.OutputPath).Msg("compose stage done")

	if !doPublish {
		log.Info().Msg("pipeline run complete (publish skipped)")
		return nil
	}

	// Stage 5: publish.
	pubCfg := publishConfig(cmd)
	if pubCfg.ParentPageID == "" {
		return fmt.Errorf("publish stage: parent page ID required (--parent-page)")
	}
	token, err := secrets.Resolve(secretsDir, secrets.NotionKeyFile, pubCfg.TokenEnv)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("publish stage: no API token configured")
	}

	client := notion.NewClient(pubCfg, token, &http.Client{Timeout: pubCfg.Timeout})
	meta, err := client.PublishReport(ctx, composeCfg.OutputPath, repoRoot, outDir,
		composeCfg.Title, pubCfg.ParentPageID, rc.RunID, os.Stdout)
	if err != nil {
		return fmt.Errorf("publish stage: %w", err)
	}
	log.Info().Str("page_url", meta.PageURL).Msg("pipeline run complete")
	return nil
}

// writeConfigScaffold writes the effective pipeline settings to
// corpus-report.yaml in the working directory.
func writeConfigScaffold(cmd *cobra.Command, papersDir, outDir, risPath string) error {
	cfg := types.PipelineConfig{
		Manifest: types.ManifestConfig{PapersDir: papersDir, OutDir: outDir},
		Extract:  types.ExtractConfig{OutDir: outDir, RISPath: risPath},
		Compose:  composeConfig(cmd, outDir),
		Publish:  publishConfig(cmd),
		Index:    types.IndexConfig{OutDir: outDir},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile("corpus-report.yaml", data, 0o644); err != nil {
		return fmt.Errorf("writing corpus-report.yaml: %w", err)
	}
	fmt.Println("Wrote corpus-report.yaml")
	return nil
}
