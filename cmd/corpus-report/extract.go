// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-report/internal/assets"
	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/execx"
	"github.com/meshintel/corpus-report/internal/manifest"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/internal/ris"
	"github.com/meshintel/corpus-report/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text, metadata, equations, and figures per paper",
	Long: `Extract processes every paper in manifest_unique.json: full text via
pdftotext (with staging and native fallbacks), first-page metadata
heuristics with RIS overrides, equation candidate mining, and embedded
figure extraction with decorative-image filtering. Already-processed papers
are skipped unless --force is given.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("ris", "", "RIS bibliography file (default <papers-dir>/references.ris)")
	extractCmd.Flags().Bool("force", false, "regenerate assets for already-processed papers")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)
	force, _ := cmd.Flags().GetBool("force")

	risPath := setting(cmd, "ris", "extract.ris_path", "")
	if risPath == "" {
		risPath = filepath.Join(papersDir, "references.ris")
	}

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)

	manifestPath := manifest.UniquePath(outDir)
	var man types.ManifestUnique
	if err := contentstore.ReadJSON(manifestPath, &man); err != nil {
		return fmt.Errorf("loading manifest (run `corpus-report manifest` first): %w", err)
	}

	entries, err := ris.Parse(risPath)
	if err != nil {
		return err
	}
	log.Info().
		Int("papers", len(man.Papers)).
		Int("ris_entries", len(entries)).
		Bool("force", force).
		Msg("extracting assets")

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	extractor := &assets.Extractor{
		Tools:    pdftool.New(execx.New()),
		RIS:      ris.NewIndex(entries),
		OutDir:   outDir,
		RepoRoot: repoRoot,
		Force:    force,
	}

	result, err := extractor.Run(context.Background(), &man, manifestPath, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("extraction failed")
		return err
	}

	log.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("extraction complete")
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed extraction", result.Failed)
	}
	return nil
}
