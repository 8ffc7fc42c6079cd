// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-report/internal/execx"
	"github.com/meshintel/corpus-report/internal/manifest"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/pkg/types"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inventory and deduplicate the PDF collection",
	Long: `Manifest scans the papers directory, hashes every PDF, groups
byte-identical copies, probes extractability with the poppler toolchain, and
writes manifest_all.json plus the deduplicated manifest_unique.json. Paper
IDs and citation numbers downstream derive from the unique manifest's order.`,
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)
	log.Info().Str("papers_dir", papersDir).Msg("building manifest")

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	tools := pdftool.New(execx.New())
	cfg := types.ManifestConfig{PapersDir: papersDir, OutDir: outDir}

	all, unique, err := manifest.Build(context.Background(), tools, cfg, repoRoot, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("manifest failed")
		return err
	}

	log.Info().
		Int("total_files", all.TotalFiles).
		Int("unique_files", all.UniqueFiles).
		Int("duplicate_groups", all.DuplicateGroups).
		Int("papers", len(unique.Papers)).
		Msg("manifest written")
	return nil
}
