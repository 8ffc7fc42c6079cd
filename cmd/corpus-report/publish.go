// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/corpus-report/internal/notion"
	"github.com/meshintel/corpus-report/internal/secrets"
	"github.com/meshintel/corpus-report/pkg/types"
)

const defaultPublishTimeout = 60 * time.Second

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the markdown report to a Notion page",
	Long: `Publish parses the composed markdown report into typed blocks, creates a
child page under the configured parent, uploads local figures through the
file-upload protocol, and appends all blocks in chunks. Every external call
is recorded in notion_publish_log.json; page identity lands in
notion_page_meta.json.

The API token comes from the NOTION_API_KEY environment variable (a .env
file is honored) or the .secrets/notion-api-key file.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("markdown", "", "report to publish (default <out-dir>/research_report.md)")
	publishCmd.Flags().String("parent-page", "", "parent page ID the report page is created under")
	publishCmd.Flags().String("title", "", "published page title (default the report title)")

	rootCmd.AddCommand(publishCmd)
}

func publishConfig(cmd *cobra.Command) types.PublishConfig {
	cfg := types.PublishConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultPublishTimeout,
			UserAgent: "corpus-report/0.1",
		},
		BaseURL:           viper.GetString("publish.base_url"),
		ParentPageID:      setting(cmd, "parent-page", "publish.parent_page_id", ""),
		TokenEnv:          "NOTION_API_KEY",
		NotionVersion:     viper.GetString("publish.notion_version"),
		MaxAttempts:       viper.GetInt("publish.max_attempts"),
		RequestsPerSecond: viper.GetFloat64("publish.requests_per_second"),
	}
	if env := viper.GetString("publish.token_env"); env != "" {
		cfg.TokenEnv = env
	}
	return cfg
}

func runPublish(cmd *cobra.Command, args []string) error {
	papersDir := papersDirSetting(cmd)
	outDir := outDirSetting(cmd)

	rc := newRunContext(papersDir, outDir)
	log := newLogger(rc)

	cfg := publishConfig(cmd)
	if cfg.ParentPageID == "" {
		return fmt.Errorf("parent page ID required: set --parent-page or publish.parent_page_id")
	}

	markdownPath := setting(cmd, "markdown", "compose.output_path", "")
	if markdownPath == "" {
		markdownPath = filepath.Join(outDir, defaultReportName)
	}
	title := setting(cmd, "title", "compose.title", defaultReportTitle)

	token, err := secrets.Resolve(secretsDir, secrets.NotionKeyFile, cfg.TokenEnv)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no API token: set %s or %s%s", cfg.TokenEnv, secretsDir, secrets.NotionKeyFile)
	}

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	client := notion.NewClient(cfg, token, &http.Client{Timeout: cfg.Timeout})
	meta, err := client.PublishReport(context.Background(), markdownPath, repoRoot, outDir,
		title, cfg.ParentPageID, rc.RunID, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		return err
	}

	log.Info().
		Str("page_id", meta.PageID).
		Str("page_url", meta.PageURL).
		Int("blocks", meta.BlockCount).
		Int("images", meta.ImageCount).
		Msg("report published")
	return nil
}
