// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/corpus-report/internal/index"
	"github.com/meshintel/corpus-report/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search the corpus summaries with full-text search",
	Long: `Query searches an FTS5 index built from paper_summaries.json and prints
citation-numbered matches with snippets. The index is refreshed lazily
whenever the summary file has changed since the last build.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = default 20)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more search terms")
	}
	outDir := outDirSetting(cmd)
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := index.NewStore(types.IndexConfig{
		OutDir:     outDir,
		MaxResults: viper.GetInt("index.max_results"),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Refresh(ctx, summaryPath(outDir)); err != nil {
		return fmt.Errorf("refreshing index (run `corpus-report summarize` first): %w", err)
	}

	results, err := store.Query(ctx, strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "[%d] %s (%s)\n    %s\n", r.CitationNumber, r.Title, r.Section, r.Snippet)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
