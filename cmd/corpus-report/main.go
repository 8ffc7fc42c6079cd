// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the corpus-report CLI.
// See docs/ARCHITECTURE.md § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds per-key credential files (see internal/secrets).
const secretsDir = ".secrets/"

// rootCmd is the base command for the corpus-report CLI.
var rootCmd = &cobra.Command{
	Use:   "corpus-report",
	Short: "Research-corpus report pipeline over local PDF collections",
	Long: `corpus-report turns a directory of PDF papers into a published research
report. The pipeline runs in five stages, each independently re-runnable
from the previous stage's JSON artifact:

  manifest   inventory + dedup the PDF collection
  extract    per-paper text, metadata, equations, figures
  summarize  structured per-paper summaries with evidence anchors
  compose    consolidated markdown report
  publish    push the report to a Notion page

Use run to execute the stages in order, or query to search summaries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env feeds process env before viper reads it; absence is fine.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./corpus-report.yaml or ~/.config/corpus-report/config.yaml)")
	rootCmd.PersistentFlags().String("papers-dir", "", "directory of source PDFs (default papers)")
	rootCmd.PersistentFlags().String("out-dir", "", "run output directory (default out)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("corpus-report")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "corpus-report"))
		}
	}

	viper.SetEnvPrefix("CORPUS_REPORT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setting resolves one string option with flag > env > config file > default
// precedence. Flags are checked on the command and its parents.
func setting(cmd *cobra.Command, flag, key, def string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	if f := cmd.InheritedFlags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return def
}

func papersDirSetting(cmd *cobra.Command) string {
	return setting(cmd, "papers-dir", "manifest.papers_dir", "papers")
}

func outDirSetting(cmd *cobra.Command) string {
	return setting(cmd, "out-dir", "manifest.out_dir", "out")
}

// newRunContext builds the per-run state threaded through stage calls.
func newRunContext(papersDir, outDir string) types.RunContext {
	return types.RunContext{
		RunID:        uuid.NewString(),
		PapersDir:    papersDir,
		OutDir:       outDir,
		StartedAtUTC: contentstore.UTCNowISO(),
	}
}

// newLogger builds the run-scoped console logger on stderr.
func newLogger(rc types.RunContext) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("run_id", rc.RunID).
		Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
