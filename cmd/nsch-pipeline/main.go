// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the nsch-pipeline CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the nsch-pipeline CLI.
var rootCmd = &cobra.Command{
	Use:   "nsch-pipeline",
	Short: "Convert NSCH topical survey extracts from Stata to R",
	Long: `nsch-pipeline converts National Survey of Children's Health topical
extracts from Stata .dta files to R .rds files, recoding the survey's
missing-data sentinels (.m, .n, .l, .d) to their numeric codes
(996-999) and coercing every column to numeric along the way.

Each stage is a subcommand: fetch downloads the per-year archives from
census.gov, convert runs the recode pipeline, and catalog inspects the
record of completed conversions.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./nsch-pipeline.yaml or ~/.config/nsch-pipeline/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for .dta inputs and .rds output (default: "+types.DefaultDataDir+")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("nsch-pipeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "nsch-pipeline"))
		}
	}

	viper.SetEnvPrefix("NSCH_PIPELINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dataDir resolves the data directory from flag, config file, or
// default, in that order.
func dataDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		return dir
	}
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir
	}
	return types.DefaultDataDir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
