// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/nsch-pipeline/internal/catalog"
	"github.com/pdiddy/nsch-pipeline/internal/convert"
	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [years...]",
	Short: "Convert topical .dta files to recoded .rds files",
	Long: `Convert reads nsch_<year>_topical.dta for each year, recodes the
missing-data sentinels, normalizes the stratum column, coerces every
column to numeric, and writes nsch_<year>_topical.rds alongside the
source. Existing output files are overwritten.

The batch is fail-fast: the first missing or malformed file aborts the
run. Years already converted are recorded in the catalog.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := convertConfig(cmd)

	years := cfg.Years()
	if len(args) > 0 {
		years = years[:0]
		for _, a := range args {
			y, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid year %q", a)
			}
			years = append(years, y)
		}
	}

	records, convErr := convert.Batch(years, cfg.DataDir, os.Stdout)

	// Record completed conversions even when a later year failed.
	if len(records) > 0 {
		store, err := catalog.Open(types.CatalogConfig{DataDir: cfg.DataDir})
		if err != nil {
			return err
		}
		defer store.Close()
		for _, rec := range records {
			if err := store.Record(context.Background(), rec); err != nil {
				return err
			}
		}
	}

	return convErr
}

func convertConfig(cmd *cobra.Command) types.ConvertConfig {
	first, _ := cmd.Flags().GetInt("first-year")
	if first == 0 {
		first = viper.GetInt("convert.first_year")
	}
	last, _ := cmd.Flags().GetInt("last-year")
	if last == 0 {
		last = viper.GetInt("convert.last_year")
	}
	return types.ConvertConfig{
		DataDir:   dataDir(cmd),
		FirstYear: first,
		LastYear:  last,
	}
}

func init() {
	convertCmd.Flags().Int("first-year", 0, "first survey year to convert (default 2016)")
	convertCmd.Flags().Int("last-year", 0, "last survey year to convert, inclusive (default 2022)")

	rootCmd.AddCommand(convertCmd)
}
