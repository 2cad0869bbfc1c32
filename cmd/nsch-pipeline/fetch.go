// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/nsch-pipeline/internal/fetch"
	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [years...]",
	Short: "Download NSCH topical Stata archives from census.gov",
	Long: `Fetch downloads the per-year topical Stata archives from the Census
Bureau site and extracts the .dta file into the data directory. Years
whose .dta file already exists are skipped. Failures are reported per
year and the batch continues.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := fetchConfig(cmd)

	yearRange := types.ConvertConfig{
		FirstYear: viper.GetInt("convert.first_year"),
		LastYear:  viper.GetInt("convert.last_year"),
	}
	years := yearRange.Years()
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

	client := &http.Client{Timeout: cfg.Timeout}
	result := fetch.Batch(context.Background(), client, years, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d year(s) failed to download", result.Failed)
	}
	return nil
}

func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = viper.GetString("fetch.base_url")
	}

	timeout := viper.GetDuration("fetch.timeout")
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	delay := viper.GetDuration("fetch.download_delay")
	if delay == 0 {
		delay = time.Second
	}

	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: "nsch-pipeline/" + version,
		},
		DataDir:       dataDir(cmd),
		BaseURL:       baseURL,
		DownloadDelay: delay,
	}
}

func init() {
	fetchCmd.Flags().String("base-url", "", "census.gov dataset directory (default: "+fetch.DefaultBaseURL+")")

	rootCmd.AddCommand(fetchCmd)
}
