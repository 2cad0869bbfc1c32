// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Default year range for the NSCH topical files. The Census Bureau
// publishes one topical extract per survey year.
const (
	DefaultFirstYear = 2016
	DefaultLastYear  = 2022
)

// DefaultDataDir is the directory holding downloaded .dta files and
// converted .rds output.
const DefaultDataDir = "download-nsch-data"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "nsch-pipeline/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the directory that receives extracted .dta files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// BaseURL is the census.gov directory holding the per-year Stata
	// archives. The year is appended as a path segment.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// ConvertConfig holds settings for the convert stage.
type ConvertConfig struct {
	// DataDir is the directory holding nsch_<year>_topical.dta inputs;
	// .rds output is written alongside.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// FirstYear and LastYear bound the survey years processed, inclusive.
	FirstYear int `json:"first_year" yaml:"first_year"`
	LastYear  int `json:"last_year" yaml:"last_year"`
}

// Years expands the configured range into the ordered year sequence.
func (c ConvertConfig) Years() []int {
	first, last := c.FirstYear, c.LastYear
	if first == 0 {
		first = DefaultFirstYear
	}
	if last == 0 {
		last = DefaultLastYear
	}
	var years []int
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// CatalogConfig holds settings for the conversion catalog.
type CatalogConfig struct {
	// DataDir is the directory holding catalog.db and manifest exports.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
}
