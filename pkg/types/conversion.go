// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines configuration and record types shared across
// pipeline stages.
package types

import "time"

// Conversion records the outcome of converting one topical file.
// The catalog stores one Conversion per survey year.
type Conversion struct {
	Year       int    `json:"year" yaml:"year"`
	SourcePath string `json:"source_path" yaml:"source_path"`
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Rows and Columns describe the shape of the converted dataset.
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`

	// Per-sentinel replacement counts from the recode stage.
	RecodedM int `json:"recoded_m" yaml:"recoded_m"`
	RecodedN int `json:"recoded_n" yaml:"recoded_n"`
	RecodedL int `json:"recoded_l" yaml:"recoded_l"`
	RecodedD int `json:"recoded_d" yaml:"recoded_d"`

	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}

// FetchRecord is the metadata sidecar written next to a downloaded
// topical file.
type FetchRecord struct {
	Year         int       `json:"year" yaml:"year"`
	SourceURL    string    `json:"source_url" yaml:"source_url"`
	DataPath     string    `json:"data_path" yaml:"data_path"`
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}
