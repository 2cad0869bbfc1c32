// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads NSCH topical Stata archives from the Census
// Bureau site and extracts the .dta file into the data directory,
// writing a metadata sidecar per year.
//
// Unlike the converter, fetch isolates per-year failures: a year that
// cannot be downloaded is reported and the batch continues.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nsch-pipeline/internal/convert"
	"github.com/pdiddy/nsch-pipeline/internal/httputil"
	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

// DefaultBaseURL is the census.gov directory holding the per-year
// NSCH dataset archives.
const DefaultBaseURL = "https://www2.census.gov/programs-surveys/nsch/datasets"

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of years processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any years failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ArchiveURL returns the download URL for one survey year.
func ArchiveURL(baseURL string, year int) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%d/nsch_%d_topical_Stata.zip", strings.TrimRight(baseURL, "/"), year, year)
}

// Year downloads and extracts one survey year's topical file. If the
// .dta already exists on disk the download is skipped; the skipped
// return value reports that.
func Year(ctx context.Context, client *http.Client, year int, cfg types.FetchConfig, w io.Writer) (skipped bool, err error) {
	dtaPath := convert.SourcePath(cfg.DataDir, year)
	if _, err := os.Stat(dtaPath); err == nil {
		fmt.Fprintf(w, "skipped: %d (already exists)\n", year)
		return true, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return false, fmt.Errorf("creating data directory: %w", err)
	}

	url := ArchiveURL(cfg.BaseURL, year)
	fmt.Fprintf(w, "downloading: %d (%s)\n", year, url)

	zipPath, err := downloadArchive(ctx, client, url, cfg)
	if err != nil {
		return false, fmt.Errorf("downloading year %d: %w", year, err)
	}
	defer os.Remove(zipPath)

	if err := extractDTA(zipPath, dtaPath); err != nil {
		return false, fmt.Errorf("extracting year %d: %w", year, err)
	}

	rec := &types.FetchRecord{
		Year:         year,
		SourceURL:    url,
		DataPath:     dtaPath,
		DownloadedAt: time.Now().UTC(),
	}
	if err := writeSidecar(rec, cfg.DataDir, year); err != nil {
		return false, fmt.Errorf("writing metadata for year %d: %w", year, err)
	}

	return false, nil
}

// Batch fetches multiple years, printing per-year status and returning
// a summary. It continues after individual failures and applies a
// delay between consecutive downloads.
func Batch(ctx context.Context, client *http.Client, years []int, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, year := range years {
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(cfg.DownloadDelay):
			}
		}
		wasSkipped, err := Year(ctx, client, year, cfg, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %d (%v)\n", year, err)
			result.Failed++
		case wasSkipped:
			result.Skipped++
		default:
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadArchive fetches url to a temporary zip file in the data
// directory and returns its path.
func downloadArchive(ctx context.Context, client *http.Client, url string, cfg types.FetchConfig) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(cfg.DataDir, ".fetch-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	return tmpPath, nil
}

// extractDTA pulls the first .dta member out of the archive, writing
// it to a temp file and renaming on success.
func extractDTA(zipPath, destPath string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	var member *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(filepath.Ext(f.Name), ".dta") {
			member = f
			break
		}
	}
	if member == nil {
		return fmt.Errorf("archive contains no .dta file")
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".extract-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, src)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("extracting %s: %w", member.Name, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeSidecar writes the fetch metadata YAML next to the data file.
func writeSidecar(rec *types.FetchRecord, dataDir string, year int) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	path := filepath.Join(dataDir, fmt.Sprintf("nsch_%d_topical.yaml", year))
	return os.WriteFile(path, data, 0o644)
}
