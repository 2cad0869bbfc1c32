// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the NSCH topical batch conversion: for each
// survey year it reads nsch_<year>_topical.dta, applies the
// missing-value recode pipeline, and writes nsch_<year>_topical.rds
// next to the source.
//
// The batch is fail-fast: the first unreadable, malformed, or
// unwritable file aborts the run. There is no per-year isolation and
// no rollback of files already written. Per-cell coercion failures
// are not errors; the recode pipeline turns them into nulls.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/nsch-pipeline/internal/recode"
	"github.com/pdiddy/nsch-pipeline/internal/rds"
	"github.com/pdiddy/nsch-pipeline/internal/stata"
	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

// SourcePath returns the .dta path for one survey year.
func SourcePath(dataDir string, year int) string {
	return filepath.Join(dataDir, fmt.Sprintf("nsch_%d_topical.dta", year))
}

// OutputPath returns the .rds path for one survey year.
func OutputPath(dataDir string, year int) string {
	return filepath.Join(dataDir, fmt.Sprintf("nsch_%d_topical.rds", year))
}

// File converts one year's topical extract, overwriting any existing
// output, and prints a completion notice to w.
func File(year int, dataDir string, w io.Writer) (*types.Conversion, error) {
	srcPath := SourcePath(dataDir, year)
	outPath := OutputPath(dataDir, year)

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	rdr, err := stata.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", srcPath, err)
	}
	f, err := rdr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", srcPath, err)
	}

	counts, err := recode.Run(f)
	if err != nil {
		return nil, fmt.Errorf("recoding %s: %w", srcPath, err)
	}

	if err := rds.WriteFile(outPath, f); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "Saved: %s\n", outPath)

	return &types.Conversion{
		Year:        year,
		SourcePath:  srcPath,
		OutputPath:  outPath,
		Rows:        f.NumRows(),
		Columns:     f.NumCols(),
		RecodedM:    counts.M,
		RecodedN:    counts.N,
		RecodedL:    counts.L,
		RecodedD:    counts.D,
		ConvertedAt: time.Now().UTC(),
	}, nil
}

// Batch converts the given years in order, halting on the first
// failure. Records for years converted before the failure are
// returned alongside the error.
func Batch(years []int, dataDir string, w io.Writer) ([]*types.Conversion, error) {
	var records []*types.Conversion
	for _, year := range years {
		rec, err := File(year, dataDir, w)
		if err != nil {
			return records, fmt.Errorf("converting year %d: %w", year, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
