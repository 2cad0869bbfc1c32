// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recode implements the NSCH missing-value recoding pipeline.
//
// Four stages run in order over one frame: stringify every column,
// replace the four sentinel labels with their fixed numeric codes,
// normalize the stratum column, and coerce every column to the
// narrowest numeric type. Column names, order, and row count are
// preserved throughout; only cell values and column kinds change.
package recode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/nsch-pipeline/internal/frame"
)

// sentinelCodes maps the NSCH missing-data sentinel labels to their
// replacement codes: missing, not-in-universe, legitimate skip, and
// don't-know. The survey's own coding convention reserves 996-999, so
// the replacements cannot collide with real values.
var sentinelCodes = map[string]int{
	".m": 996,
	".n": 997,
	".l": 998,
	".d": 999,
}

// stratumColumn is the sampling-stratum column subject to label
// normalization.
const stratumColumn = "stratum"

// Counts holds per-sentinel replacement totals from one pipeline run.
type Counts struct {
	M int // .m -> 996
	N int // .n -> 997
	L int // .l -> 998
	D int // .d -> 999
}

// Total returns the number of cells recoded.
func (c Counts) Total() int {
	return c.M + c.N + c.L + c.D
}

// Run applies all four stages to f in place and returns the sentinel
// replacement counts.
func Run(f *frame.Frame) (Counts, error) {
	if err := Stringify(f); err != nil {
		return Counts{}, fmt.Errorf("stringify: %w", err)
	}
	counts := RecodeSentinels(f)
	NormalizeStratum(f)
	if err := CoerceNumeric(f); err != nil {
		return Counts{}, fmt.Errorf("numeric coercion: %w", err)
	}
	return counts, nil
}

// Stringify converts every column to its textual representation.
// Cells carrying a Stata extended missing code are rendered as their
// dot-label (".m", ".d", ...) and stop being missing, so the sentinel
// stage sees them as ordinary values. Other missing cells stay missing.
func Stringify(f *frame.Frame) error {
	for _, col := range f.Columns() {
		n := col.Len()
		vals := make([]string, n)
		var missing []bool

		setMissing := func(i int) {
			if missing == nil {
				missing = make([]bool, n)
			}
			missing[i] = true
		}

		switch col.Kind() {
		case frame.Float:
			data := col.Floats()
			for i := 0; i < n; i++ {
				switch {
				case col.IsMissing(i) && col.ExtMissing(i) != frame.NoExtMissing:
					vals[i] = frame.ExtLabel(col.ExtMissing(i))
				case col.IsMissing(i):
					setMissing(i)
				default:
					vals[i] = strconv.FormatFloat(data[i], 'g', -1, 64)
				}
			}
		case frame.Int:
			data := col.Ints()
			for i := 0; i < n; i++ {
				switch {
				case col.IsMissing(i) && col.ExtMissing(i) != frame.NoExtMissing:
					vals[i] = frame.ExtLabel(col.ExtMissing(i))
				case col.IsMissing(i):
					setMissing(i)
				default:
					vals[i] = strconv.FormatInt(int64(data[i]), 10)
				}
			}
		case frame.String, frame.Categorical:
			data := col.Strings()
			for i := 0; i < n; i++ {
				switch {
				case col.IsMissing(i) && col.ExtMissing(i) != frame.NoExtMissing:
					vals[i] = frame.ExtLabel(col.ExtMissing(i))
				case col.IsMissing(i):
					setMissing(i)
				default:
					vals[i] = data[i]
				}
			}
		default:
			return fmt.Errorf("column %s: unhandled kind %s", col.Name(), col.Kind())
		}

		if err := col.ResetString(vals, missing); err != nil {
			return err
		}
	}
	return nil
}

// RecodeSentinels replaces each exact, case-sensitive occurrence of the
// four sentinel labels with its numeric code, in every textual column.
// All other cells pass through unmodified.
func RecodeSentinels(f *frame.Frame) Counts {
	var counts Counts
	for _, col := range f.Columns() {
		switch col.Kind() {
		case frame.String, frame.Categorical:
		default:
			// Sentinels can only appear in textual columns.
			continue
		}
		vals := col.Strings()
		for i, v := range vals {
			code, ok := sentinelCodes[v]
			if !ok {
				continue
			}
			vals[i] = strconv.Itoa(code)
			switch v {
			case ".m":
				counts.M++
			case ".n":
				counts.N++
			case ".l":
				counts.L++
			case ".d":
				counts.D++
			}
		}
	}
	return counts
}

// NormalizeStratum rewrites the label "2A" to "2" in the stratum
// column. The match is case-insensitive but anchored to the whole
// cell, so only cells that are exactly "2A" or "2a" change. A missing
// stratum column is a no-op.
func NormalizeStratum(f *frame.Frame) {
	col, ok := f.Column(stratumColumn)
	if !ok {
		return
	}
	switch col.Kind() {
	case frame.String, frame.Categorical:
	default:
		return
	}
	vals := col.Strings()
	for i, v := range vals {
		if strings.EqualFold(v, "2a") {
			vals[i] = "2"
		}
	}
}

// CoerceNumeric parses every cell of every textual column as a number.
// Cells that fail to parse, or parse to a non-finite value, become
// missing. A column becomes Int when
// every parsed value is a base-10 integer fitting int32, Float
// otherwise. Columns already numeric are left alone.
func CoerceNumeric(f *frame.Frame) error {
	for _, col := range f.Columns() {
		switch col.Kind() {
		case frame.Float, frame.Int:
			continue
		case frame.String, frame.Categorical:
		default:
			return fmt.Errorf("column %s: unhandled kind %s", col.Name(), col.Kind())
		}

		n := col.Len()
		vals := col.Strings()
		floats := make([]float64, n)
		ints := make([]int32, n)
		missing := make([]bool, n)
		allInt := true

		for i := 0; i < n; i++ {
			if col.IsMissing(i) {
				missing[i] = true
				continue
			}
			// Integer first: a cell like "5.0" carries a fractional
			// form and pushes the column to Float even though its
			// value is integral.
			if iv, err := strconv.ParseInt(vals[i], 10, 32); err == nil {
				ints[i] = int32(iv)
				floats[i] = float64(iv)
				continue
			}
			fv, err := strconv.ParseFloat(vals[i], 64)
			if err != nil || math.IsInf(fv, 0) || math.IsNaN(fv) {
				missing[i] = true
				continue
			}
			allInt = false
			floats[i] = fv
		}

		if allInt {
			if err := col.ResetInt(ints, missing); err != nil {
				return err
			}
		} else {
			if err := col.ResetFloat(floats, missing); err != nil {
				return err
			}
		}
	}
	return nil
}
