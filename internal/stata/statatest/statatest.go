// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package statatest builds small synthetic dta files (format 115,
// little endian) for tests. It supports byte, double, and fixed-width
// string variables, which covers every code path the pipeline
// exercises: numeric reads, string reads, and extended missing values.
package statatest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Extended missing codes for the sentinels the pipeline recodes.
const (
	CodeDot = int8(0)  // .
	CodeD   = int8(4)  // .d
	CodeL   = int8(12) // .l
	CodeM   = int8(13) // .m
	CodeN   = int8(14) // .n
)

// ByteMissing returns the int8 cell value encoding extended missing
// code c for a byte variable.
func ByteMissing(c int8) int8 {
	return 101 + c
}

// DoubleMissing returns the float64 cell value encoding extended
// missing code c for a double variable.
func DoubleMissing(c int8) float64 {
	return math.Float64frombits(0x7fe0000000000000 + uint64(c)<<40)
}

// Var describes one variable of the fixture file. Exactly one of the
// value slices must be set; all variables must have the same length.
type Var struct {
	Name string

	Bytes   []int8
	Doubles []float64
	Strs    []string
}

func (v Var) rows() int {
	switch {
	case v.Bytes != nil:
		return len(v.Bytes)
	case v.Doubles != nil:
		return len(v.Doubles)
	default:
		return len(v.Strs)
	}
}

// strWidth returns the fixed string width for a string variable.
func (v Var) strWidth() int {
	w := 1
	for _, s := range v.Strs {
		if len(s)+1 > w {
			w = len(s) + 1
		}
	}
	if w > 244 {
		w = 244
	}
	return w
}

// Bytes encodes the variables as a format 115 dta file.
func Bytes(vars []Var) ([]byte, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("at least one variable required")
	}
	nobs := vars[0].rows()
	for _, v := range vars {
		if v.rows() != nobs {
			return nil, fmt.Errorf("variable %s has %d rows, want %d", v.Name, v.rows(), nobs)
		}
	}

	var b bytes.Buffer
	le := binary.LittleEndian

	// Header.
	b.WriteByte(115) // format version
	b.WriteByte(2)   // LOHI byte order
	b.WriteByte(1)   // filetype
	b.WriteByte(0)   // unused
	binary.Write(&b, le, int16(len(vars)))
	binary.Write(&b, le, int32(nobs))
	writePadded(&b, "test dataset", 81)
	writePadded(&b, "01 Jan 2026 00:00", 18)

	// Type list.
	for _, v := range vars {
		switch {
		case v.Bytes != nil:
			b.WriteByte(251)
		case v.Doubles != nil:
			b.WriteByte(255)
		default:
			b.WriteByte(byte(v.strWidth()))
		}
	}

	// Variable names.
	for _, v := range vars {
		writePadded(&b, v.Name, 33)
	}

	// Sort list.
	b.Write(make([]byte, 2*(len(vars)+1)))

	// Display formats.
	for range vars {
		writePadded(&b, "%9.0g", 49)
	}

	// Value label names (none) and variable labels (none).
	for range vars {
		writePadded(&b, "", 33)
	}
	for range vars {
		writePadded(&b, "", 81)
	}

	// Expansion fields terminator.
	b.Write(make([]byte, 5))

	// Data, row major.
	for i := 0; i < nobs; i++ {
		for _, v := range vars {
			switch {
			case v.Bytes != nil:
				binary.Write(&b, le, v.Bytes[i])
			case v.Doubles != nil:
				binary.Write(&b, le, v.Doubles[i])
			default:
				writePadded(&b, v.Strs[i], v.strWidth())
			}
		}
	}

	return b.Bytes(), nil
}

// WriteFile writes a fixture dta file to path.
func WriteFile(path string, vars []Var) error {
	data, err := Bytes(vars)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writePadded(b *bytes.Buffer, s string, width int) {
	if len(s) >= width {
		s = s[:width-1]
	}
	b.WriteString(s)
	b.Write(make([]byte, width-len(s)))
}
