// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rds serializes a frame to an R .rds file.
//
// The output is the gzip-compressed XDR variant of R serialization
// format version 2: a single data.frame object whose columns are
// INTSXP or REALSXP vectors (STRSXP for textual columns), with the
// names, row.names, and class attributes R requires. Missing cells
// become NA of the column's type. R 2.4 and later read these files
// with readRDS().
package rds

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pdiddy/nsch-pipeline/internal/frame"
)

// SEXP type codes used by the serialization format.
const (
	sexpSym  = 1
	sexpList = 2
	sexpChar = 9
	sexpInt  = 13
	sexpReal = 14
	sexpStr  = 16
	sexpVec  = 19
	sexpNil  = 254
)

// Flag bits packed alongside the SEXP type.
const (
	flagObject = 1 << 8
	flagAttr   = 1 << 9
	flagTag    = 1 << 10
)

// CHARSXP encoding levels, shifted into the upper flag bits.
const (
	levelUTF8  = 8
	levelASCII = 64
	levelShift = 12
)

// naInt is R's NA_integer_.
const naInt = int32(math.MinInt32)

// naRealBits is the payload of R's NA_real_: a quiet NaN whose low
// word is 1954.
const naRealBits = uint64(0x7FF00000000007A2)

// Serialized header: format version 2, written by R 3.5.0, readable
// from R 2.3.0.
const (
	formatVersion = 2
	writerVersion = 3<<16 | 5<<8
	minVersion    = 2<<16 | 3<<8
)

// WriteFile serializes f as a data.frame to an .rds file at path,
// overwriting any existing file.
func WriteFile(path string, f *frame.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// Write serializes f as a gzip-compressed data.frame to w.
func Write(w io.Writer, f *frame.Frame) error {
	gz := gzip.NewWriter(w)
	enc := &encoder{w: gz}

	enc.bytes([]byte("X\n"))
	enc.int32(formatVersion)
	enc.int32(writerVersion)
	enc.int32(minVersion)

	enc.dataFrame(f)

	if enc.err != nil {
		gz.Close()
		return enc.err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flushing gzip stream: %w", err)
	}
	return nil
}

// encoder writes XDR (big endian) primitives, latching the first
// error so call sites stay linear.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(b); err != nil {
		e.err = fmt.Errorf("writing serialization stream: %w", err)
	}
}

func (e *encoder) int32(v int32) {
	if e.err != nil {
		return
	}
	if err := binary.Write(e.w, binary.BigEndian, v); err != nil {
		e.err = fmt.Errorf("writing serialization stream: %w", err)
	}
}

func (e *encoder) uint64(v uint64) {
	if e.err != nil {
		return
	}
	if err := binary.Write(e.w, binary.BigEndian, v); err != nil {
		e.err = fmt.Errorf("writing serialization stream: %w", err)
	}
}

// dataFrame writes f as a VECSXP carrying the data.frame attributes.
func (e *encoder) dataFrame(f *frame.Frame) {
	e.int32(sexpVec | flagObject | flagAttr)
	e.int32(int32(f.NumCols()))
	for _, col := range f.Columns() {
		e.column(col)
	}

	// Attribute pairlist: names, row.names (compact form), class.
	e.attr("names", func() { e.stringVec(f.Names(), nil) })
	e.attr("row.names", func() {
		e.int32(sexpInt)
		e.int32(2)
		e.int32(naInt)
		e.int32(int32(-f.NumRows()))
	})
	e.attr("class", func() { e.stringVec([]string{"data.frame"}, nil) })
	e.int32(sexpNil)
}

// attr writes one pairlist node: tag symbol plus a value produced by
// writeValue.
func (e *encoder) attr(name string, writeValue func()) {
	e.int32(sexpList | flagTag)
	e.int32(sexpSym)
	e.charsxp(name)
	writeValue()
}

func (e *encoder) column(col *frame.Column) {
	n := col.Len()
	switch col.Kind() {
	case frame.Int:
		data := col.Ints()
		e.int32(sexpInt)
		e.int32(int32(n))
		for i := 0; i < n; i++ {
			if col.IsMissing(i) {
				e.int32(naInt)
			} else {
				e.int32(data[i])
			}
		}
	case frame.Float:
		data := col.Floats()
		e.int32(sexpReal)
		e.int32(int32(n))
		for i := 0; i < n; i++ {
			if col.IsMissing(i) {
				e.uint64(naRealBits)
			} else {
				e.uint64(math.Float64bits(data[i]))
			}
		}
	case frame.String, frame.Categorical:
		e.stringVec(col.Strings(), col.Missing())
	default:
		e.err = fmt.Errorf("column %s: unhandled kind %s", col.Name(), col.Kind())
	}
}

// stringVec writes a STRSXP; cells flagged in missing become
// NA_character_.
func (e *encoder) stringVec(vals []string, missing []bool) {
	e.int32(sexpStr)
	e.int32(int32(len(vals)))
	for i, s := range vals {
		if missing != nil && missing[i] {
			e.naString()
			continue
		}
		e.charsxp(s)
	}
}

// charsxp writes one CHARSXP with its encoding level.
func (e *encoder) charsxp(s string) {
	level := levelASCII
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			level = levelUTF8
			break
		}
	}
	e.int32(int32(sexpChar | level<<levelShift))
	e.int32(int32(len(s)))
	e.bytes([]byte(s))
}

// naString writes NA_character_, a CHARSXP of length -1.
func (e *encoder) naString() {
	e.int32(sexpChar)
	e.int32(-1)
}
