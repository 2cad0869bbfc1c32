// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stata reads Stata dta files (format versions 114, 115, 117,
// and 118) into frames.
//
// Extended missing values are preserved distinctly: a numeric cell
// holding one of Stata's 27 dot-codes (".", ".a" .. ".z") is flagged
// missing and keeps its code, so downstream stages can tell ".m" from
// ".d" instead of seeing a generic null. Value labels are applied to
// labeled integer variables, which come back as categorical columns.
//
// Technical information about the file format can be found at
// http://www.stata.com/help.cgi?dta
package stata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pdiddy/nsch-pipeline/internal/frame"
)

var (
	rowCountLen     = map[int]int{114: 4, 115: 4, 117: 4, 118: 8}
	datasetLabelLen = map[int]int{117: 1, 118: 2}
	valueLabelLen   = map[int]int{117: 33, 118: 129}
	voLen           = map[int]int{117: 8, 118: 12}
)

// Internal variable type codes, shared across format versions after
// translation: values at or below 2045 are fixed-width strings.
const (
	typeStrl    = 32768
	typeDouble  = 65526
	typeFloat   = 65527
	typeLong    = 65528
	typeInt     = 65529
	typeByte    = 65530
	maxStrWidth = 2045
)

// Extended missing value encodings per numeric type. The dot-codes
// occupy the top of each type's range: code 0 is ".", 1 is ".a", up
// to 26 for ".z".
const (
	byteMissBase    = 101
	intMissBase     = 32741
	longMissBase    = 2147483621
	float32MissBase = uint32(0x7f000000)
	float32MissStep = uint32(0x800)
	float64MissBase = uint64(0x7fe0000000000000)
	float64MissStep = 40 // left shift of the code
)

// A Reader reads one Stata dta file.
type Reader struct {
	// DatasetLabel is the short text label for the data set.
	DatasetLabel string

	// TimeStamp is the file's embedded creation time stamp.
	TimeStamp string

	formatVersion int
	byteOrder     binary.ByteOrder

	nvar     int
	rowCount int
	rowsRead int

	varTypes       []int
	columnNames    []string
	variableLabels []string
	formats        []string

	valueLabelNames []string
	valueLabels     map[string]map[int32]string

	strls      map[uint64]string
	strlsBytes map[uint64][]byte

	// Section offsets from the 117+ file map.
	seekVartypes        int64
	seekVarnames        int64
	seekSortlist        int64
	seekFormats         int64
	seekValueLabelNames int64
	seekVariableLabels  int64
	seekCharacteristics int64
	seekData            int64
	seekStrls           int64
	seekValueLabels     int64

	r io.ReadSeeker
}

// NewReader parses the dta header and metadata sections from r and
// returns a Reader positioned to read data rows.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	rdr := &Reader{r: r}
	if err := rdr.init(); err != nil {
		return nil, err
	}
	return rdr, nil
}

// RowCount returns the number of observations in the file.
func (rdr *Reader) RowCount() int { return rdr.rowCount }

// ColumnNames returns the variable names in file order.
func (rdr *Reader) ColumnNames() []string { return rdr.columnNames }

// FormatVersion returns the dta format version of the file.
func (rdr *Reader) FormatVersion() int { return rdr.formatVersion }

func (rdr *Reader) init() error {
	// Formats 117+ open with an XML-style header; older formats open
	// with a raw version byte.
	c := make([]byte, 1)
	if _, err := rdr.r.Read(c); err != nil {
		return fmt.Errorf("reading format marker: %w", err)
	}
	if _, err := rdr.r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var err error
	if c[0] == '<' {
		err = rdr.readNewHeader()
	} else {
		err = rdr.readOldHeader()
	}
	if err != nil {
		return err
	}

	if err := rdr.readVarTypes(); err != nil {
		return err
	}
	if rdr.formatVersion < 117 {
		if err := rdr.translateVarTypes(); err != nil {
			return err
		}
	}

	if err := rdr.readVarNames(); err != nil {
		return err
	}

	// Skip the sort list in old formats.
	if rdr.formatVersion < 117 {
		if _, err := rdr.r.Seek(int64(2*(rdr.nvar+1)), io.SeekCurrent); err != nil {
			return err
		}
	}

	if err := rdr.readFormats(); err != nil {
		return err
	}
	if err := rdr.readValueLabelNames(); err != nil {
		return err
	}
	if err := rdr.readVariableLabels(); err != nil {
		return err
	}

	if rdr.formatVersion < 117 {
		if err := rdr.readExpansionFields(); err != nil {
			return err
		}
		return nil
	}

	if err := rdr.readStrls(); err != nil {
		return err
	}
	return rdr.readValueLabels()
}

func (rdr *Reader) supportedVersion() bool {
	switch rdr.formatVersion {
	case 114, 115, 117, 118:
		return true
	}
	return false
}

// readOldHeader reads the pre-117 fixed-layout header.
func (rdr *Reader) readOldHeader() error {
	if _, err := rdr.r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var format, bo uint8
	if err := binary.Read(rdr.r, binary.LittleEndian, &format); err != nil {
		return fmt.Errorf("reading format version: %w", err)
	}
	rdr.formatVersion = int(format)
	if !rdr.supportedVersion() {
		return fmt.Errorf("unsupported dta format version %d", rdr.formatVersion)
	}

	if err := binary.Read(rdr.r, binary.LittleEndian, &bo); err != nil {
		return fmt.Errorf("reading byte order: %w", err)
	}
	if bo == 1 {
		rdr.byteOrder = binary.BigEndian
	} else {
		rdr.byteOrder = binary.LittleEndian
	}

	// Filetype byte and one unused byte.
	if _, err := rdr.r.Seek(2, io.SeekCurrent); err != nil {
		return err
	}

	var err error
	if rdr.nvar, err = rdr.readInt(2); err != nil {
		return fmt.Errorf("reading variable count: %w", err)
	}
	if rdr.rowCount, err = rdr.readInt(rowCountLen[rdr.formatVersion]); err != nil {
		return fmt.Errorf("reading observation count: %w", err)
	}

	buf := make([]byte, 81)
	if err := rdr.readFull(buf[:81]); err != nil {
		return fmt.Errorf("reading dataset label: %w", err)
	}
	rdr.DatasetLabel = string(partition(buf[:81]))

	if err := rdr.readFull(buf[:18]); err != nil {
		return fmt.Errorf("reading time stamp: %w", err)
	}
	rdr.TimeStamp = string(partition(buf[:18]))

	return nil
}

// readNewHeader reads the XML-style header used by formats 117+.
func (rdr *Reader) readNewHeader() error {
	buf := make([]byte, 500)

	// <stata_dta><header><release>
	if err := rdr.readFull(buf[:28]); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if string(buf[:11]) != "<stata_dta>" {
		return fmt.Errorf("not a Stata dta file")
	}

	if err := rdr.readFull(buf[:3]); err != nil {
		return fmt.Errorf("reading format version: %w", err)
	}
	v, err := strconv.ParseUint(string(buf[:3]), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing format version: %w", err)
	}
	rdr.formatVersion = int(v)
	if !rdr.supportedVersion() {
		return fmt.Errorf("unsupported dta format version %d", rdr.formatVersion)
	}

	// </release><byteorder>
	if _, err := rdr.r.Seek(21, io.SeekCurrent); err != nil {
		return err
	}
	if err := rdr.readFull(buf[:3]); err != nil {
		return fmt.Errorf("reading byte order: %w", err)
	}
	if string(buf[:3]) == "MSF" {
		rdr.byteOrder = binary.BigEndian
	} else {
		rdr.byteOrder = binary.LittleEndian
	}

	// </byteorder><K>
	if _, err := rdr.r.Seek(15, io.SeekCurrent); err != nil {
		return err
	}
	if rdr.nvar, err = rdr.readInt(2); err != nil {
		return fmt.Errorf("reading variable count: %w", err)
	}

	// </K><N>
	if _, err := rdr.r.Seek(7, io.SeekCurrent); err != nil {
		return err
	}
	if rdr.rowCount, err = rdr.readInt(rowCountLen[rdr.formatVersion]); err != nil {
		return fmt.Errorf("reading observation count: %w", err)
	}

	// </N><label>
	if _, err := rdr.r.Seek(11, io.SeekCurrent); err != nil {
		return err
	}
	w, err := rdr.readUint(datasetLabelLen[rdr.formatVersion])
	if err != nil {
		return fmt.Errorf("reading dataset label length: %w", err)
	}
	// The declared length is file-supplied and can exceed the scratch
	// buffer.
	if w > len(buf) {
		buf = make([]byte, w)
	}
	if err := rdr.readFull(buf[:w]); err != nil {
		return fmt.Errorf("reading dataset label: %w", err)
	}
	rdr.DatasetLabel = string(buf[:w])

	// </label><timestamp>
	if _, err := rdr.r.Seek(19, io.SeekCurrent); err != nil {
		return err
	}
	var n8 uint8
	if err := binary.Read(rdr.r, rdr.byteOrder, &n8); err != nil {
		return fmt.Errorf("reading time stamp length: %w", err)
	}
	if err := rdr.readFull(buf[:n8]); err != nil {
		return fmt.Errorf("reading time stamp: %w", err)
	}
	rdr.TimeStamp = string(buf[:n8])

	// </timestamp></header><map> plus 16 bytes of map preamble.
	if _, err := rdr.r.Seek(42, io.SeekCurrent); err != nil {
		return err
	}

	for _, p := range []*int64{
		&rdr.seekVartypes, &rdr.seekVarnames, &rdr.seekSortlist,
		&rdr.seekFormats, &rdr.seekValueLabelNames, &rdr.seekVariableLabels,
		&rdr.seekCharacteristics, &rdr.seekData, &rdr.seekStrls,
		&rdr.seekValueLabels,
	} {
		if err := binary.Read(rdr.r, rdr.byteOrder, p); err != nil {
			return fmt.Errorf("reading file map: %w", err)
		}
	}

	return nil
}

func (rdr *Reader) readVarTypes() error {
	width := 1
	if rdr.formatVersion >= 117 {
		width = 2
		if _, err := rdr.r.Seek(rdr.seekVartypes+16, io.SeekStart); err != nil {
			return err
		}
	}
	rdr.varTypes = make([]int, rdr.nvar)
	for k := 0; k < rdr.nvar; k++ {
		t, err := rdr.readUint(width)
		if err != nil {
			return fmt.Errorf("reading variable types: %w", err)
		}
		rdr.varTypes[k] = t
	}
	return nil
}

// translateVarTypes maps the old-format type codes onto the 117+
// codes so the rest of the reader handles one scheme.
func (rdr *Reader) translateVarTypes() error {
	for k := 0; k < rdr.nvar; k++ {
		switch t := rdr.varTypes[k]; {
		case t <= 244:
			// Fixed-width string, width is the code itself.
		case t == 251:
			rdr.varTypes[k] = typeByte
		case t == 252:
			rdr.varTypes[k] = typeInt
		case t == 253:
			rdr.varTypes[k] = typeLong
		case t == 254:
			rdr.varTypes[k] = typeFloat
		case t == 255:
			rdr.varTypes[k] = typeDouble
		default:
			return fmt.Errorf("unknown variable type %d in variable %d", t, k)
		}
	}
	return nil
}

func (rdr *Reader) readVarNames() error {
	bufsize := 33
	if rdr.formatVersion == 118 {
		bufsize = 129
	}
	if rdr.formatVersion >= 117 {
		if _, err := rdr.r.Seek(rdr.seekVarnames+10, io.SeekStart); err != nil {
			return err
		}
	}
	buf := make([]byte, bufsize)
	rdr.columnNames = make([]string, rdr.nvar)
	for k := 0; k < rdr.nvar; k++ {
		if err := rdr.readFull(buf); err != nil {
			return fmt.Errorf("reading variable names: %w", err)
		}
		rdr.columnNames[k] = string(partition(buf))
	}
	return nil
}

func (rdr *Reader) readFormats() error {
	bufsize := 49
	if rdr.formatVersion == 118 {
		bufsize = 57
	}
	if rdr.formatVersion >= 117 {
		if _, err := rdr.r.Seek(rdr.seekFormats+9, io.SeekStart); err != nil {
			return err
		}
	}
	buf := make([]byte, bufsize)
	rdr.formats = make([]string, rdr.nvar)
	for k := 0; k < rdr.nvar; k++ {
		if err := rdr.readFull(buf); err != nil {
			return fmt.Errorf("reading formats: %w", err)
		}
		rdr.formats[k] = string(partition(buf))
	}
	return nil
}

func (rdr *Reader) readValueLabelNames() error {
	bufsize := 33
	if rdr.formatVersion == 118 {
		bufsize = 129
	}
	if rdr.formatVersion >= 117 {
		if _, err := rdr.r.Seek(rdr.seekValueLabelNames+19, io.SeekStart); err != nil {
			return err
		}
	}
	buf := make([]byte, bufsize)
	rdr.valueLabelNames = make([]string, rdr.nvar)
	for k := 0; k < rdr.nvar; k++ {
		if err := rdr.readFull(buf); err != nil {
			return fmt.Errorf("reading value label names: %w", err)
		}
		rdr.valueLabelNames[k] = string(partition(buf))
	}
	return nil
}

func (rdr *Reader) readVariableLabels() error {
	bufsize := 81
	if rdr.formatVersion >= 117 {
		bufsize = 321
		if _, err := rdr.r.Seek(rdr.seekVariableLabels+17, io.SeekStart); err != nil {
			return err
		}
	}
	buf := make([]byte, bufsize)
	rdr.variableLabels = make([]string, rdr.nvar)
	for k := 0; k < rdr.nvar; k++ {
		if err := rdr.readFull(buf); err != nil {
			return fmt.Errorf("reading variable labels: %w", err)
		}
		rdr.variableLabels[k] = string(partition(buf))
	}
	return nil
}

// readExpansionFields skips the characteristic blocks of old-format
// files; the data section follows immediately.
func (rdr *Reader) readExpansionFields() error {
	for {
		var b byte
		var n int32
		if err := binary.Read(rdr.r, rdr.byteOrder, &b); err != nil {
			return fmt.Errorf("reading expansion fields: %w", err)
		}
		if err := binary.Read(rdr.r, rdr.byteOrder, &n); err != nil {
			return fmt.Errorf("reading expansion fields: %w", err)
		}
		if b == 0 && n == 0 {
			return nil
		}
		if _, err := rdr.r.Seek(int64(n), io.SeekCurrent); err != nil {
			return err
		}
	}
}

func (rdr *Reader) readValueLabels() error {
	vl := make(map[string]map[int32]string)
	vlw := valueLabelLen[rdr.formatVersion]

	if _, err := rdr.r.Seek(rdr.seekValueLabels+14, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, 321)
	for {
		if err := rdr.readFull(buf[:5]); err != nil {
			break
		}
		if string(buf[:5]) != "<lbl>" {
			break
		}

		if _, err := rdr.r.Seek(4, io.SeekCurrent); err != nil {
			return err
		}
		if err := rdr.readFull(buf[:vlw]); err != nil {
			return fmt.Errorf("reading value label name: %w", err)
		}
		labname := string(partition(buf[:vlw]))
		if _, err := rdr.r.Seek(3, io.SeekCurrent); err != nil {
			return err
		}

		var n, textlen int32
		if err := binary.Read(rdr.r, rdr.byteOrder, &n); err != nil {
			return fmt.Errorf("reading value label table %s: %w", labname, err)
		}
		if err := binary.Read(rdr.r, rdr.byteOrder, &textlen); err != nil {
			return fmt.Errorf("reading value label table %s: %w", labname, err)
		}
		if n < 0 || textlen < 0 {
			return fmt.Errorf("value label table %s has invalid sizes (%d entries, %d text bytes)", labname, n, textlen)
		}

		off := make([]int32, n)
		val := make([]int32, n)
		for j := int32(0); j < n; j++ {
			if err := binary.Read(rdr.r, rdr.byteOrder, &off[j]); err != nil {
				return fmt.Errorf("reading value label offsets: %w", err)
			}
		}
		for j := int32(0); j < n; j++ {
			if err := binary.Read(rdr.r, rdr.byteOrder, &val[j]); err != nil {
				return fmt.Errorf("reading value label codes: %w", err)
			}
		}

		if cap(buf) < int(textlen) {
			buf = make([]byte, 2*textlen)
		}
		if err := rdr.readFull(buf[:textlen]); err != nil {
			return fmt.Errorf("reading value label text: %w", err)
		}

		vk := make(map[int32]string, n)
		for j := int32(0); j < n; j++ {
			if off[j] < 0 || off[j] >= textlen {
				return fmt.Errorf("value label table %s: offset %d outside text of %d bytes", labname, off[j], textlen)
			}
			vk[val[j]] = string(partition(buf[off[j]:textlen]))
		}
		vl[labname] = vk

		// </lbl>
		if _, err := rdr.r.Seek(6, io.SeekCurrent); err != nil {
			return err
		}
	}

	rdr.valueLabels = vl
	return nil
}

func (rdr *Reader) readStrls() error {
	if _, err := rdr.r.Seek(rdr.seekStrls+7, io.SeekStart); err != nil {
		return err
	}

	vo := make([]byte, voLen[rdr.formatVersion])
	vo8 := make([]byte, 8)
	buf := make([]byte, 100)
	buf3 := make([]byte, 3)

	rdr.strls = map[uint64]string{0: ""}
	rdr.strlsBytes = make(map[uint64][]byte)

	for {
		// Clean EOF ends the section; a short read means the file was
		// cut off mid-record.
		if _, err := io.ReadFull(rdr.r, buf3); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading strls: %w", err)
		}
		if string(buf3) != "GSO" {
			return nil
		}

		var t uint8
		var length uint32
		if err := binary.Read(rdr.r, rdr.byteOrder, vo); err != nil {
			return fmt.Errorf("reading strl pointer: %w", err)
		}
		if err := binary.Read(rdr.r, rdr.byteOrder, &t); err != nil {
			return fmt.Errorf("reading strl type: %w", err)
		}
		if err := binary.Read(rdr.r, rdr.byteOrder, &length); err != nil {
			return fmt.Errorf("reading strl length: %w", err)
		}

		// Format 118 packs the pointer as 2+6 bytes, 117 as 4+4.
		if len(vo) == 12 {
			copy(vo8[0:2], vo[0:2])
			copy(vo8[2:8], vo[4:10])
		} else {
			copy(vo8, vo)
		}
		var ptr uint64
		if err := binary.Read(bytes.NewReader(vo8), rdr.byteOrder, &ptr); err != nil {
			return err
		}

		if len(buf) < int(length) {
			buf = make([]byte, 2*length)
		}
		if err := rdr.readFull(buf[:length]); err != nil {
			return fmt.Errorf("reading strl payload: %w", err)
		}

		switch t {
		case 130:
			rdr.strls[ptr] = string(partition(buf[:length]))
		case 129:
			b := make([]byte, length)
			copy(b, buf[:length])
			rdr.strlsBytes[ptr] = b
		default:
			return fmt.Errorf("unknown strl payload type %d", t)
		}
	}
}

// ReadAll reads every observation and returns the data set as a frame.
// Dates are returned as raw numeric values (days or milliseconds since
// 1960-01-01, depending on the display format).
func (rdr *Reader) ReadAll() (*frame.Frame, error) {
	cols, err := rdr.read(-1)
	if err != nil {
		return nil, err
	}
	return frame.New(cols...)
}

// rawColumn accumulates one variable's cells during the row scan.
type rawColumn struct {
	strs    []string
	ints    []int32
	floats  []float64
	missing []bool
	ext     []int8
	anyMiss bool
	anyExt  bool
}

// read reads up to rows observations (all remaining when rows is
// negative) and converts them to frame columns.
func (rdr *Reader) read(rows int) ([]*frame.Column, error) {
	nval := rdr.rowCount - rdr.rowsRead
	if rows >= 0 && nval > rows {
		nval = rows
	}
	if nval < 0 {
		nval = 0
	}

	raw := make([]*rawColumn, rdr.nvar)
	for j, t := range rdr.varTypes {
		rc := &rawColumn{
			missing: make([]bool, nval),
			ext:     make([]int8, nval),
		}
		for i := range rc.ext {
			rc.ext[i] = frame.NoExtMissing
		}
		switch {
		case t <= maxStrWidth, t == typeStrl:
			rc.strs = make([]string, nval)
		case t == typeDouble, t == typeFloat:
			rc.floats = make([]float64, nval)
		case t == typeLong, t == typeInt, t == typeByte:
			rc.ints = make([]int32, nval)
		default:
			return nil, fmt.Errorf("unknown variable type %d in variable %s", t, rdr.columnNames[j])
		}
		raw[j] = rc
	}

	if rdr.formatVersion >= 117 && rdr.rowsRead == 0 {
		if _, err := rdr.r.Seek(rdr.seekData+6, io.SeekStart); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, maxStrWidth)
	buf8 := make([]byte, 8)

	for i := 0; i < nval; i++ {
		rdr.rowsRead++
		for j := 0; j < rdr.nvar; j++ {
			rc := raw[j]
			switch t := rdr.varTypes[j]; {
			case t <= maxStrWidth:
				if err := rdr.readFull(buf[:t]); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.strs[i] = string(partition(buf[:t]))
			case t == typeStrl:
				if err := rdr.readFull(buf8); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				var ptr uint64
				if err := binary.Read(bytes.NewReader(buf8), rdr.byteOrder, &ptr); err != nil {
					return nil, err
				}
				rc.strs[i] = rdr.strls[ptr]
			case t == typeDouble:
				var x float64
				if err := binary.Read(rdr.r, rdr.byteOrder, &x); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.floats[i] = x
				if x > 8.988e307 || x < -8.988e307 {
					rc.setMissing(i, extFloat64(x))
				}
			case t == typeFloat:
				var x float32
				if err := binary.Read(rdr.r, rdr.byteOrder, &x); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.floats[i] = float64(x)
				if x > 1.701e38 || x < -1.701e38 {
					rc.setMissing(i, extFloat32(x))
				}
			case t == typeLong:
				var x int32
				if err := binary.Read(rdr.r, rdr.byteOrder, &x); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.ints[i] = x
				if x > longMissBase-1 || x < -2147483647 {
					rc.setMissing(i, extRange(int64(x), longMissBase))
				}
			case t == typeInt:
				var x int16
				if err := binary.Read(rdr.r, rdr.byteOrder, &x); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.ints[i] = int32(x)
				if x > intMissBase-1 || x < -32767 {
					rc.setMissing(i, extRange(int64(x), intMissBase))
				}
			case t == typeByte:
				var x int8
				if err := binary.Read(rdr.r, rdr.byteOrder, &x); err != nil {
					return nil, fmt.Errorf("reading row %d: %w", rdr.rowsRead, err)
				}
				rc.ints[i] = int32(x)
				if x > byteMissBase-1 || x < -127 {
					rc.setMissing(i, extRange(int64(x), byteMissBase))
				}
			}
		}
	}

	cols := make([]*frame.Column, rdr.nvar)
	for j, rc := range raw {
		col, err := rdr.buildColumn(j, rc, nval)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return cols, nil
}

func (rc *rawColumn) setMissing(i int, code int8) {
	rc.missing[i] = true
	rc.anyMiss = true
	if code != frame.NoExtMissing {
		rc.ext[i] = code
		rc.anyExt = true
	}
}

// buildColumn converts one raw column to its frame representation,
// applying value labels to labeled integer variables.
func (rdr *Reader) buildColumn(j int, rc *rawColumn, nval int) (*frame.Column, error) {
	name := rdr.columnNames[j]

	var missing []bool
	if rc.anyMiss {
		missing = rc.missing
	}

	labels := rdr.valueLabels[rdr.valueLabelNames[j]]
	if labels != nil && rc.ints != nil {
		// Labeled integer variable: decode codes to their labels.
		vals := make([]string, nval)
		for i := 0; i < nval; i++ {
			if rc.missing[i] {
				continue
			}
			if v, ok := labels[rc.ints[i]]; ok {
				vals[i] = v
			} else {
				vals[i] = strconv.FormatInt(int64(rc.ints[i]), 10)
			}
		}
		col, err := frame.NewCategorical(name, vals, missing)
		if err != nil {
			return nil, err
		}
		return withExt(col, rc)
	}

	var col *frame.Column
	var err error
	switch {
	case rc.strs != nil:
		col, err = frame.NewString(name, rc.strs, missing)
	case rc.floats != nil:
		col, err = frame.NewFloat(name, rc.floats, missing)
	default:
		col, err = frame.NewInt(name, rc.ints, missing)
	}
	if err != nil {
		return nil, err
	}
	return withExt(col, rc)
}

func withExt(col *frame.Column, rc *rawColumn) (*frame.Column, error) {
	if !rc.anyExt {
		return col, nil
	}
	if err := col.SetExtMissing(rc.ext); err != nil {
		return nil, err
	}
	return col, nil
}

// extRange returns the extended missing code for an integer value
// whose type's dot-code range starts at base.
func extRange(x, base int64) int8 {
	code := x - base
	if code < 0 || code > 26 {
		return frame.NoExtMissing
	}
	return int8(code)
}

func extFloat64(x float64) int8 {
	bits := math.Float64bits(x)
	if bits < float64MissBase {
		return frame.NoExtMissing
	}
	code := (bits - float64MissBase) >> float64MissStep
	if code > 26 {
		return frame.NoExtMissing
	}
	return int8(code)
}

func extFloat32(x float32) int8 {
	bits := math.Float32bits(x)
	if bits < float32MissBase {
		return frame.NoExtMissing
	}
	code := (bits - float32MissBase) / float32MissStep
	if code > 26 {
		return frame.NoExtMissing
	}
	return int8(code)
}

func (rdr *Reader) readInt(width int) (int, error) {
	switch width {
	case 1:
		var x int8
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	case 2:
		var x int16
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	case 4:
		var x int32
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	case 8:
		var x int64
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	}
	return 0, fmt.Errorf("unsupported integer width %d", width)
}

func (rdr *Reader) readUint(width int) (int, error) {
	switch width {
	case 1:
		var x uint8
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	case 2:
		var x uint16
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	case 4:
		var x uint32
		err := binary.Read(rdr.r, rdr.byteOrder, &x)
		return int(x), err
	}
	return 0, fmt.Errorf("unsupported integer width %d", width)
}

// readFull fills buf or reports the file as truncated.
func (rdr *Reader) readFull(buf []byte) error {
	if _, err := io.ReadFull(rdr.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return fmt.Errorf("dta file appears to be truncated: %w", err)
		}
		return err
	}
	return nil
}

// partition returns everything before the first null byte.
func partition(b []byte) []byte {
	for i, v := range b {
		if v == 0 {
			return b[:i]
		}
	}
	return b
}
