// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stata

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/pdiddy/nsch-pipeline/internal/frame"
	"github.com/pdiddy/nsch-pipeline/internal/stata/statatest"
)

func fixtureReader(t *testing.T, vars []statatest.Var) *Reader {
	t.Helper()
	data, err := statatest.Bytes(vars)
	if err != nil {
		t.Fatal(err)
	}
	rdr, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return rdr
}

func TestReaderHeader(t *testing.T) {
	rdr := fixtureReader(t, []statatest.Var{
		{Name: "age", Bytes: []int8{5, 9, 12}},
		{Name: "weight", Doubles: []float64{1.5, 2.5, 3.5}},
	})

	if got := rdr.FormatVersion(); got != 115 {
		t.Errorf("FormatVersion = %d, want 115", got)
	}
	if got := rdr.RowCount(); got != 3 {
		t.Errorf("RowCount = %d, want 3", got)
	}
	names := rdr.ColumnNames()
	if len(names) != 2 || names[0] != "age" || names[1] != "weight" {
		t.Errorf("ColumnNames = %v, want [age weight]", names)
	}
	if rdr.DatasetLabel == "" {
		t.Error("DatasetLabel should be populated")
	}
	if rdr.TimeStamp == "" {
		t.Error("TimeStamp should be populated")
	}
}

func TestReadAllNumericColumns(t *testing.T) {
	rdr := fixtureReader(t, []statatest.Var{
		{Name: "age", Bytes: []int8{5, 9}},
		{Name: "weight", Doubles: []float64{1.5, 2.5}},
	})

	f, err := rdr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if f.NumRows() != 2 || f.NumCols() != 2 {
		t.Fatalf("got %dx%d frame, want 2x2", f.NumRows(), f.NumCols())
	}

	age, _ := f.Column("age")
	if age.Kind() != frame.Int {
		t.Fatalf("age kind = %s, want int", age.Kind())
	}
	if v := age.Ints(); v[0] != 5 || v[1] != 9 {
		t.Errorf("age = %v, want [5 9]", v)
	}

	weight, _ := f.Column("weight")
	if weight.Kind() != frame.Float {
		t.Fatalf("weight kind = %s, want float", weight.Kind())
	}
	if v := weight.Floats(); v[0] != 1.5 || v[1] != 2.5 {
		t.Errorf("weight = %v, want [1.5 2.5]", v)
	}
}

func TestReadAllStringColumn(t *testing.T) {
	rdr := fixtureReader(t, []statatest.Var{
		{Name: "state", Strs: []string{"AK", "WY", ""}},
	})

	f, err := rdr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	col, _ := f.Column("state")
	if col.Kind() != frame.String {
		t.Fatalf("kind = %s, want string", col.Kind())
	}
	want := []string{"AK", "WY", ""}
	for i, w := range want {
		if got := col.Strings()[i]; got != w {
			t.Errorf("cell %d = %q, want %q", i, got, w)
		}
	}
}

func TestReadAllExtendedMissing(t *testing.T) {
	rdr := fixtureReader(t, []statatest.Var{
		{Name: "b", Bytes: []int8{
			7,
			statatest.ByteMissing(statatest.CodeDot),
			statatest.ByteMissing(statatest.CodeM),
			statatest.ByteMissing(statatest.CodeN),
		}},
		{Name: "d", Doubles: []float64{
			2.25,
			statatest.DoubleMissing(statatest.CodeL),
			statatest.DoubleMissing(statatest.CodeD),
			9,
		}},
	})

	f, err := rdr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	b, _ := f.Column("b")
	if b.IsMissing(0) {
		t.Error("b[0] should be a value")
	}
	if got := b.Ints()[0]; got != 7 {
		t.Errorf("b[0] = %d, want 7", got)
	}
	bwant := []struct {
		i    int
		code int8
	}{
		{1, statatest.CodeDot},
		{2, statatest.CodeM},
		{3, statatest.CodeN},
	}
	for _, w := range bwant {
		if !b.IsMissing(w.i) {
			t.Errorf("b[%d] should be missing", w.i)
		}
		if got := b.ExtMissing(w.i); got != w.code {
			t.Errorf("b[%d] ext code = %d, want %d", w.i, got, w.code)
		}
	}

	d, _ := f.Column("d")
	if !d.IsMissing(1) || d.ExtMissing(1) != statatest.CodeL {
		t.Errorf("d[1] ext code = %d, want %d", d.ExtMissing(1), statatest.CodeL)
	}
	if !d.IsMissing(2) || d.ExtMissing(2) != statatest.CodeD {
		t.Errorf("d[2] ext code = %d, want %d", d.ExtMissing(2), statatest.CodeD)
	}
	if d.IsMissing(3) || d.Floats()[3] != 9 {
		t.Errorf("d[3] = %v missing=%v, want 9", d.Floats()[3], d.IsMissing(3))
	}
}

func TestExtMissingCodeHelpers(t *testing.T) {
	if got := extRange(int64(statatest.ByteMissing(statatest.CodeM)), byteMissBase); got != statatest.CodeM {
		t.Errorf("byte .m code = %d, want %d", got, statatest.CodeM)
	}
	if got := extRange(50, byteMissBase); got != frame.NoExtMissing {
		t.Errorf("in-range byte should have no ext code, got %d", got)
	}
	if got := extFloat64(statatest.DoubleMissing(statatest.CodeN)); got != statatest.CodeN {
		t.Errorf("double .n code = %d, want %d", got, statatest.CodeN)
	}
	if got := extFloat64(1.5); got != frame.NoExtMissing {
		t.Errorf("ordinary double should have no ext code, got %d", got)
	}
}

func TestNewReaderRejectsGarbage(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{42, 0, 0, 0, 0, 0}))
	if err == nil {
		t.Fatal("expected error for unsupported format version")
	}
	if !strings.Contains(err.Error(), "unsupported dta format version") {
		t.Errorf("error = %v, want unsupported version", err)
	}
}

func TestNewReaderOversizedDatasetLabel(t *testing.T) {
	// A format-118 header declaring a dataset label far longer than the
	// file must fail as a truncation error, not crash.
	var b bytes.Buffer
	b.WriteString("<stata_dta><header><release>")
	b.WriteString("118")
	b.WriteString("</release><byteorder>")
	b.WriteString("LSF")
	b.WriteString("</byteorder><K>")
	binary.Write(&b, binary.LittleEndian, int16(1))
	b.WriteString("</K><N>")
	binary.Write(&b, binary.LittleEndian, int64(0))
	b.WriteString("</N><label>")
	binary.Write(&b, binary.LittleEndian, uint16(60000))
	// The label bytes are absent: the file ends here.

	_, err := NewReader(bytes.NewReader(b.Bytes()))
	if err == nil {
		t.Fatal("expected error for oversized dataset label")
	}
	if !strings.Contains(err.Error(), "dataset label") {
		t.Errorf("error = %v, want dataset label context", err)
	}
}

func TestReadValueLabelsRejectsNegativeSizes(t *testing.T) {
	tests := []struct {
		name    string
		n       int32
		textlen int32
	}{
		{"negative entry count", -1, 8},
		{"negative text length", 2, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			b.Write(make([]byte, 14)) // <value_labels>
			b.WriteString("<lbl>")
			b.Write(make([]byte, 4)) // table length
			name := make([]byte, 33)
			copy(name, "yesno")
			b.Write(name)
			b.Write(make([]byte, 3)) // padding
			binary.Write(&b, binary.LittleEndian, tt.n)
			binary.Write(&b, binary.LittleEndian, tt.textlen)

			rdr := &Reader{
				r:             bytes.NewReader(b.Bytes()),
				formatVersion: 117,
				byteOrder:     binary.LittleEndian,
			}
			err := rdr.readValueLabels()
			if err == nil {
				t.Fatal("expected error for invalid table sizes")
			}
			if !strings.Contains(err.Error(), "invalid sizes") {
				t.Errorf("error = %v, want invalid sizes", err)
			}
		})
	}
}

func TestReadValueLabelsRejectsBadOffsets(t *testing.T) {
	var b bytes.Buffer
	b.Write(make([]byte, 14)) // <value_labels>
	b.WriteString("<lbl>")
	b.Write(make([]byte, 4)) // table length
	name := make([]byte, 33)
	copy(name, "yesno")
	b.Write(name)
	b.Write(make([]byte, 3))                         // padding
	binary.Write(&b, binary.LittleEndian, int32(1))  // one entry
	binary.Write(&b, binary.LittleEndian, int32(4))  // four text bytes
	binary.Write(&b, binary.LittleEndian, int32(9))  // offset past the text
	binary.Write(&b, binary.LittleEndian, int32(1))  // code
	b.Write([]byte{'y', 'e', 's', 0})

	rdr := &Reader{
		r:             bytes.NewReader(b.Bytes()),
		formatVersion: 117,
		byteOrder:     binary.LittleEndian,
	}
	err := rdr.readValueLabels()
	if err == nil {
		t.Fatal("expected error for out-of-range label offset")
	}
	if !strings.Contains(err.Error(), "outside text") {
		t.Errorf("error = %v, want offset range context", err)
	}
}

func TestReadStrlsTruncatedMarker(t *testing.T) {
	// Two bytes of a "GSO" marker followed by EOF is a cut-off file,
	// not the end of the section.
	var b bytes.Buffer
	b.Write(make([]byte, 7)) // <strls>
	b.WriteString("GS")

	rdr := &Reader{
		r:             bytes.NewReader(b.Bytes()),
		formatVersion: 117,
		byteOrder:     binary.LittleEndian,
	}
	if err := rdr.readStrls(); err == nil {
		t.Fatal("expected error for truncated strl marker")
	}
}

func TestReadStrlsCleanEOF(t *testing.T) {
	var b bytes.Buffer
	b.Write(make([]byte, 7)) // <strls>, then nothing

	rdr := &Reader{
		r:             bytes.NewReader(b.Bytes()),
		formatVersion: 117,
		byteOrder:     binary.LittleEndian,
	}
	if err := rdr.readStrls(); err != nil {
		t.Fatalf("clean EOF should end the section: %v", err)
	}
}

func TestNewReaderTruncatedFile(t *testing.T) {
	data, err := statatest.Bytes([]statatest.Var{
		{Name: "x", Bytes: []int8{1, 2, 3}},
	})
	if err != nil {
		t.Fatal(err)
	}

	rdr, err := NewReader(bytes.NewReader(data[:len(data)-2]))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rdr.ReadAll(); err == nil {
		t.Fatal("expected error reading truncated data section")
	}
}
