// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package frame provides a small in-memory table model for survey
// extracts: named, typed columns of uniform length with an optional
// missing-value mask.
//
// Every Column carries an explicit Kind tag and exactly one backing
// slice matching that tag. Transformation stages branch on the tag
// rather than inspecting runtime values, so an unhandled Kind is a
// programming error, not a silent pass-through.
package frame

import "fmt"

// Kind identifies the value type of a Column.
type Kind int

const (
	// Float columns hold float64 values.
	Float Kind = iota
	// Int columns hold int32 values.
	Int
	// String columns hold free-form text.
	String
	// Categorical columns hold text drawn from a labeled code set.
	Categorical
)

// String returns the Kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Categorical:
		return "categorical"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NoExtMissing marks a cell that carries no extended missing code.
const NoExtMissing = int8(-1)

// ExtLabel returns the Stata dot-label for an extended missing code:
// 0 is ".", 1 through 26 are ".a" through ".z".
func ExtLabel(code int8) string {
	if code <= 0 || code > 26 {
		return "."
	}
	return string([]byte{'.', byte('a' + code - 1)})
}

// A Column is a named, fixed-type sequence of values with an optional
// missing mask. For columns read from a Stata file, missing cells may
// additionally carry an extended missing code identifying which of the
// 27 dot-codes the source used.
type Column struct {
	name   string
	kind   Kind
	length int

	floats []float64
	ints   []int32
	strs   []string

	// missing[i] reports that cell i has no value. nil means no cell
	// is missing.
	missing []bool

	// ext[i] is the extended missing code for cell i, or NoExtMissing.
	// Only meaningful where missing[i] is true. nil means no cell has
	// an extended code.
	ext []int8
}

// NewFloat returns a Float column over data. The slices are not copied.
func NewFloat(name string, data []float64, missing []bool) (*Column, error) {
	if err := checkMask(len(data), missing); err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &Column{name: name, kind: Float, length: len(data), floats: data, missing: missing}, nil
}

// NewInt returns an Int column over data. The slices are not copied.
func NewInt(name string, data []int32, missing []bool) (*Column, error) {
	if err := checkMask(len(data), missing); err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &Column{name: name, kind: Int, length: len(data), ints: data, missing: missing}, nil
}

// NewString returns a String column over data. The slices are not copied.
func NewString(name string, data []string, missing []bool) (*Column, error) {
	if err := checkMask(len(data), missing); err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &Column{name: name, kind: String, length: len(data), strs: data, missing: missing}, nil
}

// NewCategorical returns a Categorical column whose cells are decoded
// value labels. The slices are not copied.
func NewCategorical(name string, labels []string, missing []bool) (*Column, error) {
	if err := checkMask(len(labels), missing); err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &Column{name: name, kind: Categorical, length: len(labels), strs: labels, missing: missing}, nil
}

func checkMask(n int, missing []bool) error {
	if missing != nil && len(missing) != n {
		return fmt.Errorf("missing mask length %d does not match data length %d", len(missing), n)
	}
	return nil
}

// SetExtMissing attaches extended missing codes to the column. Codes
// apply only to cells already flagged missing.
func (c *Column) SetExtMissing(ext []int8) error {
	if ext != nil && len(ext) != c.length {
		return fmt.Errorf("column %s: ext length %d does not match data length %d", c.name, len(ext), c.length)
	}
	c.ext = ext
	return nil
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column's type tag.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return c.length }

// Missing returns the missing mask, or nil when no cell is missing.
func (c *Column) Missing() []bool { return c.missing }

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	return c.missing != nil && c.missing[i]
}

// ExtMissing returns the extended missing code for cell i, or
// NoExtMissing when the cell has none.
func (c *Column) ExtMissing(i int) int8 {
	if c.ext == nil {
		return NoExtMissing
	}
	return c.ext[i]
}

// Floats returns the backing slice of a Float column.
func (c *Column) Floats() []float64 {
	if c.kind != Float {
		panic(fmt.Sprintf("Floats on %s column %s", c.kind, c.name))
	}
	return c.floats
}

// Ints returns the backing slice of an Int column.
func (c *Column) Ints() []int32 {
	if c.kind != Int {
		panic(fmt.Sprintf("Ints on %s column %s", c.kind, c.name))
	}
	return c.ints
}

// Strings returns the backing slice of a String or Categorical column.
func (c *Column) Strings() []string {
	if c.kind != String && c.kind != Categorical {
		panic(fmt.Sprintf("Strings on %s column %s", c.kind, c.name))
	}
	return c.strs
}

// ResetString replaces the column contents with string data, retagging
// the column as String. Extended missing codes are cleared: once a
// column is stringified the dot-codes are spelled out in the values.
func (c *Column) ResetString(data []string, missing []bool) error {
	if len(data) != c.length {
		return fmt.Errorf("column %s: new length %d does not match %d", c.name, len(data), c.length)
	}
	if err := checkMask(len(data), missing); err != nil {
		return fmt.Errorf("column %s: %w", c.name, err)
	}
	c.kind = String
	c.strs = data
	c.floats, c.ints, c.ext = nil, nil, nil
	c.missing = missing
	return nil
}

// ResetFloat replaces the column contents with float64 data, retagging
// the column as Float.
func (c *Column) ResetFloat(data []float64, missing []bool) error {
	if len(data) != c.length {
		return fmt.Errorf("column %s: new length %d does not match %d", c.name, len(data), c.length)
	}
	if err := checkMask(len(data), missing); err != nil {
		return fmt.Errorf("column %s: %w", c.name, err)
	}
	c.kind = Float
	c.floats = data
	c.strs, c.ints, c.ext = nil, nil, nil
	c.missing = missing
	return nil
}

// ResetInt replaces the column contents with int32 data, retagging the
// column as Int.
func (c *Column) ResetInt(data []int32, missing []bool) error {
	if len(data) != c.length {
		return fmt.Errorf("column %s: new length %d does not match %d", c.name, len(data), c.length)
	}
	if err := checkMask(len(data), missing); err != nil {
		return fmt.Errorf("column %s: %w", c.name, err)
	}
	c.kind = Int
	c.ints = data
	c.strs, c.floats, c.ext = nil, nil, nil
	c.missing = missing
	return nil
}

// A Frame is an ordered collection of equal-length columns with unique
// names. Column and row order are preserved through every pipeline
// stage.
type Frame struct {
	cols  []*Column
	index map[string]int
}

// New builds a Frame from cols, validating name uniqueness and length
// agreement.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := f.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.name)
		}
		if len(f.cols) > 0 && c.length != f.cols[0].length {
			return nil, fmt.Errorf("column %s has %d rows, want %d", c.name, c.length, f.cols[0].length)
		}
		f.index[c.name] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column { return f.cols }

// Column returns the named column, if present.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.cols) }

// NumRows returns the number of rows, 0 for an empty Frame.
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].length
}
