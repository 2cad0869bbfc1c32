// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frame

import "testing"

func TestNewRejectsDuplicateNames(t *testing.T) {
	a, err := NewInt("x", []int32{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewInt("x", []int32{3, 4}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(a, b); err == nil {
		t.Error("expected error for duplicate column name")
	}
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	a, err := NewInt("x", []int32{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewInt("y", []int32{3}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(a, b); err == nil {
		t.Error("expected error for row count mismatch")
	}
}

func TestNewRejectsBadMask(t *testing.T) {
	if _, err := NewFloat("x", []float64{1, 2, 3}, []bool{true}); err == nil {
		t.Error("expected error for short missing mask")
	}
}

func TestFrameAccessors(t *testing.T) {
	a, _ := NewInt("age", []int32{5, 9}, nil)
	b, _ := NewString("stratum", []string{"1", "2A"}, nil)
	f, err := New(a, b)
	if err != nil {
		t.Fatal(err)
	}

	if got := f.NumRows(); got != 2 {
		t.Errorf("NumRows = %d, want 2", got)
	}
	if got := f.NumCols(); got != 2 {
		t.Errorf("NumCols = %d, want 2", got)
	}

	names := f.Names()
	if names[0] != "age" || names[1] != "stratum" {
		t.Errorf("Names = %v, want [age stratum]", names)
	}

	col, ok := f.Column("stratum")
	if !ok {
		t.Fatal("stratum column not found")
	}
	if col.Kind() != String {
		t.Errorf("kind = %s, want string", col.Kind())
	}
	if _, ok := f.Column("nope"); ok {
		t.Error("lookup of absent column should fail")
	}
}

func TestExtLabel(t *testing.T) {
	tests := []struct {
		code int8
		want string
	}{
		{0, "."},
		{1, ".a"},
		{4, ".d"},
		{12, ".l"},
		{13, ".m"},
		{14, ".n"},
		{26, ".z"},
	}
	for _, tt := range tests {
		if got := ExtLabel(tt.code); got != tt.want {
			t.Errorf("ExtLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestExtMissing(t *testing.T) {
	col, err := NewInt("v", []int32{1, 0, 3}, []bool{false, true, false})
	if err != nil {
		t.Fatal(err)
	}
	if err := col.SetExtMissing([]int8{NoExtMissing, 13, NoExtMissing}); err != nil {
		t.Fatal(err)
	}

	if !col.IsMissing(1) || col.IsMissing(0) {
		t.Error("missing mask not preserved")
	}
	if got := col.ExtMissing(1); got != 13 {
		t.Errorf("ExtMissing(1) = %d, want 13", got)
	}
	if got := col.ExtMissing(0); got != NoExtMissing {
		t.Errorf("ExtMissing(0) = %d, want none", got)
	}
}

func TestResetRetagsColumn(t *testing.T) {
	col, err := NewString("v", []string{"1", "2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := col.ResetInt([]int32{1, 2}, nil); err != nil {
		t.Fatal(err)
	}
	if col.Kind() != Int {
		t.Errorf("kind = %s, want int", col.Kind())
	}
	if got := col.Ints(); got[1] != 2 {
		t.Errorf("Ints()[1] = %d, want 2", got[1])
	}

	if err := col.ResetFloat([]float64{1.5, 2.5}, []bool{false, true}); err != nil {
		t.Fatal(err)
	}
	if col.Kind() != Float {
		t.Errorf("kind = %s, want float", col.Kind())
	}
	if !col.IsMissing(1) {
		t.Error("missing mask lost in reset")
	}

	if err := col.ResetString([]string{"a"}, nil); err == nil {
		t.Error("expected error resetting to a different length")
	}
}
