package models

import (
	"math"
	"testing"
)

// TestFromSliceRecordsDType verifies the element type follows the Go type
func TestFromSliceRecordsDType(t *testing.T) {
	u8, err := FromSlice([]uint8{1, 2, 3, 4}, 2, 2)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if u8.DType != Uint8 {
		t.Errorf("Expected uint8, got %v", u8.DType)
	}

	f32, _ := FromSlice([]float32{1.5}, 1)
	if f32.DType != Float32 {
		t.Errorf("Expected float32, got %v", f32.DType)
	}

	i64, _ := FromSlice([]int{7}, 1)
	if i64.DType != Int64 {
		t.Errorf("Expected int64, got %v", i64.DType)
	}

	if _, err := FromSlice([]int16{1, 2, 3}, 2, 2); err == nil {
		t.Error("Expected an error for a mismatched shape")
	}
}

// TestCast checks clipping and truncation per element type
func TestCast(t *testing.T) {
	tests := []struct {
		dtype    DType
		in, want float64
	}{
		{Uint8, 300, 255},
		{Uint8, -4, 0},
		{Uint8, 12.9, 12},
		{Int8, -200, -128},
		{Int16, -3.7, -3},
		{Uint16, math.NaN(), 0},
		{Int32, math.Inf(1), math.MaxInt32},
		{Float64, 1e300, 1e300},
	}

	for _, tc := range tests {
		if got := tc.dtype.Cast(tc.in); got != tc.want {
			t.Errorf("%v.Cast(%v): expected %v, got %v", tc.dtype, tc.in, tc.want, got)
		}
	}

	if got := Float32.Cast(0.1); got != float64(float32(0.1)) {
		t.Errorf("Expected float32 rounding, got %v", got)
	}
}

// TestDTypeRange checks integer ranges and names
func TestDTypeRange(t *testing.T) {
	lo, hi := Int16.Range()
	if lo != -32768 || hi != 32767 {
		t.Errorf("Expected int16 range [-32768, 32767], got [%v, %v]", lo, hi)
	}
	if !Uint32.IsInteger() || Float32.IsInteger() {
		t.Error("IsInteger misclassified a type")
	}
	if Uint16.String() != "uint16" || Uint16.Size() != 2 {
		t.Errorf("Unexpected uint16 metadata: %s, %d", Uint16.String(), Uint16.Size())
	}
}

// TestArrayIndexing covers Offset, At and Plane on a 3D array
func TestArrayIndexing(t *testing.T) {
	a := NewArray(Float64, 2, 3, 4)
	for i := range a.Data {
		a.Data[i] = float64(i)
	}

	if a.Rank() != 3 || a.Len() != 24 || a.Planes() != 2 {
		t.Errorf("Unexpected rank/len/planes: %d/%d/%d", a.Rank(), a.Len(), a.Planes())
	}
	if a.Rows() != 3 || a.Cols() != 4 {
		t.Errorf("Expected 3x4 planes, got %dx%d", a.Rows(), a.Cols())
	}
	if got := a.At(1, 2, 3); got != 23 {
		t.Errorf("Expected At(1,2,3) = 23, got %v", got)
	}
	if p := a.Plane(1); len(p) != 12 || p[0] != 12 {
		t.Errorf("Unexpected plane 1: %v", p)
	}
}

// TestCloneIsDeep verifies clones share nothing with the original
func TestCloneIsDeep(t *testing.T) {
	a := NewArray(Int16, 2, 2)
	b := a.Clone()
	b.Data[0] = 9
	b.Shape[0] = 7

	if a.Data[0] != 0 || a.Shape[0] != 2 {
		t.Error("Expected clone to be independent of the original")
	}
}

// TestValidateAndFinite covers shape checks and finite filtering
func TestValidateAndFinite(t *testing.T) {
	a := &Array{Shape: []int{2, 2}, Data: []float64{1, math.NaN(), math.Inf(-1), 4}}
	if err := a.Validate(); err != nil {
		t.Errorf("Expected valid array, got %v", err)
	}
	if f := a.Finite(); len(f) != 2 || f[0] != 1 || f[1] != 4 {
		t.Errorf("Expected finite values [1 4], got %v", f)
	}

	bad := &Array{Shape: []int{3}, Data: []float64{1}}
	if err := bad.Validate(); err == nil {
		t.Error("Expected an error for a short data slice")
	}

	if !a.SameAs(a.Clone()) {
		t.Error("Expected an array to equal its clone, NaN included")
	}
}

// TestUnitInfo checks data detection
func TestUnitInfo(t *testing.T) {
	if (UnitInfo{Kind: HeaderOnly}).HasData() {
		t.Error("Expected header-only unit without data")
	}
	if !(UnitInfo{Kind: Image, Shape: []int{1}}).HasData() {
		t.Error("Expected image unit with data")
	}
	if Table.String() != "table" {
		t.Errorf("Expected table, got %s", Table.String())
	}
}
