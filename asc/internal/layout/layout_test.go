package layout

import (
	"math"
	"testing"
)

func TestSafeMulU32(t *testing.T) {
	tests := []struct {
		a, b uint32
		want uint32
		ok   bool
	}{
		{0, 0, 0, true},
		{4, 8, 32, true},
		{math.MaxUint32, 1, math.MaxUint32, true},
		{math.MaxUint32, 2, 0, false},
		{1 << 16, 1 << 16, 0, false},
		{7, 0, 0, true},
	}
	for _, tt := range tests {
		got, ok := SafeMulU32(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SafeMulU32(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSafeAddU32(t *testing.T) {
	tests := []struct {
		a, b uint32
		want uint32
		ok   bool
	}{
		{1, 2, 3, true},
		{math.MaxUint32, 0, math.MaxUint32, true},
		{math.MaxUint32, 1, 0, false},
		{math.MaxUint32 - 8, 8, math.MaxUint32, true},
	}
	for _, tt := range tests {
		got, ok := SafeAddU32(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SafeAddU32(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 4, 12},
		{5, 0, 5},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	if got := TypeName(nil); got != "nil" {
		t.Errorf("TypeName(nil) = %q", got)
	}
	if got := TypeName(uint32(1)); got != "uint32" {
		t.Errorf("TypeName(uint32) = %q", got)
	}
}
