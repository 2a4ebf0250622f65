// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{1, 1},       // Smallest power
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{1000, 1024}, // Default queue capacity request
		{1025, 2048}, // Just above a power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if result := NextPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestNextPowerOfTwo64(t *testing.T) {
	tests := []struct {
		n        int64
		expected int64
	}{
		{-1, 1},
		{0, 1},
		{3, 4},
		{1 << 40, 1 << 40},
		{(1 << 40) + 1, 1 << 41},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if result := NextPowerOfTwo64(tt.n); result != tt.expected {
				t.Errorf("NextPowerOfTwo64(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-8, false},
		{0, false},
		{1, true},
		{2, true},
		{6, false},
		{512, true},
		{1023, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.n), func(t *testing.T) {
			if result := IsPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func TestMask(t *testing.T) {
	if got := Mask(1024); got != 1023 {
		t.Errorf("Mask(1024) = %d, expected 1023", got)
	}
	for i := uint64(0); i < 4096; i++ {
		if i&Mask(1024) != i%1024 {
			t.Fatalf("mask wrap mismatch at %d", i)
		}
	}
}

func TestZeroAllocs(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = NextPowerOfTwo(1000)
		_ = NextPowerOfTwo64(1000)
		_ = IsPowerOfTwo(1024)
		_ = Mask(1024)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations, got %.1f", allocs)
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	for i := 0; b.Loop(); i++ {
		_ = NextPowerOfTwo(i)
	}
}
