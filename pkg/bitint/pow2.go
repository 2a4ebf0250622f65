// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to size FFT windows
and lock-free ring buffers.

All operations are O(1), allocation free and safe to call from the render
callback.

Usage:

	// Round a requested queue capacity up so indices can be masked
	capacity := bitint.NextPowerOfTwo(1000) // 1024

	// Reject FFT sizes the analyzer does not support
	ok := bitint.IsPowerOfTwo(framesPerBuffer)

NextPowerOfTwo subtracts one before taking the bit length so an exact power
of two maps to itself: bits.Len(7) = 3 and 1<<3 = 8, whereas bits.Len(8)
would give 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Non-positive
// sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// NextPowerOfTwo64 is NextPowerOfTwo for frame counters.
func NextPowerOfTwo64(size int64) int64 {
	if size <= 0 {
		return 1
	}
	return int64(1) << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of two
// has a single bit set, so clearing the lowest set bit with n&(n-1) leaves
// zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Mask returns size-1 for a power-of-two size, the value used to wrap ring
// indices without a modulo.
func Mask(size int) uint64 {
	return uint64(size - 1)
}
