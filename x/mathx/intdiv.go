package mathx

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// CeilDiv returns ceil(a/b) for unsigned integers. b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// GCD returns the greatest common divisor of a and b.
func GCD[T constraints.Unsigned](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b and whether it fits in
// 64 bits. LCM(0, x) is 0.
func LCM(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(a/GCD(a, b), b)
	return lo, hi == 0
}

// MulChecked returns a*b and false on overflow.
func MulChecked(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// Log2Ceil returns the number of bits needed to hold values in [0, n).
// Log2Ceil(0) and Log2Ceil(1) are 1: a register is never zero bits wide.
func Log2Ceil(n uint64) int {
	if n <= 2 {
		return 1
	}
	return bits.Len64(n - 1)
}
