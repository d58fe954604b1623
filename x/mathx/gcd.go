package mathx

import "golang.org/x/exp/constraints"

// GCD returns the greatest common divisor of a and b. GCD(0, b) == b.
func GCD[T constraints.Unsigned](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NextPow2 returns the smallest power of two >= v. NextPow2(0) == 1.
func NextPow2[T constraints.Unsigned](v T) T {
	p := T(1)
	for p < v && p != 0 {
		p <<= 1
	}
	return p
}

// IsPow2 reports whether v is a non-zero power of two.
func IsPow2[T constraints.Unsigned](v T) bool {
	return v != 0 && v&(v-1) == 0
}
