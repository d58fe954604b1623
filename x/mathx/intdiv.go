package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b). b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Divides reports whether d divides n exactly. d == 0 never divides.
func Divides[T constraints.Unsigned](n, d T) bool {
	return d != 0 && n%d == 0
}
