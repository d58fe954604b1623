package conv

import "github.com/chewxy/math32"

var pow10 = [...]float32{1, 10, 100, 1000, 10000, 100000, 1000000}

// AppendFixed appends v with exactly decimals digits after the point,
// rounding half away from zero. decimals is clamped to [0, 6]. NaN and
// infinities are written as 0.
func AppendFixed(dst []byte, v float32, decimals int) []byte {
	if decimals < 0 {
		decimals = 0
	}
	if decimals >= len(pow10) {
		decimals = len(pow10) - 1
	}
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		v = 0
	}
	scaled := int64(math32.Round(v * pow10[decimals]))
	if scaled < 0 {
		dst = append(dst, '-')
		scaled = -scaled
	}
	div := uint64(1)
	for i := 0; i < decimals; i++ {
		div *= 10
	}
	u := uint64(scaled)
	dst = AppendUint(dst, u/div)
	if decimals == 0 {
		return dst
	}
	dst = append(dst, '.')
	frac := u % div
	for div /= 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+frac/div))
		frac %= div
	}
	return dst
}
