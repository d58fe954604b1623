// Package record defines the published measurement record and its compact,
// fixed-schema text encoding:
//
//	{"t":<u32>,"a":[[x,y,z],...],"i":[x,y,z]|null,"T":<float>|null}
//
// Axis values carry four decimals, the scalar two. "i" and "T" are always
// present and are null whenever their value is not currently valid.
package record

import "turbine-daq/x/conv"

const (
	AxisDecimals   = 4
	ScalarDecimals = 2
)

// Record is one batch of fast samples plus the slower fields valid at the
// time the batch closed.
type Record struct {
	// T is the capture time of the first sample in Accel, in µs.
	T     uint32
	Accel [][3]float32

	Incl      [3]float32
	InclValid bool

	Temp      float32
	TempValid bool
}

// AppendJSON appends the encoding of r to dst. It does not allocate when dst
// has room.
func AppendJSON(dst []byte, r *Record) []byte {
	dst = append(dst, `{"t":`...)
	dst = conv.AppendUint(dst, uint64(r.T))
	dst = append(dst, `,"a":[`...)
	for i := range r.Accel {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendVec(dst, &r.Accel[i])
	}
	dst = append(dst, `],"i":`...)
	if r.InclValid {
		dst = appendVec(dst, &r.Incl)
	} else {
		dst = append(dst, "null"...)
	}
	dst = append(dst, `,"T":`...)
	if r.TempValid {
		dst = conv.AppendFixed(dst, r.Temp, ScalarDecimals)
	} else {
		dst = append(dst, "null"...)
	}
	return append(dst, '}')
}

// Size returns an upper bound on the encoded length of a record holding n
// fast samples, for preallocating the output buffer.
func Size(n int) int {
	const (
		vec   = 3*16 + 4 // three signed fixed-point numbers, brackets, commas
		fixed = len(`{"t":4294967295,"a":[],"i":,"T":}`) + vec + 16
	)
	return fixed + n*(vec+1)
}

func appendVec(dst []byte, v *[3]float32) []byte {
	dst = append(dst, '[')
	dst = conv.AppendFixed(dst, v[0], AxisDecimals)
	dst = append(dst, ',')
	dst = conv.AppendFixed(dst, v[1], AxisDecimals)
	dst = append(dst, ',')
	dst = conv.AppendFixed(dst, v[2], AxisDecimals)
	return append(dst, ']')
}
