package types

// Raw3 is one reading of a three-axis sensor as captured in interrupt
// context: signed counts per axis plus the tick at which it was taken.
type Raw3 struct {
	Tick uint32
	V    [3]int32
}

// Raw1 is one reading of a scalar sensor.
type Raw1 struct {
	Tick uint32
	V    int32
}

// Vec3 is a converted three-axis reading. Micros is the capture time on
// the acquisition clock.
type Vec3 struct {
	Micros uint32
	V      [3]float32
}

// Scalar is a converted scalar reading.
type Scalar struct {
	Micros uint32
	V      float32
}

// Scale converts raw counts to physical units with one factor per sensor.
func (r Raw3) Scale(lsb float32, micros uint32) Vec3 {
	return Vec3{
		Micros: micros,
		V: [3]float32{
			float32(r.V[0]) * lsb,
			float32(r.V[1]) * lsb,
			float32(r.V[2]) * lsb,
		},
	}
}

func (r Raw1) Scale(lsb float32, micros uint32) Scalar {
	return Scalar{Micros: micros, V: float32(r.V) * lsb}
}
