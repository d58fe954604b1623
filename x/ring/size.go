package ring

import "turbine-daq/x/mathx"

// CapacityFor returns the smallest power-of-two slot count whose usable
// capacity holds rateHz samples produced over headroomMs milliseconds.
func CapacityFor(rateHz, headroomMs uint32) int {
	need := mathx.CeilDiv(uint64(rateHz)*uint64(headroomMs), 1000) + 1
	return int(mathx.Max(mathx.NextPow2(need), 2))
}
