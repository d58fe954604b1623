package types

import "testing"

func TestScale(t *testing.T) {
	v := Raw3{Tick: 8, V: [3]int32{256, -128, 0}}.Scale(1.0/256, 1000)
	if v.Micros != 1000 || v.V[0] != 1 || v.V[1] != -0.5 || v.V[2] != 0 {
		t.Fatalf("got %+v", v)
	}
	s := Raw1{V: -40}.Scale(0.0625, 7)
	if s.V != -2.5 || s.Micros != 7 {
		t.Fatalf("got %+v", s)
	}
}
