package mathx

import "testing"

func TestGCD(t *testing.T) {
	cases := []struct{ a, b, want uint32 }{
		{8, 400, 8},
		{8, 8000, 8},
		{400, 8000, 400},
		{7, 5, 1},
		{0, 9, 9},
		{9, 0, 9},
	}
	for _, tc := range cases {
		if got := GCD(tc.a, tc.b); got != tc.want {
			t.Fatalf("GCD(%d,%d)=%d want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNextPow2(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {101, 128}, {4096, 4096}, {4097, 8192},
	}
	for _, tc := range cases {
		if got := NextPow2(tc.in); got != tc.want {
			t.Fatalf("NextPow2(%d)=%d want %d", tc.in, got, tc.want)
		}
	}
	if !IsPow2(uint32(64)) || IsPow2(uint32(0)) || IsPow2(uint32(96)) {
		t.Fatal("IsPow2")
	}
}

func TestCeilDivAndDivides(t *testing.T) {
	if CeilDiv(uint32(10), 3) != 4 || CeilDiv(uint32(9), 3) != 3 || CeilDiv(uint32(1), 0) != 0 {
		t.Fatal("CeilDiv")
	}
	if !Divides(uint32(8000), 8) || Divides(uint32(8000), 3) || Divides(uint32(8000), 0) {
		t.Fatal("Divides")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 10, 0) != 5 || Clamp(-1, 0, 10) != 0 || Clamp(11, 0, 10) != 10 {
		t.Fatal("Clamp")
	}
}
