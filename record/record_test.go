package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendJSONAllFields(t *testing.T) {
	r := Record{
		T:         50_125,
		Accel:     [][3]float32{{0.01, -0.02, 1}, {0.015, -0.025, 0.99996}},
		Incl:      [3]float32{1.23456, -0.5, 89.9},
		InclValid: true,
		Temp:      23.456,
		TempValid: true,
	}
	got := string(AppendJSON(nil, &r))
	want := `{"t":50125,"a":[[0.0100,-0.0200,1.0000],[0.0150,-0.0250,1.0000]],"i":[1.2346,-0.5000,89.9000],"T":23.46}`
	assert.Equal(t, want, got)
}

func TestAppendJSONNulls(t *testing.T) {
	r := Record{T: 0, Accel: [][3]float32{{0, 0, 0}}, Incl: [3]float32{9, 9, 9}, Temp: 99}
	got := AppendJSON(nil, &r)
	assert.Equal(t, `{"t":0,"a":[[0.0000,0.0000,0.0000]],"i":null,"T":null}`, string(got))

	var m map[string]any
	require.NoError(t, json.Unmarshal(got, &m))
	assert.Contains(t, m, "i")
	assert.Contains(t, m, "T")
	assert.Nil(t, m["i"])
	assert.Nil(t, m["T"])
}

func TestAppendJSONEmptyBatch(t *testing.T) {
	got := string(AppendJSON(nil, &Record{T: 7}))
	assert.Equal(t, `{"t":7,"a":[],"i":null,"T":null}`, got)
}

func TestAppendJSONParsesAsSchema(t *testing.T) {
	r := Record{T: 4294967295, InclValid: true, TempValid: true, Temp: -40}
	for i := 0; i < 100; i++ {
		r.Accel = append(r.Accel, [3]float32{float32(i) / 1000, -2.0479, 8})
	}
	var out struct {
		T uint32       `json:"t"`
		A [][3]float64 `json:"a"`
		I *[3]float64  `json:"i"`
		X *float64     `json:"T"`
	}
	require.NoError(t, json.Unmarshal(AppendJSON(nil, &r), &out))
	assert.Equal(t, uint32(4294967295), out.T)
	assert.Len(t, out.A, 100)
	assert.InDelta(t, 0.099, out.A[99][0], 1e-9)
	require.NotNil(t, out.I)
	require.NotNil(t, out.X)
	assert.Equal(t, -40.0, *out.X)
}

func TestAppendJSONDoesNotAllocateWithCapacity(t *testing.T) {
	r := Record{T: 1, Accel: make([][3]float32, 100), InclValid: true, TempValid: true}
	buf := make([]byte, 0, Size(100))
	allocs := testing.AllocsPerRun(10, func() {
		buf = AppendJSON(buf[:0], &r)
	})
	assert.Zero(t, allocs)
	assert.LessOrEqual(t, len(buf), Size(100))
}
