package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turbine-daq/drivers/adt7420"
	"turbine-daq/drivers/adxl355"
	"turbine-daq/drivers/scl3300"
)

func noSleep(time.Duration) {}

func TestEncode20RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 256000, 524287, -524288} {
		var b [3]byte
		Encode20(b[:], v)
		assert.Equal(t, v, adxl355.Decode20(b[0], b[1], b[2]))
	}
}

func TestClampCountsSaturates(t *testing.T) {
	assert.Equal(t, int32(524287), clampCounts(10, 1.0/256000, 20))
	assert.Equal(t, int32(-524288), clampCounts(-10, 1.0/256000, 20))
	assert.Equal(t, int32(400), clampCounts(25, 0.0625, 13))
	assert.Equal(t, int32(-4096), clampCounts(-1000, 0.0625, 13))
}

func TestADXL355WithDriver(t *testing.T) {
	s := NewADXL355(1000)
	s.X.Noise, s.Y.Noise, s.Z.Noise = 0, 0, 0
	d := adxl355.New(s)

	id, err := d.Configure(adxl355.Config{})
	require.NoError(t, err)
	assert.True(t, id.Match())

	xyz, err := d.Sample()
	require.NoError(t, err)
	assert.Equal(t, int32(0), xyz[0])
	assert.InDelta(t, 5120, xyz[1], 1)
	assert.Equal(t, int32(256000), xyz[2])
	assert.Equal(t, uint32(1), s.Samples())
}

func TestADXL355Range(t *testing.T) {
	s := NewADXL355(1000)
	s.Z.Noise = 0
	d := adxl355.New(s)
	_, err := d.Configure(adxl355.Config{Range: adxl355.Range8G})
	require.NoError(t, err)

	xyz, err := d.Sample()
	require.NoError(t, err)
	assert.Equal(t, int32(64000), xyz[2])
}

func TestADXL355Faults(t *testing.T) {
	s := NewADXL355(1000)
	s.SetAbsent(true)
	_, err := adxl355.New(s).Configure(adxl355.Config{})
	assert.ErrorIs(t, err, adxl355.ErrNoResponse)

	s.SetAbsent(false)
	s.SetFailing(true)
	_, err = adxl355.New(s).Sample()
	assert.ErrorIs(t, err, ErrBus)
}

func quiet(s *SCL3300) {
	for _, w := range []*Wave{&s.AngX, &s.AngY, &s.AngZ, &s.AccX, &s.AccY, &s.AccZ} {
		w.Noise = 0
	}
}

func TestSCL3300WithDriver(t *testing.T) {
	s := NewSCL3300(20)
	quiet(s)
	d := scl3300.New(s)

	rep, err := d.Configure(scl3300.Config{Sleep: noSleep})
	require.NoError(t, err)
	assert.True(t, rep.StatusOK())
	assert.True(t, rep.IdentityOK())

	xyz, err := d.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 89.5, float32(xyz[2])*d.LSB(), 0.006)
	assert.InDelta(t, -0.4, float32(xyz[1])*d.LSB(), 0.35)
	assert.InDelta(t, 0, float32(xyz[0])*d.LSB(), 0.05)
}

func TestSCL3300Acceleration(t *testing.T) {
	s := NewSCL3300(20)
	quiet(s)
	d := scl3300.New(s)
	_, err := d.Configure(scl3300.Config{Output: scl3300.OutputAcceleration, Sleep: noSleep})
	require.NoError(t, err)

	xyz, err := d.Sample()
	require.NoError(t, err)
	assert.Equal(t, int32(6000), xyz[2])
	assert.Equal(t, int32(-42), xyz[1])
}

func TestSCL3300Faults(t *testing.T) {
	s := NewSCL3300(20)
	d := scl3300.New(s)
	_, err := d.Configure(scl3300.Config{Sleep: noSleep})
	require.NoError(t, err)

	s.CorruptCRC = true
	_, err = d.Sample()
	assert.ErrorIs(t, err, scl3300.ErrCRC)

	s.CorruptCRC = false
	s.SetAbsent(true)
	_, err = scl3300.New(s).Configure(scl3300.Config{Sleep: noSleep})
	assert.ErrorIs(t, err, scl3300.ErrNoResponse)
}

func TestADT7420WithDriver(t *testing.T) {
	s := NewADT7420()
	s.Temp.Noise = 0
	d := adt7420.New(s)

	id, err := d.Configure(adt7420.Config{})
	require.NoError(t, err)
	assert.Equal(t, uint8(adt7420.ID), id)

	c, err := d.ReadCelsius()
	require.NoError(t, err)
	assert.Equal(t, float32(18), c)

	s.Temp = Wave{Offset: -10.5}
	raw, err := d.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, int32(-168), raw)
}

func TestADT7420Absent(t *testing.T) {
	s := NewADT7420()
	s.SetAbsent(true)
	_, err := adt7420.New(s).Configure(adt7420.Config{})
	assert.True(t, errors.Is(err, adt7420.ErrNoResponse))
}
