//go:build !tinygo

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turbine-daq/bus"
	"turbine-daq/errcode"
	"turbine-daq/services/config"
	"turbine-daq/services/daq"
	"turbine-daq/services/session"
)

func TestPicoWiring(t *testing.T) {
	assert.Equal(t, "pico", Pico.Name)
	assert.NotEqual(t, Pico.AccelCS, Pico.InclCS)
	assert.Equal(t, uint32(400_000), Pico.I2C.Hz)
}

func TestSimulatedBoardRunsSetup(t *testing.T) {
	cfg := config.Default()
	b := NewSimulated(cfg)
	conn := bus.NewBus(8).NewConnection("platform-test")

	sys, err := daq.Setup(cfg, b.Hardware(), session.NewLocal(conn), conn)
	require.NoError(t, err)
	assert.True(t, sys.TempEnabled)
	assert.True(t, sys.Identity.Accel.Match())
}

func TestSimulatedFault(t *testing.T) {
	cfg := config.Default()
	b := NewSimulated(cfg)
	assert.False(t, b.Fault("gyro", true))
	require.True(t, b.Fault("incl", true))

	conn := bus.NewBus(8).NewConnection("platform-test")
	_, err := daq.Setup(cfg, b.Hardware(), session.NewLocal(conn), conn)
	assert.Equal(t, errcode.InitFailed, errcode.Of(err))
}
