package scl3300

// 32-bit command frames with CRC already in the low byte.
const (
	CmdReadAccX   uint32 = 0x040000F7
	CmdReadAccY   uint32 = 0x080000FD
	CmdReadAccZ   uint32 = 0x0C0000FB
	CmdReadStatus uint32 = 0x180000E5
	CmdReadAngX   uint32 = 0x240000C7
	CmdReadAngY   uint32 = 0x280000CD
	CmdReadAngZ   uint32 = 0x2C0000CB
	CmdWhoAmI     uint32 = 0x40000091
	CmdSWReset    uint32 = 0xB4002098
	CmdEnableAng  uint32 = 0xB0001F6F
)

var modeCmd = [...]uint32{
	1: 0xB400001F,
	2: 0xB4000102,
	3: 0xB4000225,
	4: 0xB4000338,
}

// Acceleration sensitivity in counts per g, by mode.
var accSensitivity = [...]float32{
	1: 6000,
	2: 3000,
	3: 12000,
	4: 12000,
}

const (
	WhoAmI = 0xC1

	// AngleLSB is degrees per count for angle outputs.
	AngleLSB float32 = 0.0055
)

// Return status, bits [25:24] of every response.
const (
	RSStartup  = 0b00
	RSNormal   = 0b01
	RSSelfTest = 0b10
	RSError    = 0b11
)
