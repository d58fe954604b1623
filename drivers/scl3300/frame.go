package scl3300

// Frame is one 32-bit response: return status in [25:24], data in [23:8]
// and CRC in [7:0].
type Frame uint32

func (f Frame) Data() uint16 { return uint16(f >> 8) }

func (f Frame) ReturnStatus() uint8 { return uint8(f>>24) & 0x03 }

// CRCValid checks the frame CRC.
func (f Frame) CRCValid() bool { return CRC8(uint32(f)) == uint8(f) }

// silent reports whether the frame looks like a floating or shorted MISO.
func (f Frame) silent() bool { return f == 0 || f == 0xFFFFFFFF }

// CRC8 computes the frame CRC over bits [31:8] (polynomial 0x1D, seed 0xFF,
// inverted result).
func CRC8(frame uint32) uint8 {
	crc := uint8(0xFF)
	for i := 31; i > 7; i-- {
		bit := uint8(frame>>uint(i)) & 1
		top := crc & 0x80
		if bit == 1 {
			top ^= 0x80
		}
		crc <<= 1
		if top != 0 {
			crc ^= 0x1D
		}
	}
	return ^crc
}

// Response builds a valid frame carrying data with the given return status.
func Response(rs uint8, data uint16) uint32 {
	f := uint32(rs&0x03)<<24 | uint32(data)<<8
	return f | uint32(CRC8(f))
}
