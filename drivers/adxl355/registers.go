package adxl355

// Register map (subset used by this driver).
const (
	regDevIDAD  = 0x00
	regDevIDMST = 0x01
	regPartID   = 0x02
	regRevID    = 0x03
	regStatus   = 0x04
	regXData3   = 0x08
	regFilter   = 0x28
	regRange    = 0x2C
	regPowerCtl = 0x2D
	regReset    = 0x2F
)

// Expected identity.
const (
	DevIDAD = 0xAD
	PartID  = 0xED
)

const (
	resetCode    = 0x52
	powerMeasure = 0x00 // clear STANDBY, temperature and DRDY enabled
	powerStandby = 0x01
	burstReadCmd = regXData3<<1 | 1
	burstLen     = 10 // command byte + 3 axes x 3 bytes
	signBit20    = 1 << 19
	signExtend20 = 0xFFF00000
)

// Range selects the full-scale measurement range.
type Range uint8

const (
	Range2G Range = 0x01
	Range4G Range = 0x02
	Range8G Range = 0x03
)

// LSB returns the scale factor in g per count for the range.
func (r Range) LSB() float32 {
	switch r {
	case Range4G:
		return 1.0 / 128000
	case Range8G:
		return 1.0 / 64000
	default:
		return 1.0 / 256000
	}
}

func (r Range) valid() bool { return r >= Range2G && r <= Range8G }
