//go:build tinygo

package logx

import (
	"time"

	"turbine-daq/x/conv"
)

var minLevel = LevelInfo

func SetLevel(l Level) { minLevel = l }

var prefixes = [...]string{"Debug:", "Info:", "Warn:", "Error:"}

func emit(l Level, msg string, fs []Field) {
	if l < minLevel {
		return
	}
	print(prefixes[l], " ", msg)
	var buf [20]byte
	for _, f := range fs {
		print(" ", f.Key, "=")
		if f.hex {
			if v, ok := f.Val.(uint32); ok {
				print("0x", string(trimHex(conv.U32Hex(buf[:8], v))))
				continue
			}
		}
		switch v := f.Val.(type) {
		case string:
			print(v)
		case error:
			print(v.Error())
		case bool:
			print(v)
		case int:
			print(string(conv.Itoa(buf[:], int64(v))))
		case int32:
			print(string(conv.Itoa(buf[:], int64(v))))
		case int64:
			print(string(conv.Itoa(buf[:], v)))
		case uint8:
			print(string(conv.Utoa(buf[:], uint64(v))))
		case uint16:
			print(string(conv.Utoa(buf[:], uint64(v))))
		case uint32:
			print(string(conv.Utoa(buf[:], uint64(v))))
		case uint64:
			print(string(conv.Utoa(buf[:], v)))
		case float32:
			print(v)
		case float64:
			print(v)
		case time.Duration:
			print(v.String())
		default:
			print("?")
		}
	}
	println()
}

// trimHex keeps at least two digits of a zero-padded hex string.
func trimHex(b []byte) []byte {
	for len(b) > 2 && b[0] == '0' {
		b = b[1:]
	}
	return b
}
