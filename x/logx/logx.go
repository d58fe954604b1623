// Package logx is a small levelled, structured logger. Host builds write
// through logrus; TinyGo builds print directly to the console.
//
// Never call it from interrupt context.
package logx

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is one key/value pair attached to a log line.
type Field struct {
	Key string
	Val any
	hex bool
}

func F(key string, val any) Field { return Field{Key: key, Val: val} }

// Hex renders v as 0x-prefixed uppercase hex.
func Hex(key string, v uint32) Field { return Field{Key: key, Val: v, hex: true} }

// Err attaches an error under the conventional "error" key.
func Err(err error) Field { return Field{Key: "error", Val: err} }

func Debug(msg string, fs ...Field) { emit(LevelDebug, msg, fs) }
func Info(msg string, fs ...Field)  { emit(LevelInfo, msg, fs) }
func Warn(msg string, fs ...Field)  { emit(LevelWarn, msg, fs) }
func Error(msg string, fs ...Field) { emit(LevelError, msg, fs) }

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// ParseLevel maps a name to a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}
