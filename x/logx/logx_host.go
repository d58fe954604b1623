//go:build !tinygo

package logx

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

// SetLevel sets the minimum level written.
func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		std.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		std.SetLevel(logrus.WarnLevel)
	case LevelError:
		std.SetLevel(logrus.ErrorLevel)
	default:
		std.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetJSON switches to the logrus JSON formatter.
func SetJSON(on bool) {
	if on {
		std.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func emit(l Level, msg string, fs []Field) {
	e := logrus.NewEntry(std)
	if len(fs) > 0 {
		data := make(logrus.Fields, len(fs))
		for _, f := range fs {
			if f.hex {
				data[f.Key] = fmt.Sprintf("0x%02X", f.Val)
				continue
			}
			data[f.Key] = f.Val
		}
		e = e.WithFields(data)
	}
	switch l {
	case LevelDebug:
		e.Debug(msg)
	case LevelInfo:
		e.Info(msg)
	case LevelWarn:
		e.Warn(msg)
	default:
		e.Error(msg)
	}
}
