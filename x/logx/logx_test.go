//go:build !tinygo

package logx

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHostFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetJSON(false)
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)

	Warn("identity mismatch", F("sensor", "scl3300"), Hex("whoami", 0xC2), Err(errors.New("boom")))
	out := buf.String()
	for _, want := range []string{"identity mismatch", "sensor=scl3300", "whoami=0xC2", "error=boom", "level=warning"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != LevelDebug || ParseLevel("warning") != LevelWarn || ParseLevel("") != LevelInfo {
		t.Fatal("ParseLevel")
	}
	if LevelError.String() != "error" {
		t.Fatal("String")
	}
}
