package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOfUnwrapsChains(t *testing.T) {
	cause := errors.New("adxl355: no response")
	e := New(InitFailed, "init accel", "", cause)
	wrapped := fmt.Errorf("setup: %w", e)

	if Of(wrapped) != InitFailed {
		t.Fatalf("Of=%q", Of(wrapped))
	}
	if !Fatal(wrapped) {
		t.Fatal("expected fatal")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("cause lost")
	}
	if got := e.Error(); got != "init accel: init_failed: adxl355: no response" {
		t.Fatalf("Error()=%q", got)
	}
}

func TestOfBareCodeAndDefaults(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil")
	}
	if Of(BusConflict) != BusConflict {
		t.Fatal("bare code")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("fallback")
	}
	if Fatal(IdentityMismatch) {
		t.Fatal("identity mismatch is not fatal")
	}
}
