package av

import (
	"errors"
	"testing"
)

func TestIsAgain(t *testing.T) {
	again := againError("drain first")
	if !again.IsAgain() {
		t.Error("IsAgain() = false on a backpressure error")
	}
	if !IsAgain(again) {
		t.Error("errors.Is(again, ErrAgain) = false")
	}
	if got := again.Error(); got != "drain first" {
		t.Errorf("Error() = %q, want %q", got, "drain first")
	}

	fatal := codecError(newError("boom"))
	if fatal.IsAgain() {
		t.Error("IsAgain() = true on a fatal error")
	}
	if IsAgain(fatal) {
		t.Error("errors.Is(fatal, ErrAgain) = true")
	}
	if got := fatal.Error(); got != "boom" {
		t.Errorf("Error() = %q, want %q", got, "boom")
	}
}

func TestErrorCode(t *testing.T) {
	err := errorFromRaw(-22)
	if got := err.Code(); got != -22 {
		t.Errorf("Code() = %d, want -22", got)
	}
	if err.Error() == "" {
		t.Error("Error() is empty for a native status code")
	}

	if got := newError("custom").Code(); got != 0 {
		t.Errorf("Code() = %d for a wrapper error, want 0", got)
	}
}

func TestCodecErrorUnwrap(t *testing.T) {
	inner := errorFromRaw(-22)
	err := codecError(inner)

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("errors.As did not find the inner error")
	}
	if target.Code() != -22 {
		t.Errorf("unwrapped Code() = %d, want -22", target.Code())
	}
}

func TestWrapNotLoaded(t *testing.T) {
	err := wrapNotLoaded(errors.New("no such library"))
	if !errors.Is(err, ErrLibraryNotLoaded) {
		t.Error("errors.Is(err, ErrLibraryNotLoaded) = false")
	}
}
