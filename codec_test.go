//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"errors"
	"testing"
)

func TestPumpPushStatus(t *testing.T) {
	tests := []struct {
		name  string
		ret   int32
		again bool
		fail  bool
	}{
		{"ok", 0, false, false},
		{"flushed twice", averrorEOF, false, false},
		{"backpressure", averrorAgain(), true, false},
		{"invalid argument", averrorInvalid, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pumpPushStatus(tt.ret, decoderPushAgain)
			if tt.again {
				if !IsAgain(err) {
					t.Fatalf("pumpPushStatus(%d) = %v, want Again", tt.ret, err)
				}
				if err.Error() != decoderPushAgain {
					t.Errorf("message = %q, want %q", err.Error(), decoderPushAgain)
				}
				return
			}
			if tt.fail {
				if err == nil || IsAgain(err) {
					t.Fatalf("pumpPushStatus(%d) = %v, want fatal error", tt.ret, err)
				}
				var native *Error
				if !errors.As(err, &native) || native.Code() != tt.ret {
					t.Errorf("error does not carry the native code %d", tt.ret)
				}
				return
			}
			if err != nil {
				t.Fatalf("pumpPushStatus(%d) = %v, want nil", tt.ret, err)
			}
		})
	}
}

func TestDecoderUnknownCodec(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	if _, err := NewVideoDecoder("not-a-codec").Build(); !errors.Is(err, ErrCodecNotFound) {
		t.Errorf("video decoder Build = %v, want ErrCodecNotFound", err)
	}
	if _, err := NewAudioDecoder("not-a-codec").Build(); !errors.Is(err, ErrCodecNotFound) {
		t.Errorf("audio decoder Build = %v, want ErrCodecNotFound", err)
	}
}

func TestEncoderUnknownCodec(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	_, err := NewVideoEncoder("not-a-codec").
		PixelFormat(PixelFormat(0)).
		Width(64).
		Height(48).
		Build()
	if !errors.Is(err, ErrCodecNotFound) {
		t.Errorf("video encoder Build = %v, want ErrCodecNotFound", err)
	}
}
