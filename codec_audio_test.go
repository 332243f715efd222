//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

func TestAudioEncoderBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*AudioEncoder, error)
		want  string
	}{
		{
			"missing sample format",
			func() (*AudioEncoder, error) {
				return NewAudioEncoder("aac").SampleRate(48000).Build()
			},
			"sample format not set",
		},
		{
			"missing sample rate",
			func() (*AudioEncoder, error) {
				return NewAudioEncoder("aac").SampleFormat(SampleFormat(0)).Build()
			},
			"sample rate not set",
		},
		{
			"missing channel layout",
			func() (*AudioEncoder, error) {
				return NewAudioEncoder("aac").SampleFormat(SampleFormat(0)).SampleRate(48000).Build()
			},
			"channel layout not set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil || err.Error() != tt.want {
				t.Errorf("Build() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestAudioEncoderSamplesPerFrame(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	fltp, err := SampleFormatFromName("fltp")
	if err != nil {
		t.Fatalf("Failed to resolve fltp: %v", err)
	}
	stereo, err := ChannelLayoutFromName("stereo")
	if err != nil {
		t.Fatalf("Failed to resolve stereo: %v", err)
	}
	defer stereo.Free()

	encoder, err := NewAudioEncoder("aac").
		SampleFormat(fltp).
		SampleRate(48000).
		ChannelLayout(stereo).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the encoder: %v", err)
	}
	defer encoder.Close()

	if got := encoder.SamplesPerFrame(); got != 1024 {
		t.Errorf("SamplesPerFrame = %d, want 1024", got)
	}

	params := encoder.CodecParameters()
	if got := params.CodecName(); got != "aac" {
		t.Errorf("CodecName = %q, want %q", got, "aac")
	}
	if got := params.SampleRate(); got != 48000 {
		t.Errorf("SampleRate = %d, want 48000", got)
	}
	if got := params.ChannelLayout().Channels(); got != 2 {
		t.Errorf("Channels = %d, want 2", got)
	}
	if got := params.SampleFormat(); got != fltp {
		t.Errorf("SampleFormat = %v, want %v", got, fltp)
	}
}
