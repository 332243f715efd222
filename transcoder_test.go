//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

func TestAudioTranscoderBuilderValidation(t *testing.T) {
	_, err := NewAudioTranscoder(nil, nil).Build()
	if err == nil || err.Error() != "input codec parameters not set" {
		t.Errorf("Build() error = %v, want %q", err, "input codec parameters not set")
	}
}

func TestAudioTranscoderMissingSampleRate(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	mono, err := ChannelLayoutFromName("mono")
	if err != nil {
		t.Fatalf("Failed to resolve mono: %v", err)
	}
	defer mono.Free()
	fltp, err := SampleFormatFromName("fltp")
	if err != nil {
		t.Fatalf("Failed to resolve fltp: %v", err)
	}

	builder, err := NewAudioCodecParameters("aac")
	if err != nil {
		t.Fatalf("Failed to create a parameters builder: %v", err)
	}
	params := builder.SampleFormat(fltp).ChannelLayout(mono).Build()
	defer params.Free()

	_, err = NewAudioTranscoder(params, params).Build()
	if err == nil || err.Error() != "input sample rate not set" {
		t.Errorf("Build() error = %v, want %q", err, "input sample rate not set")
	}
}

// encodeSilence produces AAC packets to feed transcoding tests with.
func encodeSilence(t *testing.T, layout *ChannelLayout, format SampleFormat, rate, frames int) (*AudioCodecParameters, []*Packet) {
	t.Helper()

	encoder, err := NewAudioEncoder("aac").
		SampleFormat(format).
		SampleRate(rate).
		ChannelLayout(layout).
		TimeBase(NewTimeBase(1, int32(rate))).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the encoder: %v", err)
	}
	defer encoder.Close()

	var packets []*Packet
	drain := func() {
		for {
			packet, err := encoder.Take()
			if err != nil {
				t.Fatalf("Failed to take a packet: %v", err)
			}
			if packet == nil {
				return
			}
			packets = append(packets, packet)
		}
	}

	samples := encoder.SamplesPerFrame()
	for i := 0; i < frames; i++ {
		frame := silenceAt(t, layout, format, rate, samples, int64(i*samples))
		for {
			err := encoder.Push(frame)
			if err == nil {
				break
			}
			if !IsAgain(err) {
				t.Fatalf("Failed to push a frame: %v", err)
			}
			drain()
		}
		drain()
	}
	for {
		err := encoder.Flush()
		if err == nil {
			break
		}
		if !IsAgain(err) {
			t.Fatalf("Failed to flush the encoder: %v", err)
		}
		drain()
	}
	drain()

	return encoder.CodecParameters(), packets
}

func TestAudioTranscoder(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	mono, err := ChannelLayoutFromName("mono")
	if err != nil {
		t.Fatalf("Failed to resolve mono: %v", err)
	}
	defer mono.Free()
	fltp, err := SampleFormatFromName("fltp")
	if err != nil {
		t.Fatalf("Failed to resolve fltp: %v", err)
	}

	input, packets := encodeSilence(t, mono, fltp, 48000, 20)
	defer input.Free()
	if len(packets) == 0 {
		t.Fatal("the encoder produced no packets")
	}

	builder, err := NewAudioCodecParameters("aac")
	if err != nil {
		t.Fatalf("Failed to create a parameters builder: %v", err)
	}
	output := builder.
		SampleFormat(fltp).
		SampleRate(16000).
		ChannelLayout(mono).
		BitRate(48000).
		Build()
	defer output.Free()

	transcoder, err := NewAudioTranscoder(input, output).Build()
	if err != nil {
		t.Fatalf("Failed to build the transcoder: %v", err)
	}
	defer transcoder.Close()

	// Starvation before the first push reports nothing ready, not an
	// error.
	if packet, err := transcoder.Take(); packet != nil || err != nil {
		t.Fatalf("Take() before the first push = (%v, %v), want (nil, nil)", packet, err)
	}

	if got := transcoder.CodecParameters().SampleRate(); got != 16000 {
		t.Errorf("CodecParameters().SampleRate() = %d, want 16000", got)
	}

	var out []*Packet
	drain := func() {
		for {
			packet, err := transcoder.Take()
			if err != nil {
				t.Fatalf("Failed to take a transcoded packet: %v", err)
			}
			if packet == nil {
				return
			}
			if packet.TimeBase() != NewTimeBase(1, 16000) {
				t.Errorf("packet time base = %v, want 1/16000", packet.TimeBase())
			}
			out = append(out, packet)
		}
	}

	checkedAgain := false
	for _, packet := range packets {
		for {
			err := transcoder.Push(packet)
			if err == nil {
				break
			}
			if !IsAgain(err) {
				t.Fatalf("Failed to push a packet: %v", err)
			}
			if !checkedAgain {
				checkedAgain = true
				if got := err.Error(); got != "take all transcoded packets before pushing another packet for transcoding" {
					t.Errorf("Push again message = %q", got)
				}
				ferr := transcoder.Flush()
				if ferr == nil || !IsAgain(ferr) {
					t.Errorf("Flush with pending output = %v, want again", ferr)
				} else if got := ferr.Error(); got != "take all transcoded packets before flushing the transcoder" {
					t.Errorf("Flush again message = %q", got)
				}
			}
			drain()
		}
	}
	drain()
	for {
		err := transcoder.Flush()
		if err == nil {
			break
		}
		if !IsAgain(err) {
			t.Fatalf("Failed to flush the transcoder: %v", err)
		}
		drain()
	}
	drain()

	if len(out) == 0 {
		t.Fatal("the transcoder produced no packets")
	}
	if !checkedAgain {
		t.Error("the transcoder never reported pending output")
	}
	for _, packet := range out {
		packet.Free()
	}
	t.Logf("transcoded %d packets at 48kHz into %d packets at 16kHz", len(packets), len(out))
}
