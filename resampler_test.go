//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

func TestAudioResamplerBuilderValidation(t *testing.T) {
	_, err := NewAudioResampler().Build()
	if err == nil || err.Error() != "source channel layout was not set" {
		t.Errorf("Build() error = %v, want %q", err, "source channel layout was not set")
	}
}

// silenceAt returns a frozen frame of silence whose pts is the sample
// position within the stream.
func silenceAt(t *testing.T, layout *ChannelLayout, format SampleFormat, rate, samples int, position int64) *AudioFrame {
	t.Helper()
	frame, err := NewAudioFrameSilence(layout, format, rate, samples)
	if err != nil {
		t.Fatalf("Failed to allocate a frame: %v", err)
	}
	return frame.
		WithTimeBase(NewTimeBase(1, int32(rate))).
		WithPts(NewTimestamp(position, NewTimeBase(1, int32(rate)))).
		Freeze()
}

func TestAudioResamplerFrameMismatch(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	mono, err := ChannelLayoutFromName("mono")
	if err != nil {
		t.Fatalf("Failed to resolve mono: %v", err)
	}
	defer mono.Free()
	stereo, err := ChannelLayoutFromName("stereo")
	if err != nil {
		t.Fatalf("Failed to resolve stereo: %v", err)
	}
	defer stereo.Free()
	s16, err := SampleFormatFromName("s16")
	if err != nil {
		t.Fatalf("Failed to resolve s16: %v", err)
	}

	resampler, err := NewAudioResampler().
		SourceChannelLayout(mono).
		SourceSampleFormat(s16).
		SourceSampleRate(48000).
		TargetChannelLayout(mono).
		TargetSampleFormat(s16).
		TargetSampleRate(48000).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the resampler: %v", err)
	}
	defer resampler.Close()

	fltp, err := SampleFormatFromName("fltp")
	if err != nil {
		t.Fatalf("Failed to resolve fltp: %v", err)
	}

	badLayout := silenceAt(t, stereo, s16, 48000, 100, 0)
	defer badLayout.Free()
	if err := resampler.Push(badLayout); err == nil || err.Error() != "invalid frame, channel layout does not match" {
		t.Errorf("Push with wrong layout = %v, want channel layout mismatch", err)
	}

	badFormat := silenceAt(t, mono, fltp, 48000, 100, 0)
	defer badFormat.Free()
	if err := resampler.Push(badFormat); err == nil || err.Error() != "invalid frame, sample format does not match" {
		t.Errorf("Push with wrong format = %v, want sample format mismatch", err)
	}

	badRate := silenceAt(t, mono, s16, 44100, 100, 0)
	defer badRate.Free()
	if err := resampler.Push(badRate); err == nil || err.Error() != "invalid frame, sample rate does not match" {
		t.Errorf("Push with wrong rate = %v, want sample rate mismatch", err)
	}
}

func TestAudioResamplerFixedFrameSize(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	mono, err := ChannelLayoutFromName("mono")
	if err != nil {
		t.Fatalf("Failed to resolve mono: %v", err)
	}
	defer mono.Free()
	s16, err := SampleFormatFromName("s16")
	if err != nil {
		t.Fatalf("Failed to resolve s16: %v", err)
	}
	fltp, err := SampleFormatFromName("fltp")
	if err != nil {
		t.Fatalf("Failed to resolve fltp: %v", err)
	}

	// Same rate, so the conversion is 1:1 and the counts are exact.
	resampler, err := NewAudioResampler().
		SourceChannelLayout(mono).
		SourceSampleFormat(s16).
		SourceSampleRate(48000).
		TargetChannelLayout(mono).
		TargetSampleFormat(fltp).
		TargetSampleRate(48000).
		TargetFrameSamples(512).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the resampler: %v", err)
	}
	defer resampler.Close()

	// Starvation before the first push reports nothing ready, not an
	// error.
	if frame, err := resampler.Take(); frame != nil || err != nil {
		t.Fatalf("Take() before the first push = (%v, %v), want (nil, nil)", frame, err)
	}

	if err := resampler.Push(silenceAt(t, mono, s16, 48000, 1600, 0)); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}

	var sizes []int
	var ptss []int64
	take := func() {
		for {
			frame, err := resampler.Take()
			if err != nil {
				t.Fatalf("Failed to take: %v", err)
			}
			if frame == nil {
				return
			}
			if frame.SampleFormat() != fltp {
				t.Errorf("SampleFormat = %v, want %v", frame.SampleFormat(), fltp)
			}
			if frame.TimeBase() != NewTimeBase(1, 48000) {
				t.Errorf("TimeBase = %v, want 1/48000", frame.TimeBase())
			}
			sizes = append(sizes, frame.Samples())
			ptss = append(ptss, frame.Pts().Ticks())
			frame.Free()
		}
	}
	take()
	if err := resampler.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	take()

	wantSizes := []int{512, 512, 512, 64}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("took %d frames (%v), want %v", len(sizes), sizes, wantSizes)
	}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] {
			t.Errorf("frame %d has %d samples, want %d", i, sizes[i], wantSizes[i])
		}
		if want := int64(i) * 512; ptss[i] != want {
			t.Errorf("frame %d pts = %d, want %d", i, ptss[i], want)
		}
	}
}

func TestAudioResamplerRateConversion(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	mono, err := ChannelLayoutFromName("mono")
	if err != nil {
		t.Fatalf("Failed to resolve mono: %v", err)
	}
	defer mono.Free()
	s16, err := SampleFormatFromName("s16")
	if err != nil {
		t.Fatalf("Failed to resolve s16: %v", err)
	}

	resampler, err := NewAudioResampler().
		SourceChannelLayout(mono).
		SourceSampleFormat(s16).
		SourceSampleRate(48000).
		TargetChannelLayout(mono).
		TargetSampleFormat(s16).
		TargetSampleRate(16000).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the resampler: %v", err)
	}
	defer resampler.Close()

	total := 0
	firstPts := int64(-1)
	take := func() {
		for {
			frame, err := resampler.Take()
			if err != nil {
				t.Fatalf("Failed to take: %v", err)
			}
			if frame == nil {
				return
			}
			if frame.SampleRate() != 16000 {
				t.Errorf("SampleRate = %d, want 16000", frame.SampleRate())
			}
			if firstPts < 0 && frame.Samples() > 0 {
				firstPts = frame.Pts().Ticks()
			}
			total += frame.Samples()
			frame.Free()
		}
	}

	const in = 4800
	for i := int64(0); i < 2; i++ {
		if err := resampler.Push(silenceAt(t, mono, s16, 48000, in, i*in)); err != nil {
			t.Fatalf("Failed to push: %v", err)
		}
		take()
	}
	if err := resampler.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	take()

	// The polyphase filter tail can shift the drained total by a few
	// samples around the exact 3:1 ratio.
	want := 2 * in / 3
	if total < want-8 || total > want+8 {
		t.Errorf("resampled %d samples, want about %d", total, want)
	}
	if firstPts != 0 {
		t.Errorf("first pts = %d, want 0", firstPts)
	}
	t.Logf("48kHz -> 16kHz: %d samples in, %d out", 2*in, total)
}
