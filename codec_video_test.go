//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

func TestVideoEncoderBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*VideoEncoder, error)
		want  string
	}{
		{
			"missing pixel format",
			func() (*VideoEncoder, error) {
				return NewVideoEncoder("mpeg4").Width(640).Height(480).Build()
			},
			"pixel format not set",
		},
		{
			"missing width",
			func() (*VideoEncoder, error) {
				return NewVideoEncoder("mpeg4").PixelFormat(PixelFormat(0)).Height(480).Build()
			},
			"width not set",
		},
		{
			"missing height",
			func() (*VideoEncoder, error) {
				return NewVideoEncoder("mpeg4").PixelFormat(PixelFormat(0)).Width(640).Build()
			},
			"height not set",
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

func pushVideoFrame(t *testing.T, encoder *VideoEncoder, frame *VideoFrame, sink *[]*Packet) {
	t.Helper()
	for {
		err := encoder.Push(frame)
		if err == nil {
			return
		}
		if !IsAgain(err) {
			t.Fatalf("Failed to push a frame: %v", err)
		}
		drainVideoEncoder(t, encoder, sink)
	}
}

func drainVideoEncoder(t *testing.T, encoder *VideoEncoder, sink *[]*Packet) {
	t.Helper()
	for {
		packet, err := encoder.Take()
		if err != nil {
			t.Fatalf("Failed to take a packet: %v", err)
		}
		if packet == nil {
			return
		}
		*sink = append(*sink, packet)
	}
}

func TestVideoEncodeDecodeRoundTrip(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	const frameCount = 8
	timeBase := NewTimeBase(1, 25)

	pixelFormat, err := PixelFormatFromName("yuv420p")
	if err != nil {
		t.Fatalf("Failed to resolve yuv420p: %v", err)
	}
	blank, err := NewVideoFrameBlack(pixelFormat, 320, 240)
	if err != nil {
		t.Fatalf("Failed to allocate a frame: %v", err)
	}
	frame := blank.WithTimeBase(timeBase).Freeze()
	defer frame.Free()

	encoder, err := NewVideoEncoder("mpeg4").
		PixelFormat(pixelFormat).
		Width(320).
		Height(240).
		TimeBase(timeBase).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the encoder: %v", err)
	}
	defer encoder.Close()

	// Starvation before the first push reports nothing ready, not an
	// error.
	if packet, err := encoder.Take(); packet != nil || err != nil {
		t.Fatalf("Take() before the first push = (%v, %v), want (nil, nil)", packet, err)
	}

	var packets []*Packet
	for i := int64(0); i < frameCount; i++ {
		pushVideoFrame(t, encoder, frame.Clone().WithPts(NewTimestamp(i, timeBase)), &packets)
	}
	for {
		err := encoder.Flush()
		if err == nil {
			break
		}
		if !IsAgain(err) {
			t.Fatalf("Failed to flush the encoder: %v", err)
		}
		drainVideoEncoder(t, encoder, &packets)
	}
	drainVideoEncoder(t, encoder, &packets)

	if len(packets) != frameCount {
		t.Fatalf("encoded %d packets, want %d", len(packets), frameCount)
	}

	decoder, err := NewVideoDecoder("mpeg4").TimeBase(timeBase).Build()
	if err != nil {
		t.Fatalf("Failed to build the decoder: %v", err)
	}
	defer decoder.Close()

	if decoded, err := decoder.Take(); decoded != nil || err != nil {
		t.Fatalf("Take() before the first push = (%v, %v), want (nil, nil)", decoded, err)
	}

	var frames []*VideoFrame
	takeFrames := func() {
		for {
			decoded, err := decoder.Take()
			if err != nil {
				t.Fatalf("Failed to take a frame: %v", err)
			}
			if decoded == nil {
				return
			}
			frames = append(frames, decoded)
		}
	}
	for _, packet := range packets {
		for {
			err := decoder.Push(packet)
			if err == nil {
				break
			}
			if !IsAgain(err) {
				t.Fatalf("Failed to push a packet: %v", err)
			}
			takeFrames()
		}
	}
	for {
		err := decoder.Flush()
		if err == nil {
			break
		}
		if !IsAgain(err) {
			t.Fatalf("Failed to flush the decoder: %v", err)
		}
		takeFrames()
	}
	takeFrames()

	if len(frames) != frameCount {
		t.Fatalf("decoded %d frames, want %d", len(frames), frameCount)
	}
	for i, decoded := range frames {
		if decoded.Width() != 320 || decoded.Height() != 240 {
			t.Errorf("frame %d is %dx%d, want 320x240", i, decoded.Width(), decoded.Height())
		}
		if got := decoded.Pts().Ticks(); got != int64(i) {
			t.Errorf("frame %d pts = %d, want %d", i, got, i)
		}
		decoded.Free()
	}
	t.Logf("round tripped %d frames through mpeg4", frameCount)
}

func TestVideoEncoderCodecParameters(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	pixelFormat, err := PixelFormatFromName("yuv420p")
	if err != nil {
		t.Fatalf("Failed to resolve yuv420p: %v", err)
	}
	encoder, err := NewVideoEncoder("mpeg4").
		PixelFormat(pixelFormat).
		Width(320).
		Height(240).
		TimeBase(NewTimeBase(1, 25)).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the encoder: %v", err)
	}
	defer encoder.Close()

	params := encoder.CodecParameters()
	if got := params.CodecName(); got != "mpeg4" {
		t.Errorf("CodecName = %q, want %q", got, "mpeg4")
	}
	if params.Width() != 320 || params.Height() != 240 {
		t.Errorf("parameters are %dx%d, want 320x240", params.Width(), params.Height())
	}
	if params.PixelFormat() != pixelFormat {
		t.Errorf("PixelFormat = %v, want %v", params.PixelFormat(), pixelFormat)
	}

	// Parameters preload a new builder without restating the fields.
	again, err := VideoEncoderFromCodecParameters(params).TimeBase(NewTimeBase(1, 25)).Build()
	if err != nil {
		t.Fatalf("Failed to rebuild from parameters: %v", err)
	}
	again.Close()
}
