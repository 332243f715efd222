//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

// encodeTestVideo returns mpeg4 packets for the given number of black
// frames together with the encoder codec parameters.
func encodeTestVideo(t *testing.T, width, height, frames int) (*VideoCodecParameters, []*Packet) {
	t.Helper()

	format, err := PixelFormatFromName("yuv420p")
	if err != nil {
		t.Fatalf("Failed to resolve yuv420p: %v", err)
	}
	timeBase := NewTimeBase(1, 25)

	encoder, err := NewVideoEncoder("mpeg4").
		PixelFormat(format).
		Width(width).
		Height(height).
		TimeBase(timeBase).
		Build()
	if err != nil {
		t.Fatalf("Failed to build the encoder: %v", err)
	}
	defer encoder.Close()

	black, err := NewVideoFrameBlack(format, width, height)
	if err != nil {
		t.Fatalf("Failed to allocate a frame: %v", err)
	}
	frame := black.WithTimeBase(timeBase).Freeze()
	defer frame.Free()

	var packets []*Packet
	for i := 0; i < frames; i++ {
		pushVideoFrame(t, encoder, frame.Clone().WithPts(NewTimestamp(int64(i), timeBase)), &packets)
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

	return encoder.CodecParameters(), packets
}

func TestMuxDemuxRoundTrip(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	const frames = 8

	params, packets := encodeTestVideo(t, 320, 240, frames)
	defer params.Free()
	if len(packets) != frames {
		t.Fatalf("encoded %d packets, want %d", len(packets), frames)
	}

	format, err := FindOutputFormat("avi")
	if err != nil {
		t.Fatalf("Failed to find the avi format: %v", err)
	}

	builder, err := NewMuxer(format)
	if err != nil {
		t.Fatalf("Failed to create a muxer builder: %v", err)
	}
	if _, err := builder.AddStream(params.CodecParameters()); err != nil {
		builder.Free()
		t.Fatalf("Failed to add a stream: %v", err)
	}

	writer := NewMemWriter()
	ioCtx, err := IOFromWriteSeeker(writer)
	if err != nil {
		builder.Free()
		t.Fatalf("Failed to create an IO context: %v", err)
	}
	muxer, err := builder.Open(ioCtx)
	if err != nil {
		ioCtx.Free()
		builder.Free()
		t.Fatalf("Failed to open the muxer: %v", err)
	}

	for _, packet := range packets {
		if err := muxer.PushPacket(packet.WithStreamIndex(0)); err != nil {
			t.Fatalf("Failed to mux a packet: %v", err)
		}
	}
	if err := muxer.Flush(); err != nil {
		t.Fatalf("Failed to flush the muxer: %v", err)
	}
	if err := muxer.Close(); err != nil {
		t.Fatalf("Failed to close the muxer: %v", err)
	}

	data := writer.TakeData()
	if len(data) == 0 {
		t.Fatal("the muxer produced no data")
	}
	t.Logf("muxed %d packets into %d bytes of avi", frames, len(data))

	readerIO, err := IOFromReadSeeker(NewMemReader(data))
	if err != nil {
		t.Fatalf("Failed to create an IO context: %v", err)
	}
	opened, err := NewDemuxer().Open(readerIO)
	if err != nil {
		readerIO.Free()
		t.Fatalf("Failed to open the demuxer: %v", err)
	}
	demuxer, err := opened.FindStreamInfo(0)
	if err != nil {
		t.Fatalf("Failed to read stream info: %v", err)
	}
	defer demuxer.Close()

	streams := demuxer.Streams()
	if len(streams) != 1 {
		t.Fatalf("found %d streams, want 1", len(streams))
	}
	info := streams[0].CodecParameters()
	if !info.IsVideoCodec() {
		t.Fatal("the stream is not a video stream")
	}
	if got := info.CodecName(); got != "mpeg4" {
		t.Errorf("CodecName() = %q, want %q", got, "mpeg4")
	}
	video, ok := info.Video()
	if !ok {
		t.Fatal("the stream has no video parameters")
	}
	if video.Width() != 320 || video.Height() != 240 {
		t.Errorf("stream size = %dx%d, want 320x240", video.Width(), video.Height())
	}

	count := 0
	for {
		packet, err := demuxer.TakePacket()
		if err != nil {
			t.Fatalf("Failed to take a packet: %v", err)
		}
		if packet == nil {
			break
		}
		if packet.StreamIndex() != 0 {
			t.Errorf("packet stream index = %d, want 0", packet.StreamIndex())
		}
		if count == 0 && !packet.IsKey() {
			t.Error("the first packet is not a key frame")
		}
		count++
		packet.Free()
	}
	if count != frames {
		t.Errorf("demuxed %d packets, want %d", count, frames)
	}

	// The container carries an index, so a seek back to the start must
	// replay from the first key frame.
	if err := demuxer.SeekToTimestamp(TimestampFromMillis(0), SeekTargetUpTo); err != nil {
		t.Fatalf("Failed to seek: %v", err)
	}
	packet, err := demuxer.TakePacket()
	if err != nil {
		t.Fatalf("Failed to take a packet after seeking: %v", err)
	}
	if packet == nil {
		t.Fatal("no packet after seeking to the start")
	}
	if !packet.IsKey() {
		t.Error("the packet after seeking is not a key frame")
	}
	packet.Free()
}

func TestMuxerAddStreamAfterOpen(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	params, packets := encodeTestVideo(t, 64, 48, 1)
	defer params.Free()
	for _, packet := range packets {
		packet.Free()
	}

	format, err := FindOutputFormat("avi")
	if err != nil {
		t.Fatalf("Failed to find the avi format: %v", err)
	}
	builder, err := NewMuxer(format)
	if err != nil {
		t.Fatalf("Failed to create a muxer builder: %v", err)
	}
	if _, err := builder.AddStream(params.CodecParameters()); err != nil {
		builder.Free()
		t.Fatalf("Failed to add a stream: %v", err)
	}

	ioCtx, err := IOFromWriteSeeker(NewMemWriter())
	if err != nil {
		builder.Free()
		t.Fatalf("Failed to create an IO context: %v", err)
	}
	muxer, err := builder.Open(ioCtx)
	if err != nil {
		ioCtx.Free()
		builder.Free()
		t.Fatalf("Failed to open the muxer: %v", err)
	}
	defer muxer.Close()

	_, err = builder.AddStream(params.CodecParameters())
	if err == nil || err.Error() != "streams must be added before the muxer is opened" {
		t.Errorf("AddStream after Open = %v, want registration refusal", err)
	}
}

func TestMuxerInvalidStreamIndex(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	params, packets := encodeTestVideo(t, 64, 48, 1)
	defer params.Free()
	if len(packets) != 1 {
		t.Fatalf("encoded %d packets, want 1", len(packets))
	}

	format, err := FindOutputFormat("avi")
	if err != nil {
		t.Fatalf("Failed to find the avi format: %v", err)
	}
	builder, err := NewMuxer(format)
	if err != nil {
		t.Fatalf("Failed to create a muxer builder: %v", err)
	}
	if _, err := builder.AddStream(params.CodecParameters()); err != nil {
		builder.Free()
		t.Fatalf("Failed to add a stream: %v", err)
	}
	ioCtx, err := IOFromWriteSeeker(NewMemWriter())
	if err != nil {
		builder.Free()
		t.Fatalf("Failed to create an IO context: %v", err)
	}
	muxer, err := builder.Open(ioCtx)
	if err != nil {
		ioCtx.Free()
		builder.Free()
		t.Fatalf("Failed to open the muxer: %v", err)
	}
	defer muxer.Close()

	packet := packets[0].WithStreamIndex(3)
	defer packet.Free()
	if err := muxer.PushPacket(packet); err == nil || err.Error() != "invalid stream index" {
		t.Errorf("PushPacket with index 3 = %v, want invalid stream index", err)
	}
}
