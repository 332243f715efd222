//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"bytes"
	"testing"
)

func TestPacketFreezeAndThaw(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := PacketFromBytes([]byte("payload"))
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	before := &packet.Data()[0]

	frozen := packet.Freeze()
	if packet.Size() != 0 {
		t.Error("the mutable handle survived Freeze")
	}

	// The frozen packet is the sole owner, so thawing must reuse the
	// payload buffer instead of copying it.
	thawed, ok := frozen.TryIntoMut()
	if !ok {
		t.Fatal("TryIntoMut failed on a sole owner")
	}
	defer thawed.Free()
	if &thawed.Data()[0] != before {
		t.Error("TryIntoMut copied the payload")
	}
	if !bytes.Equal(thawed.Data(), []byte("payload")) {
		t.Errorf("payload = %q, want %q", thawed.Data(), "payload")
	}
}

func TestPacketSharedIntoMutCopies(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := PacketFromBytes([]byte("shared"))
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.Freeze()
	defer frozen.Free()

	clone := frozen.Clone()

	if _, ok := clone.TryIntoMut(); ok {
		t.Fatal("TryIntoMut succeeded on a shared payload")
	}

	mut := clone.IntoMut()
	defer mut.Free()
	if &mut.Data()[0] == &frozen.Data()[0] {
		t.Error("IntoMut did not copy the shared payload")
	}

	// The copy is independent of the original.
	mut.Data()[0] = 'X'
	if frozen.Data()[0] != 's' {
		t.Error("writing the copy changed the original payload")
	}
}

func TestPacketWithTimeBase(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := NewPacket(1)
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	defer packet.Free()

	millis := NewTimeBase(1, 1000)
	packet.WithTimeBase(millis).
		WithRawPts(40).
		WithRawDuration(20)

	rtp := NewTimeBase(1, 90_000)
	packet.WithTimeBase(rtp)

	if got := packet.Pts().Ticks(); got != 3600 {
		t.Errorf("pts = %d, want 3600", got)
	}
	if got := packet.RawDuration(); got != 1800 {
		t.Errorf("duration = %d, want 1800", got)
	}
	// The dts was never set, rescaling must keep it null.
	if !packet.Dts().IsNull() {
		t.Errorf("dts = %v, want null", packet.Dts())
	}
}

func TestPacketMetadata(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := NewPacket(0)
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.Freeze()
	defer frozen.Free()

	frozen.WithStreamIndex(3).WithKey(true)
	if frozen.StreamIndex() != 3 {
		t.Errorf("stream index = %d, want 3", frozen.StreamIndex())
	}
	if !frozen.IsKey() {
		t.Error("the key flag is not set")
	}
	frozen.WithKey(false)
	if frozen.IsKey() {
		t.Error("the key flag is still set")
	}
}

func TestPacketFreeIdempotent(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := PacketFromBytes([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.Freeze()
	frozen.Free()
	frozen.Free()

	if frozen.Size() != 0 || frozen.Data() != nil {
		t.Error("a freed packet still reports a payload")
	}
}
