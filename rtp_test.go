//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"testing"
)

func TestRTPPacketizerDefaults(t *testing.T) {
	p := NewH264RTPPacketizer(0x11223344, 96, 0)

	if p.SSRC() != 0x11223344 {
		t.Errorf("SSRC() = %#x, want 0x11223344", p.SSRC())
	}
	if p.PayloadType() != 96 {
		t.Errorf("PayloadType() = %d, want 96", p.PayloadType())
	}
	if p.MTU() != DefaultMTU {
		t.Errorf("MTU() = %d, want %d", p.MTU(), DefaultMTU)
	}
	if p.ClockRate() != 90_000 {
		t.Errorf("ClockRate() = %d, want 90000", p.ClockRate())
	}

	if opus := NewOpusRTPPacketizer(1, 111, 1200); opus.ClockRate() != 48_000 {
		t.Errorf("Opus ClockRate() = %d, want 48000", opus.ClockRate())
	}
}

func TestRTPPacketizerFragmentation(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	// A single Annex B NAL unit well above the MTU, forcing FU-A
	// fragmentation.
	nalu := make([]byte, 3000)
	nalu[4] = 0x65 // IDR slice
	copy(nalu, []byte{0, 0, 0, 1})

	packet, err := PacketFromBytes(nalu)
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.
		WithTimeBase(NewTimeBase(1, 1000)).
		WithRawPts(40).
		Freeze()
	defer frozen.Free()

	p := NewH264RTPPacketizer(0xcafe, 96, DefaultMTU)
	packets, err := p.Packetize(frozen)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}
	if len(packets) < 3 {
		t.Fatalf("got %d RTP packets, want at least 3", len(packets))
	}

	for i, pkt := range packets {
		if pkt.SSRC != 0xcafe {
			t.Errorf("packet %d: SSRC = %#x, want 0xcafe", i, pkt.SSRC)
		}
		if pkt.PayloadType != 96 {
			t.Errorf("packet %d: payload type = %d, want 96", i, pkt.PayloadType)
		}
		// 40 ms on the 90 kHz clock.
		if pkt.Timestamp != 3600 {
			t.Errorf("packet %d: timestamp = %d, want 3600", i, pkt.Timestamp)
		}
		if len(pkt.Payload) > DefaultMTU-12 {
			t.Errorf("packet %d: payload size %d exceeds the MTU budget", i, len(pkt.Payload))
		}

		wantMarker := i == len(packets)-1
		if pkt.Marker != wantMarker {
			t.Errorf("packet %d: marker = %v, want %v", i, pkt.Marker, wantMarker)
		}
		if i > 0 {
			prev := packets[i-1].SequenceNumber
			if pkt.SequenceNumber != prev+1 {
				t.Errorf("packet %d: sequence number = %d, want %d", i, pkt.SequenceNumber, prev+1)
			}
		}
	}
}

func TestRTPPacketizerSequenceAcrossPackets(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	p := NewH264RTPPacketizer(1, 96, DefaultMTU)

	var last uint16
	for i := 0; i < 3; i++ {
		packet, err := PacketFromBytes([]byte{0, 0, 0, 1, 0x41, 0xaa})
		if err != nil {
			t.Fatalf("Failed to allocate a packet: %v", err)
		}
		frozen := packet.
			WithTimeBase(NewTimeBase(1, 1000)).
			WithRawPts(int64(i) * 40).
			Freeze()

		packets, err := p.Packetize(frozen)
		frozen.Free()
		if err != nil {
			t.Fatalf("Packetize failed: %v", err)
		}
		if len(packets) != 1 {
			t.Fatalf("got %d RTP packets, want 1", len(packets))
		}
		if i > 0 && packets[0].SequenceNumber != last+1 {
			t.Errorf("sequence number = %d, want %d", packets[0].SequenceNumber, last+1)
		}
		last = packets[0].SequenceNumber
	}
}

func TestRTPPacketizerNullTimestamp(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := PacketFromBytes([]byte{0, 0, 0, 1, 0x41})
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.Freeze()
	defer frozen.Free()

	p := NewH264RTPPacketizer(1, 96, DefaultMTU)
	if _, err := p.Packetize(frozen); err == nil {
		t.Error("Packetize accepted a packet without a timestamp")
	}
}

func TestRTPPacketizerToBytes(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("FFmpeg not available")
	}

	packet, err := PacketFromBytes([]byte{0, 0, 0, 1, 0x41, 0xbb})
	if err != nil {
		t.Fatalf("Failed to allocate a packet: %v", err)
	}
	frozen := packet.
		WithTimeBase(NewTimeBase(1, 1000)).
		WithRawPts(0).
		Freeze()
	defer frozen.Free()

	p := NewH264RTPPacketizer(1, 96, DefaultMTU)
	buffers, err := p.PacketizeToBytes(frozen)
	if err != nil {
		t.Fatalf("PacketizeToBytes failed: %v", err)
	}
	if len(buffers) != 1 {
		t.Fatalf("got %d buffers, want 1", len(buffers))
	}
	var parsed RTPPacket
	if err := parsed.Unmarshal(buffers[0]); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if parsed.PayloadType != 96 || parsed.SSRC != 1 {
		t.Errorf("round trip lost header fields: %+v", parsed.Header)
	}
}
