//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// Aliases into pion's rtp types so callers of the packetizer do not need
// a second import.
type (
	RTPPacket    = rtp.Packet
	RTPHeader    = rtp.Header
	RTPExtension = rtp.Extension
)

// DefaultMTU is a UDP safe size budget for RTP packets.
const DefaultMTU = 1200

const rtpHeaderSize = 12

// RTPPacketizer splits encoded packets into RTP packets. The payload is
// cut at the MTU by a codec specific payloader, timestamps are rescaled
// from each packet's time base into the RTP clock, sequence numbers are
// monotonic and the marker bit is set on the last packet of every access
// unit. Like the processing units in this package a packetizer belongs
// to one goroutine at a time.
type RTPPacketizer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	clock       TimeBase
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
}

// NewRTPPacketizer creates a packetizer with a caller supplied payloader
// and RTP clock rate. The sequence numbering starts at a random value.
func NewRTPPacketizer(payloader rtp.Payloader, clockRate uint32, ssrc uint32, payloadType uint8, mtu int) *RTPPacketizer {
	if mtu <= rtpHeaderSize {
		mtu = DefaultMTU
	}
	return &RTPPacketizer{
		ssrc:        ssrc,
		payloadType: payloadType,
		mtu:         mtu,
		clock:       NewTimeBase(1, int32(clockRate)),
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
	}
}

// NewH264RTPPacketizer creates a packetizer for H.264 access units in
// Annex B format, fragmenting large NAL units per RFC 6184. The RTP
// clock runs at 90 kHz.
func NewH264RTPPacketizer(ssrc uint32, payloadType uint8, mtu int) *RTPPacketizer {
	return NewRTPPacketizer(&codecs.H264Payloader{}, 90_000, ssrc, payloadType, mtu)
}

// NewOpusRTPPacketizer creates a packetizer for Opus packets per
// RFC 7587. The RTP clock runs at 48 kHz.
func NewOpusRTPPacketizer(ssrc uint32, payloadType uint8, mtu int) *RTPPacketizer {
	return NewRTPPacketizer(&codecs.OpusPayloader{}, 48_000, ssrc, payloadType, mtu)
}

// SSRC returns the synchronization source carried by produced packets.
func (p *RTPPacketizer) SSRC() uint32 {
	return p.ssrc
}

// PayloadType returns the payload type carried by produced packets.
func (p *RTPPacketizer) PayloadType() uint8 {
	return p.payloadType
}

// MTU returns the size budget of produced packets.
func (p *RTPPacketizer) MTU() int {
	return p.mtu
}

// ClockRate returns the RTP clock rate in Hz.
func (p *RTPPacketizer) ClockRate() uint32 {
	return uint32(p.clock.Den)
}

// Packetize converts one encoded packet into RTP packets. The payload is
// copied, so the input packet may be freed as soon as the call returns.
// Packets without a presentation timestamp cannot be placed on the RTP
// clock and are rejected.
func (p *RTPPacketizer) Packetize(packet *Packet) ([]*RTPPacket, error) {
	if packet == nil || packet.ptr == 0 {
		return nil, newError("nil packet")
	}

	pts := packet.Pts()
	if pts.IsNull() {
		return nil, newError("null timestamp")
	}
	timestamp := uint32(pts.WithTimeBase(p.clock).Ticks())

	data := packet.Data()
	if len(data) == 0 {
		return nil, nil
	}
	data = append([]byte(nil), data...)

	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), data)
	if len(payloads) == 0 {
		return nil, nil
	}

	packets := make([]*RTPPacket, len(payloads))
	for i, payload := range payloads {
		packets[i] = &RTPPacket{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

// PacketizeToBytes converts one encoded packet into marshaled RTP packet
// bytes, ready for a UDP write.
func (p *RTPPacketizer) PacketizeToBytes(packet *Packet) ([][]byte, error) {
	packets, err := p.Packetize(packet)
	if err != nil {
		return nil, err
	}
	buffers := make([][]byte, len(packets))
	for i, pkt := range packets {
		buffers[i], err = pkt.Marshal()
		if err != nil {
			return nil, err
		}
	}
	return buffers, nil
}
