//go:build (darwin || linux) && (amd64 || arm64)

package av

// Packet is an immutable, reference counted piece of encoded media data.
// The payload may be shared with other packets, the metadata fields
// (timestamps, stream index) are owned by this handle and can be changed
// freely.
//
// Packet handles can be transferred between goroutines but must not be used
// concurrently.
type Packet struct {
	ptr uintptr
	tb  TimeBase
}

// PacketMut is an exclusively owned, writable packet. Freeze converts it
// into an immutable Packet without copying the payload.
type PacketMut struct {
	ptr uintptr
	tb  TimeBase
}

// NewPacket allocates a writable packet with a zeroed payload of the given
// size. The packet time base defaults to microseconds.
func NewPacket(size int) (*PacketMut, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := avPacketAlloc()
	if ptr == 0 {
		panic("unable to allocate a packet")
	}
	if size > 0 {
		if avNewPacket(ptr, int32(size)) < 0 {
			avPacketFree(&ptr)
			panic("unable to allocate a packet")
		}
		data := nativeBytes(nativePtr(ptr, packetOffData), size)
		for i := range data {
			data[i] = 0
		}
	}
	setNativeInt64(ptr, packetOffPts, NoPtsValue)
	setNativeInt64(ptr, packetOffDts, NoPtsValue)
	return &PacketMut{ptr: ptr, tb: TimeBaseMicroseconds}, nil
}

// PacketFromBytes allocates a writable packet holding a copy of the given
// payload.
func PacketFromBytes(data []byte) (*PacketMut, error) {
	packet, err := NewPacket(len(data))
	if err != nil {
		return nil, err
	}
	copy(packet.Data(), data)
	return packet, nil
}

// packetWithTimeBase rescales pts, dts and duration into a new time base.
// All three fields change together so a failure cannot leave the packet
// with mixed bases.
func packetWithTimeBase(ptr uintptr, from, to TimeBase) {
	if ptr == 0 || from == to {
		return
	}
	setNativeInt64(ptr, packetOffPts, from.Rescale(nativeInt64(ptr, packetOffPts), to))
	setNativeInt64(ptr, packetOffDts, from.Rescale(nativeInt64(ptr, packetOffDts), to))
	duration := nativeInt64(ptr, packetOffDuration)
	if duration != 0 {
		setNativeInt64(ptr, packetOffDuration, from.Rescale(duration, to))
	}
}

func packetTimestamp(ptr uintptr, off uintptr, tb TimeBase) Timestamp {
	if ptr == 0 {
		return NullTimestamp(tb)
	}
	return NewTimestamp(nativeInt64(ptr, off), tb)
}

// StreamIndex returns the index of the stream this packet belongs to.
func (p *Packet) StreamIndex() int {
	return int(nativeInt32(p.ptr, packetOffStreamIndex))
}

// WithStreamIndex sets the stream index and returns the packet.
func (p *Packet) WithStreamIndex(index int) *Packet {
	setNativeInt32(p.ptr, packetOffStreamIndex, int32(index))
	return p
}

// TimeBase returns the time base of the packet timestamps.
func (p *Packet) TimeBase() TimeBase {
	return p.tb
}

// WithTimeBase rescales pts, dts and duration into the given time base and
// returns the packet.
func (p *Packet) WithTimeBase(tb TimeBase) *Packet {
	packetWithTimeBase(p.ptr, p.tb, tb)
	p.tb = tb
	return p
}

// Pts returns the presentation timestamp.
func (p *Packet) Pts() Timestamp {
	return packetTimestamp(p.ptr, packetOffPts, p.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the packet
// time base.
func (p *Packet) WithPts(ts Timestamp) *Packet {
	setNativeInt64(p.ptr, packetOffPts, ts.WithTimeBase(p.tb).Ticks())
	return p
}

// WithRawPts sets the presentation timestamp in packet time base ticks.
func (p *Packet) WithRawPts(pts int64) *Packet {
	setNativeInt64(p.ptr, packetOffPts, pts)
	return p
}

// Dts returns the decoding timestamp.
func (p *Packet) Dts() Timestamp {
	return packetTimestamp(p.ptr, packetOffDts, p.tb)
}

// WithDts sets the decoding timestamp, rescaling it into the packet time
// base.
func (p *Packet) WithDts(ts Timestamp) *Packet {
	setNativeInt64(p.ptr, packetOffDts, ts.WithTimeBase(p.tb).Ticks())
	return p
}

// WithRawDts sets the decoding timestamp in packet time base ticks.
func (p *Packet) WithRawDts(dts int64) *Packet {
	setNativeInt64(p.ptr, packetOffDts, dts)
	return p
}

// Duration returns the packet duration. The timestamp is zero if the
// duration is unknown.
func (p *Packet) Duration() Timestamp {
	return NewTimestamp(p.RawDuration(), p.tb)
}

// RawDuration returns the packet duration in time base ticks.
func (p *Packet) RawDuration() int64 {
	if p.ptr == 0 {
		return 0
	}
	return nativeInt64(p.ptr, packetOffDuration)
}

// WithRawDuration sets the packet duration in time base ticks.
func (p *Packet) WithRawDuration(duration int64) *Packet {
	setNativeInt64(p.ptr, packetOffDuration, duration)
	return p
}

// IsKey returns true if the packet contains a keyframe.
func (p *Packet) IsKey() bool {
	return p.ptr != 0 && nativeInt32(p.ptr, packetOffFlags)&packetFlagKey != 0
}

// WithKey sets or clears the keyframe flag.
func (p *Packet) WithKey(key bool) *Packet {
	flags := nativeInt32(p.ptr, packetOffFlags)
	if key {
		flags |= packetFlagKey
	} else {
		flags &^= packetFlagKey
	}
	setNativeInt32(p.ptr, packetOffFlags, flags)
	return p
}

// Position returns the byte position of the packet within its container,
// or -1 if unknown.
func (p *Packet) Position() int64 {
	if p.ptr == 0 {
		return -1
	}
	return nativeInt64(p.ptr, packetOffPos)
}

// Size returns the payload size in bytes.
func (p *Packet) Size() int {
	if p.ptr == 0 {
		return 0
	}
	return int(nativeInt32(p.ptr, packetOffSize))
}

// Data returns the packet payload. The slice aliases the native buffer and
// must not be modified; it stays valid until the packet is freed.
func (p *Packet) Data() []byte {
	if p.ptr == 0 {
		return nil
	}
	return nativeBytes(nativePtr(p.ptr, packetOffData), p.Size())
}

// Clone returns a new reference to the same payload. The clone carries its
// own copy of the metadata fields.
func (p *Packet) Clone() *Packet {
	ptr := avPacketClone(p.ptr)
	if ptr == 0 {
		panic("unable to clone the packet")
	}
	return &Packet{ptr: ptr, tb: p.tb}
}

// TryIntoMut converts the packet into a writable one without copying the
// payload. The conversion succeeds only if this handle is the sole owner of
// the payload. On success the packet is consumed; on failure it stays
// valid and (nil, false) is returned.
func (p *Packet) TryIntoMut() (*PacketMut, bool) {
	if p.ptr == 0 {
		return nil, false
	}
	buf := nativePtr(p.ptr, packetOffBuf)
	if buf == 0 || avBufferIsWritable(buf) == 0 {
		return nil, false
	}
	m := &PacketMut{ptr: p.ptr, tb: p.tb}
	p.ptr = 0
	return m, true
}

// IntoMut converts the packet into a writable one, copying the payload if
// it is shared. The packet is consumed.
func (p *Packet) IntoMut() *PacketMut {
	if m, ok := p.TryIntoMut(); ok {
		return m
	}
	if avPacketMakeWritable(p.ptr) < 0 {
		panic("unable to make the packet mutable")
	}
	m := &PacketMut{ptr: p.ptr, tb: p.tb}
	p.ptr = 0
	return m
}

// Free releases the packet reference. Free is idempotent.
func (p *Packet) Free() {
	if p.ptr != 0 {
		avPacketFree(&p.ptr)
		p.ptr = 0
	}
}

// rawPtr hands the native packet to the processing units.
func (p *Packet) rawPtr() uintptr {
	return p.ptr
}

// StreamIndex returns the index of the stream this packet belongs to.
func (p *PacketMut) StreamIndex() int {
	return int(nativeInt32(p.ptr, packetOffStreamIndex))
}

// WithStreamIndex sets the stream index and returns the packet.
func (p *PacketMut) WithStreamIndex(index int) *PacketMut {
	setNativeInt32(p.ptr, packetOffStreamIndex, int32(index))
	return p
}

// TimeBase returns the time base of the packet timestamps.
func (p *PacketMut) TimeBase() TimeBase {
	return p.tb
}

// WithTimeBase rescales pts, dts and duration into the given time base and
// returns the packet.
func (p *PacketMut) WithTimeBase(tb TimeBase) *PacketMut {
	packetWithTimeBase(p.ptr, p.tb, tb)
	p.tb = tb
	return p
}

// Pts returns the presentation timestamp.
func (p *PacketMut) Pts() Timestamp {
	return packetTimestamp(p.ptr, packetOffPts, p.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the packet
// time base.
func (p *PacketMut) WithPts(ts Timestamp) *PacketMut {
	setNativeInt64(p.ptr, packetOffPts, ts.WithTimeBase(p.tb).Ticks())
	return p
}

// WithRawPts sets the presentation timestamp in packet time base ticks.
func (p *PacketMut) WithRawPts(pts int64) *PacketMut {
	setNativeInt64(p.ptr, packetOffPts, pts)
	return p
}

// Dts returns the decoding timestamp.
func (p *PacketMut) Dts() Timestamp {
	return packetTimestamp(p.ptr, packetOffDts, p.tb)
}

// WithDts sets the decoding timestamp, rescaling it into the packet time
// base.
func (p *PacketMut) WithDts(ts Timestamp) *PacketMut {
	setNativeInt64(p.ptr, packetOffDts, ts.WithTimeBase(p.tb).Ticks())
	return p
}

// WithRawDts sets the decoding timestamp in packet time base ticks.
func (p *PacketMut) WithRawDts(dts int64) *PacketMut {
	setNativeInt64(p.ptr, packetOffDts, dts)
	return p
}

// Duration returns the packet duration. The timestamp is zero if the
// duration is unknown.
func (p *PacketMut) Duration() Timestamp {
	return NewTimestamp(p.RawDuration(), p.tb)
}

// RawDuration returns the packet duration in time base ticks.
func (p *PacketMut) RawDuration() int64 {
	if p.ptr == 0 {
		return 0
	}
	return nativeInt64(p.ptr, packetOffDuration)
}

// WithRawDuration sets the packet duration in time base ticks.
func (p *PacketMut) WithRawDuration(duration int64) *PacketMut {
	setNativeInt64(p.ptr, packetOffDuration, duration)
	return p
}

// IsKey returns true if the packet contains a keyframe.
func (p *PacketMut) IsKey() bool {
	return p.ptr != 0 && nativeInt32(p.ptr, packetOffFlags)&packetFlagKey != 0
}

// WithKey sets or clears the keyframe flag.
func (p *PacketMut) WithKey(key bool) *PacketMut {
	flags := nativeInt32(p.ptr, packetOffFlags)
	if key {
		flags |= packetFlagKey
	} else {
		flags &^= packetFlagKey
	}
	setNativeInt32(p.ptr, packetOffFlags, flags)
	return p
}

// Size returns the payload size in bytes.
func (p *PacketMut) Size() int {
	if p.ptr == 0 {
		return 0
	}
	return int(nativeInt32(p.ptr, packetOffSize))
}

// Data returns the writable packet payload. The slice aliases the native
// buffer and stays valid until the packet is frozen or freed.
func (p *PacketMut) Data() []byte {
	if p.ptr == 0 {
		return nil
	}
	return nativeBytes(nativePtr(p.ptr, packetOffData), p.Size())
}

// Freeze converts the packet into an immutable one without copying the
// payload. The mutable handle is consumed.
func (p *PacketMut) Freeze() *Packet {
	frozen := &Packet{ptr: p.ptr, tb: p.tb}
	p.ptr = 0
	return frozen
}

// Free releases the packet. Free is idempotent.
func (p *PacketMut) Free() {
	if p.ptr != 0 {
		avPacketFree(&p.ptr)
		p.ptr = 0
	}
}
