//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"math"
	"time"
)

// SeekTarget selects the direction a seek falls back to when the exact
// requested position cannot be hit.
type SeekTarget int32

const (
	// SeekTargetFrom seeks at least to the requested position, moving
	// forward when the exact target cannot be met.
	SeekTargetFrom SeekTarget = iota
	// SeekTargetUpTo seeks at most to the requested position, moving
	// backward when the exact target cannot be met.
	SeekTargetUpTo
	// SeekTargetPrecise forces seeking to the requested position even for
	// formats that cannot seek precisely.
	SeekTargetPrecise
)

// DemuxerBuilder configures a demuxer before it is bound to a byte
// source.
type DemuxerBuilder struct {
	inputFormat *InputFormat
	options     []codecOption
	url         string
}

// NewDemuxer creates a demuxer builder.
func NewDemuxer() *DemuxerBuilder {
	return &DemuxerBuilder{}
}

// InputFormat sets the container format. Without it the format is probed
// from the input data.
func (b *DemuxerBuilder) InputFormat(format *InputFormat) *DemuxerBuilder {
	b.inputFormat = format
	return b
}

// SetOption sets a format option applied when the input is opened.
func (b *DemuxerBuilder) SetOption(name, value string) *DemuxerBuilder {
	b.options = append(b.options, codecOption{name: name, value: value})
	return b
}

// SetURL sets the source location hint. Some demuxers, playlist based
// ones for example, use it to resolve relative references.
func (b *DemuxerBuilder) SetURL(url string) *DemuxerBuilder {
	b.url = url
	return b
}

// Open binds the demuxer to a byte source and probes the container
// header. The IO is owned by the demuxer on success and stays with the
// caller on failure.
func (b *DemuxerBuilder) Open(ioCtx *IO) (*Demuxer, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	ctx := avformatAllocContext()
	if ctx == 0 {
		panic("unable to allocate a demuxer context")
	}

	packet := avPacketAlloc()
	if packet == 0 {
		panic("unable to allocate a packet")
	}

	dict, err := dictFromOptions(b.options)
	if err != nil {
		avPacketFree(&packet)
		avformatFreeContext(ctx)
		return nil, err
	}

	var formatPtr uintptr
	if b.inputFormat != nil {
		formatPtr = b.inputFormat.ptr
	}

	setNativePtr(ctx, formatCtxOffPb, ioCtx.ctx)

	// The context is freed by the native side on failure.
	ret := avformatOpenInput(&ctx, b.url, formatPtr, &dict.ptr)
	dict.free()
	if ret < 0 {
		avPacketFree(&packet)
		return nil, errorFromRaw(ret)
	}

	return &Demuxer{ctx: ctx, packet: packet, io: ioCtx}, nil
}

// Demuxer reads packets out of a container. Use NewDemuxer to configure
// and open one.
type Demuxer struct {
	ctx    uintptr
	packet uintptr
	io     *IO
}

// formatStreamPtr returns the native stream at the given index of a
// format context.
func formatStreamPtr(ctx uintptr, index int32) uintptr {
	streams := nativePtr(ctx, formatCtxOffStreams)
	return nativePtr(streams, uintptr(index)*8)
}

// SetOption sets a format option on the open demuxer.
func (d *Demuxer) SetOption(name, value string) error {
	if ret := avOptSet(d.ctx, name, value, optSearchChildren); ret < 0 {
		return errorFromRaw(ret)
	}
	return nil
}

// TakePacket returns the next packet of the container, tagged with its
// stream index and the stream time base, or nil at the end of the input.
func (d *Demuxer) TakePacket() (*Packet, error) {
	ret := avReadFrame(d.ctx, d.packet)
	if ret == averrorEOF {
		avPacketUnref(d.packet)
		return nil, nil
	}
	if ret < 0 {
		avPacketUnref(d.packet)
		return nil, errorFromRaw(ret)
	}

	clone := avPacketClone(d.packet)
	avPacketUnref(d.packet)
	if clone == 0 {
		panic("unable to clone the packet")
	}

	stream := formatStreamPtr(d.ctx, nativeInt32(clone, packetOffStreamIndex))

	return &Packet{ptr: clone, tb: nativeRational(stream, streamOffTimeBase)}, nil
}

// SeekToTimestamp seeks to the given timestamp.
func (d *Demuxer) SeekToTimestamp(timestamp Timestamp, target SeekTarget) error {
	micros := timestamp.WithTimeBase(TimeBaseMicroseconds)
	if micros.IsNull() {
		return newError("null timestamp")
	}
	return d.seek(micros.Ticks(), 0, target)
}

// SeekToFrame seeks to the given frame index.
func (d *Demuxer) SeekToFrame(frame int64, target SeekTarget) error {
	return d.seek(frame, seekFlagFrame, target)
}

// SeekToByte seeks to the given byte offset.
func (d *Demuxer) SeekToByte(offset int64) error {
	// The directional flags are ignored for byte seeks.
	return d.seek(offset, seekFlagByte, SeekTargetPrecise)
}

func (d *Demuxer) seek(position int64, flags int32, target SeekTarget) error {
	switch target {
	case SeekTargetUpTo:
		flags |= seekFlagBackward
	case SeekTargetPrecise:
		flags |= seekFlagAny
	}

	// The backward flag only selects which side of the target the seek
	// window opens to.
	minTs, maxTs := int64(math.MinInt64), int64(math.MaxInt64)
	if flags&seekFlagBackward != 0 {
		maxTs = position
		flags &^= seekFlagBackward
	} else {
		minTs = position
	}

	if ret := avformatSeekFile(d.ctx, -1, minTs, position, maxTs, flags); ret < 0 {
		return errorFromRaw(ret)
	}
	return nil
}

// FindStreamInfo analyzes the input to fill in stream descriptors. The
// analysis reads ahead at most maxAnalyzeDuration of input; a
// non-positive duration lets the native side pick its default budget. On
// failure the demuxer stays usable.
func (d *Demuxer) FindStreamInfo(maxAnalyzeDuration time.Duration) (*DemuxerWithStreamInfo, error) {
	var micros int64
	if maxAnalyzeDuration > 0 {
		micros = maxAnalyzeDuration.Microseconds()
	}
	setNativeInt64(d.ctx, formatCtxOffMaxAnalyzeDuration, micros)

	if ret := avformatFindStreamInfo(d.ctx, nil); ret < 0 {
		return nil, errorFromRaw(ret)
	}

	containerDuration := nativeInt64(d.ctx, formatCtxOffDuration)

	count := nativeInt32(d.ctx, formatCtxOffNbStreams)
	streams := make([]*Stream, 0, count)
	for i := int32(0); i < count; i++ {
		ptr := formatStreamPtr(d.ctx, i)
		if ptr == 0 {
			panic("unable to get stream info")
		}
		streams = append(streams, newStream(ptr, containerDuration))
	}

	return &DemuxerWithStreamInfo{Demuxer: d, streams: streams}, nil
}

// InputFormat returns the format the input was opened with.
func (d *Demuxer) InputFormat() *InputFormat {
	return &InputFormat{ptr: nativePtr(d.ctx, formatCtxOffIformat)}
}

// IO returns the underlying byte source.
func (d *Demuxer) IO() *IO {
	return d.io
}

// Close releases the demuxer together with its byte source. Safe to call
// more than once.
func (d *Demuxer) Close() {
	if d.packet != 0 {
		avPacketFree(&d.packet)
	}
	if d.ctx != 0 {
		avformatCloseInput(&d.ctx)
	}
	if d.io != nil {
		d.io.Free()
		d.io = nil
	}
}

// DemuxerWithStreamInfo is a demuxer whose stream descriptors are known.
type DemuxerWithStreamInfo struct {
	*Demuxer
	streams []*Stream
}

// Streams returns the stream descriptors of the container.
func (d *DemuxerWithStreamInfo) Streams() []*Stream {
	return d.streams
}
