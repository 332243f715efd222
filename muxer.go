//go:build (darwin || linux) && (amd64 || arm64)

package av

// MuxerBuilder collects streams and options for a muxer. Streams must be
// registered before Open; the builder refuses registrations afterwards.
type MuxerBuilder struct {
	ctx         uintptr
	format      *OutputFormat
	streams     []*Stream
	options     []codecOption
	metadata    []codecOption
	url         string
	interleaved bool
	opened      bool
}

// NewMuxer creates a muxer builder for the given output format.
func NewMuxer(format *OutputFormat) (*MuxerBuilder, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	if format == nil {
		return nil, newError("output format not set")
	}

	ctx := avformatAllocContext()
	if ctx == 0 {
		panic("unable to allocate a muxer context")
	}

	return &MuxerBuilder{
		ctx:         ctx,
		format:      format,
		interleaved: true,
	}, nil
}

// AddStream registers a new stream with the given codec parameters and
// returns its descriptor. Registering streams on an opened muxer fails
// with a configuration error.
func (b *MuxerBuilder) AddStream(params *CodecParameters) (*Stream, error) {
	if b.opened {
		return nil, newError("streams must be added before the muxer is opened")
	}
	if params == nil {
		return nil, newError("nil codec parameters")
	}

	ptr := avformatNewStream(b.ctx, 0)
	if ptr == 0 {
		return nil, errorFromRaw(averrorNoMem)
	}
	if ret := avcodecParametersCopy(nativePtr(ptr, streamOffCodecpar), params.ptr); ret < 0 {
		return nil, errorFromRaw(ret)
	}

	stream := newStream(ptr, NoPtsValue)
	b.streams = append(b.streams, stream)

	return stream, nil
}

// Streams returns the registered stream descriptors.
func (b *MuxerBuilder) Streams() []*Stream {
	return b.streams
}

// SetOption sets a container option applied when the muxer is opened.
// The pseudo option "url" fills the output location field of the
// context instead; some muxers producing multiple outputs need it.
func (b *MuxerBuilder) SetOption(name, value string) *MuxerBuilder {
	if name == "url" {
		b.url = value
		return b
	}
	b.options = append(b.options, codecOption{name: name, value: value})
	return b
}

// SetMetadata sets a container metadata entry.
func (b *MuxerBuilder) SetMetadata(key, value string) *MuxerBuilder {
	b.metadata = append(b.metadata, codecOption{name: key, value: value})
	return b
}

// Interleaved controls whether packets are interleaved by the muxer into
// presentation order across streams. Enabled by default; disable it only
// when the caller guarantees correct ordering itself.
func (b *MuxerBuilder) Interleaved(interleaved bool) *MuxerBuilder {
	b.interleaved = interleaved
	return b
}

// Open binds the muxer to a byte sink and writes the container header.
// The IO is owned by the muxer on success and stays with the caller on
// failure.
func (b *MuxerBuilder) Open(ioCtx *IO) (*Muxer, error) {
	if b.opened {
		return nil, newError("muxer already opened")
	}

	setNativePtr(b.ctx, formatCtxOffOformat, b.format.ptr)
	setNativePtr(b.ctx, formatCtxOffPb, ioCtx.ctx)

	if b.url != "" {
		if old := nativePtr(b.ctx, formatCtxOffURL); old != 0 {
			avFree(old)
		}
		url := avStrdup(b.url)
		if url == 0 {
			panic("unable to allocate URL")
		}
		setNativePtr(b.ctx, formatCtxOffURL, url)
	}

	for _, entry := range b.metadata {
		if dictSetAt(b.ctx, formatCtxOffMetadata, entry.name, entry.value) < 0 {
			panic("unable to allocate metadata")
		}
	}

	// Container tags surviving from another container are dropped unless
	// they mean the same codec in the output format.
	tags := nativePtr(b.format.ptr, outputFormatOffCodecTag)
	for _, stream := range b.streams {
		par := nativePtr(stream.ptr, streamOffCodecpar)
		tag := uint32(nativeInt32(par, codecParOffCodecTag))
		id := avCodecGetID(tags, tag)
		if id == 0 || id != nativeInt32(par, codecParOffCodecID) {
			setNativeInt32(par, codecParOffCodecTag, 0)
		}
	}

	dict, err := dictFromOptions(b.options)
	if err != nil {
		return nil, err
	}

	ret := avformatWriteHeader(b.ctx, &dict.ptr)
	dict.free()
	if ret < 0 {
		return nil, errorFromRaw(ret)
	}

	b.opened = true

	return &Muxer{ctx: b.ctx, io: ioCtx, interleaved: b.interleaved}, nil
}

// Free releases an abandoned builder. Once Open succeeded the context
// belongs to the muxer and Free does nothing.
func (b *MuxerBuilder) Free() {
	if !b.opened && b.ctx != 0 {
		avformatFreeContext(b.ctx)
		b.ctx = 0
	}
}

// Muxer writes packets into a container. Use NewMuxer to configure and
// open one.
type Muxer struct {
	ctx            uintptr
	io             *IO
	interleaved    bool
	trailerWritten bool
}

// SetOption sets a format option on the open muxer.
func (m *Muxer) SetOption(name, value string) error {
	if ret := avOptSet(m.ctx, name, value, optSearchChildren); ret < 0 {
		return errorFromRaw(ret)
	}
	return nil
}

// PushPacket writes a packet into the stream selected by its stream
// index. Timestamps are rescaled from the packet time base into the time
// base the muxer chose for the stream. The packet is released on
// success.
func (m *Muxer) PushPacket(packet *Packet) error {
	if packet == nil {
		return newError("nil packet")
	}

	index := int32(packet.StreamIndex())
	if index < 0 || index >= nativeInt32(m.ctx, formatCtxOffNbStreams) {
		return newError("invalid stream index")
	}

	stream := formatStreamPtr(m.ctx, index)
	packet.WithTimeBase(nativeRational(stream, streamOffTimeBase))

	var ret int32
	if m.interleaved {
		ret = avInterleavedWriteFrame(m.ctx, packet.rawPtr())
	} else {
		ret = avWriteFrame(m.ctx, packet.rawPtr())
	}
	if ret < 0 {
		return errorFromRaw(ret)
	}

	packet.Free()

	return nil
}

// Flush drains buffered packets and writes the container trailer. The
// trailer is written only once; later calls do nothing.
func (m *Muxer) Flush() error {
	if m.ctx == 0 || m.trailerWritten {
		return nil
	}

	var ret int32
	if m.interleaved {
		ret = avInterleavedWriteFrame(m.ctx, 0)
	} else {
		ret = avWriteFrame(m.ctx, 0)
	}
	if ret < 0 {
		return errorFromRaw(ret)
	}

	if ret := avWriteTrailer(m.ctx); ret < 0 {
		return errorFromRaw(ret)
	}
	m.trailerWritten = true

	return nil
}

// TakeIO detaches and returns the underlying byte sink, typically to
// collect the muxed data out of a MemWriter. The caller becomes
// responsible for freeing it.
func (m *Muxer) TakeIO() *IO {
	ioCtx := m.io
	m.io = nil
	return ioCtx
}

// Close finalizes the container and releases the muxer. The trailer is
// written first unless a Flush already did. The byte sink is freed too
// unless TakeIO detached it. Safe to call more than once.
func (m *Muxer) Close() error {
	if m.ctx == 0 {
		return nil
	}

	err := m.Flush()

	avformatFreeContext(m.ctx)
	m.ctx = 0

	if m.io != nil {
		m.io.Free()
		m.io = nil
	}

	return err
}
