//go:build (darwin || linux) && (amd64 || arm64)

package av

// VideoDecoderBuilder collects video decoder configuration. All chainers
// return the builder, Build opens the decoder.
type VideoDecoderBuilder struct {
	cfg decoderConfig
}

// NewVideoDecoder creates a decoder builder for a given codec name, for
// example "h264" or "vp8".
func NewVideoDecoder(codecName string) *VideoDecoderBuilder {
	return &VideoDecoderBuilder{
		cfg: decoderConfig{
			codecName: codecName,
			tb:        TimeBaseMicroseconds,
			mediaType: mediaTypeVideo,
		},
	}
}

// VideoDecoderFromCodecParameters creates a decoder builder preset from
// the given codec parameters. The parameters are copied.
func VideoDecoderFromCodecParameters(params *VideoCodecParameters) *VideoDecoderBuilder {
	return &VideoDecoderBuilder{
		cfg: decoderConfig{
			params:    params.CodecParameters().Clone(),
			tb:        TimeBaseMicroseconds,
			mediaType: mediaTypeVideo,
		},
	}
}

// VideoDecoderFromStream creates a decoder builder for a demuxed stream.
// The decoder time base is taken from the stream, so packets taken from
// the demuxer can be pushed directly.
func VideoDecoderFromStream(stream *Stream) (*VideoDecoderBuilder, error) {
	params, ok := stream.CodecParameters().Video()
	if !ok {
		return nil, newError("not a video stream")
	}
	return VideoDecoderFromCodecParameters(params).TimeBase(stream.TimeBase()), nil
}

// TimeBase sets the time base packets are rescaled into before decoding
// and frames are tagged with. The default is microseconds.
func (b *VideoDecoderBuilder) TimeBase(tb TimeBase) *VideoDecoderBuilder {
	b.cfg.tb = tb
	return b
}

// LowDelay tells the decoder to output frames as soon as possible at the
// cost of disabling frame threading.
func (b *VideoDecoderBuilder) LowDelay() *VideoDecoderBuilder {
	b.cfg.lowDelay = true
	return b
}

// Extradata sets the codec specific configuration record, for example
// the AVCC record of an H.264 stream.
func (b *VideoDecoderBuilder) Extradata(data []byte) *VideoDecoderBuilder {
	b.cfg.extradata = data
	return b
}

// SetOption stages a codec private option applied when the decoder
// opens.
func (b *VideoDecoderBuilder) SetOption(name, value string) *VideoDecoderBuilder {
	b.cfg.options = append(b.cfg.options, codecOption{name: name, value: value})
	return b
}

// Build opens the decoder. The builder is consumed.
func (b *VideoDecoderBuilder) Build() (*VideoDecoder, error) {
	core, err := openDecoder(b.cfg)
	if err != nil {
		return nil, err
	}
	if b.cfg.params != nil {
		b.cfg.params.Free()
	}
	return &VideoDecoder{core: core}, nil
}

// VideoDecoder decodes video packets into frames. See the pump protocol
// description in this package for the Push, Flush and Take contract.
type VideoDecoder struct {
	core *decoderCore
}

// Push sends a packet into the decoder, rescaling it into the decoder
// time base. The packet is freed on success, kept for a retry when the
// returned error reports Again.
func (d *VideoDecoder) Push(packet *Packet) error {
	if packet == nil || packet.ptr == 0 {
		return newError("nil packet")
	}
	packet.WithTimeBase(d.core.tb)
	if err := d.core.push(packet.ptr, decoderPushAgain); err != nil {
		return err
	}
	packet.Free()
	return nil
}

// Flush signals the end of the stream. Frames may still be ready after
// the flush.
func (d *VideoDecoder) Flush() error {
	return d.core.push(0, decoderFlushAgain)
}

// Take returns the next decoded frame, or nil when the decoder needs
// more input or has been fully drained.
func (d *VideoDecoder) Take() (*VideoFrame, error) {
	ptr, err := d.core.take()
	if err != nil || ptr == 0 {
		return nil, err
	}
	return &VideoFrame{ptr: ptr, tb: d.core.tb}, nil
}

// CodecParameters returns the current parameters of the decoded stream.
func (d *VideoDecoder) CodecParameters() *VideoCodecParameters {
	params, _ := d.core.codecParameters().Video()
	return params
}

// Close releases the decoder. Close is idempotent.
func (d *VideoDecoder) Close() {
	d.core.close()
}

// VideoEncoderBuilder collects video encoder configuration. Pixel
// format, width and height are required.
type VideoEncoderBuilder struct {
	codecName  string
	fromParams *CodecParameters

	tb       TimeBase
	bitRate  int64
	codecTag CodecTag

	pixelFormat PixelFormat
	width       int
	height      int

	options []codecOption
}

// NewVideoEncoder creates an encoder builder for a given codec name.
func NewVideoEncoder(codecName string) *VideoEncoderBuilder {
	return &VideoEncoderBuilder{
		codecName:   codecName,
		tb:          TimeBaseMicroseconds,
		pixelFormat: -1,
	}
}

// VideoEncoderFromCodecParameters creates an encoder builder preset from
// the given codec parameters. The parameters are copied.
func VideoEncoderFromCodecParameters(params *VideoCodecParameters) *VideoEncoderBuilder {
	return &VideoEncoderBuilder{
		fromParams:  params.CodecParameters().Clone(),
		tb:          TimeBaseMicroseconds,
		bitRate:     params.BitRate(),
		pixelFormat: params.PixelFormat(),
		width:       params.Width(),
		height:      params.Height(),
	}
}

// TimeBase sets the time base frames are rescaled into before encoding
// and packets are tagged with. The default is microseconds.
func (b *VideoEncoderBuilder) TimeBase(tb TimeBase) *VideoEncoderBuilder {
	b.tb = tb
	return b
}

// BitRate sets the target bit rate in bits per second. The default is 0,
// leaving the choice to the codec.
func (b *VideoEncoderBuilder) BitRate(bitRate int64) *VideoEncoderBuilder {
	b.bitRate = bitRate
	return b
}

// PixelFormat sets the pixel format of the pushed frames.
func (b *VideoEncoderBuilder) PixelFormat(format PixelFormat) *VideoEncoderBuilder {
	b.pixelFormat = format
	return b
}

// Width sets the width of the pushed frames in pixels.
func (b *VideoEncoderBuilder) Width(width int) *VideoEncoderBuilder {
	b.width = width
	return b
}

// Height sets the height of the pushed frames in pixels.
func (b *VideoEncoderBuilder) Height(height int) *VideoEncoderBuilder {
	b.height = height
	return b
}

// CodecTag sets the container tag of the encoded stream.
func (b *VideoEncoderBuilder) CodecTag(tag CodecTag) *VideoEncoderBuilder {
	b.codecTag = tag
	return b
}

// SetOption stages a codec private option applied when the encoder
// opens.
func (b *VideoEncoderBuilder) SetOption(name, value string) *VideoEncoderBuilder {
	b.options = append(b.options, codecOption{name: name, value: value})
	return b
}

// Build opens the encoder. The builder is consumed.
func (b *VideoEncoderBuilder) Build() (*VideoEncoder, error) {
	if b.pixelFormat < 0 {
		return nil, newError("pixel format not set")
	}
	if b.width == 0 {
		return nil, newError("width not set")
	}
	if b.height == 0 {
		return nil, newError("height not set")
	}

	core, err := openEncoder(b.codecName, b.fromParams, b.options, func(ctx uintptr) error {
		setNativeRational(ctx, codecCtxOffTimeBase, b.tb)
		setNativeInt32(ctx, codecCtxOffPixFmt, int32(b.pixelFormat))
		setNativeInt32(ctx, codecCtxOffWidth, int32(b.width))
		setNativeInt32(ctx, codecCtxOffHeight, int32(b.height))
		setNativeInt64(ctx, codecCtxOffBitRate, b.bitRate)
		if b.codecTag != 0 {
			setNativeInt32(ctx, codecCtxOffCodecTag, int32(b.codecTag))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	core.tb = b.tb

	if b.fromParams != nil {
		b.fromParams.Free()
	}

	return &VideoEncoder{core: core}, nil
}

// VideoEncoder encodes video frames into packets. See the pump protocol
// description in this package for the Push, Flush and Take contract.
type VideoEncoder struct {
	core *encoderCore
}

// Push sends a frame into the encoder, rescaling it into the encoder
// time base. The frame is freed on success, kept for a retry when the
// returned error reports Again.
func (e *VideoEncoder) Push(frame *VideoFrame) error {
	if frame == nil || frame.ptr == 0 {
		return newError("nil frame")
	}
	frame.WithTimeBase(e.core.tb)
	if err := e.core.push(frame.ptr, encoderPushAgain); err != nil {
		return err
	}
	frame.Free()
	return nil
}

// Flush signals the end of the stream. Packets may still be ready after
// the flush.
func (e *VideoEncoder) Flush() error {
	return e.core.push(0, encoderFlushAgain)
}

// Take returns the next encoded packet, or nil when the encoder needs
// more input or has been fully drained.
func (e *VideoEncoder) Take() (*Packet, error) {
	ptr, err := e.core.take()
	if err != nil || ptr == 0 {
		return nil, err
	}
	return &Packet{ptr: ptr, tb: e.core.tb}, nil
}

// CodecParameters returns the parameters of the encoded stream. For
// codecs with global configuration records the extradata becomes
// available once the encoder is open.
func (e *VideoEncoder) CodecParameters() *VideoCodecParameters {
	params, _ := e.core.codecParameters().Video()
	return params
}

// Close releases the encoder. Close is idempotent.
func (e *VideoEncoder) Close() {
	e.core.close()
}
