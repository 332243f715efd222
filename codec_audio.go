//go:build (darwin || linux) && (amd64 || arm64)

package av

// AudioDecoderBuilder collects audio decoder configuration. All chainers
// return the builder, Build opens the decoder.
type AudioDecoderBuilder struct {
	cfg decoderConfig
}

// NewAudioDecoder creates a decoder builder for a given codec name, for
// example "aac" or "opus".
func NewAudioDecoder(codecName string) *AudioDecoderBuilder {
	return &AudioDecoderBuilder{
		cfg: decoderConfig{
			codecName: codecName,
			tb:        TimeBaseMicroseconds,
			mediaType: mediaTypeAudio,
		},
	}
}

// AudioDecoderFromCodecParameters creates a decoder builder preset from
// the given codec parameters. The parameters are copied.
func AudioDecoderFromCodecParameters(params *AudioCodecParameters) *AudioDecoderBuilder {
	return &AudioDecoderBuilder{
		cfg: decoderConfig{
			params:    params.CodecParameters().Clone(),
			tb:        TimeBaseMicroseconds,
			mediaType: mediaTypeAudio,
		},
	}
}

// AudioDecoderFromStream creates a decoder builder for a demuxed stream.
// The decoder time base is taken from the stream, so packets taken from
// the demuxer can be pushed directly.
func AudioDecoderFromStream(stream *Stream) (*AudioDecoderBuilder, error) {
	params, ok := stream.CodecParameters().Audio()
	if !ok {
		return nil, newError("not an audio stream")
	}
	return AudioDecoderFromCodecParameters(params).TimeBase(stream.TimeBase()), nil
}

// TimeBase sets the time base packets are rescaled into before decoding
// and frames are tagged with. The default is microseconds.
func (b *AudioDecoderBuilder) TimeBase(tb TimeBase) *AudioDecoderBuilder {
	b.cfg.tb = tb
	return b
}

// Extradata sets the codec specific configuration record, for example
// the AudioSpecificConfig of an AAC stream.
func (b *AudioDecoderBuilder) Extradata(data []byte) *AudioDecoderBuilder {
	b.cfg.extradata = data
	return b
}

// SetOption stages a codec private option applied when the decoder
// opens.
func (b *AudioDecoderBuilder) SetOption(name, value string) *AudioDecoderBuilder {
	b.cfg.options = append(b.cfg.options, codecOption{name: name, value: value})
	return b
}

// Build opens the decoder. The builder is consumed.
func (b *AudioDecoderBuilder) Build() (*AudioDecoder, error) {
	core, err := openDecoder(b.cfg)
	if err != nil {
		return nil, err
	}
	if b.cfg.params != nil {
		b.cfg.params.Free()
	}
	return &AudioDecoder{core: core}, nil
}

// AudioDecoder decodes audio packets into frames. See the pump protocol
// description in this package for the Push, Flush and Take contract.
type AudioDecoder struct {
	core *decoderCore
}

// Push sends a packet into the decoder, rescaling it into the decoder
// time base. The packet is freed on success, kept for a retry when the
// returned error reports Again.
func (d *AudioDecoder) Push(packet *Packet) error {
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
func (d *AudioDecoder) Flush() error {
	return d.core.push(0, decoderFlushAgain)
}

// Take returns the next decoded frame, or nil when the decoder needs
// more input or has been fully drained.
func (d *AudioDecoder) Take() (*AudioFrame, error) {
	ptr, err := d.core.take()
	if err != nil || ptr == 0 {
		return nil, err
	}
	return &AudioFrame{ptr: ptr, tb: d.core.tb}, nil
}

// CodecParameters returns the current parameters of the decoded stream.
func (d *AudioDecoder) CodecParameters() *AudioCodecParameters {
	params, _ := d.core.codecParameters().Audio()
	return params
}

// Close releases the decoder. Close is idempotent.
func (d *AudioDecoder) Close() {
	d.core.close()
}

// AudioEncoderBuilder collects audio encoder configuration. Sample
// format, sample rate and channel layout are required.
type AudioEncoderBuilder struct {
	codecName  string
	fromParams *CodecParameters

	tb       TimeBase
	bitRate  int64
	codecTag CodecTag

	sampleFormat SampleFormat
	sampleRate   int
	layout       *ChannelLayout

	options []codecOption
}

// NewAudioEncoder creates an encoder builder for a given codec name.
func NewAudioEncoder(codecName string) *AudioEncoderBuilder {
	return &AudioEncoderBuilder{
		codecName:    codecName,
		tb:           TimeBaseMicroseconds,
		sampleFormat: -1,
	}
}

// AudioEncoderFromCodecParameters creates an encoder builder preset from
// the given codec parameters. The parameters are copied.
func AudioEncoderFromCodecParameters(params *AudioCodecParameters) *AudioEncoderBuilder {
	return &AudioEncoderBuilder{
		fromParams:   params.CodecParameters().Clone(),
		tb:           TimeBaseMicroseconds,
		bitRate:      params.BitRate(),
		sampleFormat: params.SampleFormat(),
		sampleRate:   params.SampleRate(),
		layout:       params.ChannelLayout().Clone(),
	}
}

// TimeBase sets the time base frames are rescaled into before encoding
// and packets are tagged with. The default is microseconds; audio
// encoders are commonly given 1/sample_rate.
func (b *AudioEncoderBuilder) TimeBase(tb TimeBase) *AudioEncoderBuilder {
	b.tb = tb
	return b
}

// BitRate sets the target bit rate in bits per second. The default is 0,
// leaving the choice to the codec.
func (b *AudioEncoderBuilder) BitRate(bitRate int64) *AudioEncoderBuilder {
	b.bitRate = bitRate
	return b
}

// SampleFormat sets the sample format of the pushed frames.
func (b *AudioEncoderBuilder) SampleFormat(format SampleFormat) *AudioEncoderBuilder {
	b.sampleFormat = format
	return b
}

// SampleRate sets the sample rate of the pushed frames in Hz.
func (b *AudioEncoderBuilder) SampleRate(rate int) *AudioEncoderBuilder {
	b.sampleRate = rate
	return b
}

// ChannelLayout sets the channel layout of the pushed frames. The layout
// is copied.
func (b *AudioEncoderBuilder) ChannelLayout(layout *ChannelLayout) *AudioEncoderBuilder {
	if b.layout != nil {
		b.layout.Free()
	}
	b.layout = layout.Clone()
	return b
}

// CodecTag sets the container tag of the encoded stream.
func (b *AudioEncoderBuilder) CodecTag(tag CodecTag) *AudioEncoderBuilder {
	b.codecTag = tag
	return b
}

// SetOption stages a codec private option applied when the encoder
// opens.
func (b *AudioEncoderBuilder) SetOption(name, value string) *AudioEncoderBuilder {
	b.options = append(b.options, codecOption{name: name, value: value})
	return b
}

// Build opens the encoder. The builder is consumed.
func (b *AudioEncoderBuilder) Build() (*AudioEncoder, error) {
	if b.sampleFormat < 0 {
		return nil, newError("sample format not set")
	}
	if b.sampleRate == 0 {
		return nil, newError("sample rate not set")
	}
	if b.layout == nil {
		return nil, newError("channel layout not set")
	}

	core, err := openEncoder(b.codecName, b.fromParams, b.options, func(ctx uintptr) error {
		setNativeRational(ctx, codecCtxOffTimeBase, b.tb)
		setNativeInt32(ctx, codecCtxOffSampleFmt, int32(b.sampleFormat))
		setNativeInt32(ctx, codecCtxOffSampleRate, int32(b.sampleRate))
		if avChannelLayoutCopy(ctx+codecCtxOffChLayout, b.layout.ptr) < 0 {
			panic("unable to copy a channel layout")
		}
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

	b.layout.Free()
	if b.fromParams != nil {
		b.fromParams.Free()
	}

	return &AudioEncoder{core: core}, nil
}

// AudioEncoder encodes audio frames into packets. See the pump protocol
// description in this package for the Push, Flush and Take contract.
type AudioEncoder struct {
	core *encoderCore
}

// SamplesPerFrame returns the number of samples per channel the encoder
// expects in every pushed frame except the last one, or 0 when the
// codec accepts frames of any size.
func (e *AudioEncoder) SamplesPerFrame() int {
	return int(nativeInt32(e.core.ctx, codecCtxOffFrameSize))
}

// Push sends a frame into the encoder, rescaling it into the encoder
// time base. The frame is freed on success, kept for a retry when the
// returned error reports Again.
func (e *AudioEncoder) Push(frame *AudioFrame) error {
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
func (e *AudioEncoder) Flush() error {
	return e.core.push(0, encoderFlushAgain)
}

// Take returns the next encoded packet, or nil when the encoder needs
// more input or has been fully drained.
func (e *AudioEncoder) Take() (*Packet, error) {
	ptr, err := e.core.take()
	if err != nil || ptr == 0 {
		return nil, err
	}
	return &Packet{ptr: ptr, tb: e.core.tb}, nil
}

// CodecParameters returns the parameters of the encoded stream. For
// codecs with global configuration records the extradata becomes
// available once the encoder is open.
func (e *AudioEncoder) CodecParameters() *AudioCodecParameters {
	params, _ := e.core.codecParameters().Audio()
	return params
}

// Close releases the encoder. Close is idempotent.
func (e *AudioEncoder) Close() {
	e.core.close()
}
