//go:build (darwin || linux) && (amd64 || arm64)

package av

// AudioTranscoderBuilder collects transcoder configuration. The input and
// output codec parameters are required.
type AudioTranscoderBuilder struct {
	input  *AudioCodecParameters
	output *AudioCodecParameters

	decoderOptions []codecOption
	encoderOptions []codecOption
}

// NewAudioTranscoder creates a transcoder builder converting a stream with
// the input codec parameters into one with the output codec parameters.
// The parameters are read when the transcoder is built; the caller keeps
// ownership.
func NewAudioTranscoder(input, output *AudioCodecParameters) *AudioTranscoderBuilder {
	return &AudioTranscoderBuilder{
		input:  input,
		output: output,
	}
}

// SetDecoderOption stages a codec private option for the internal decoder.
func (b *AudioTranscoderBuilder) SetDecoderOption(name, value string) *AudioTranscoderBuilder {
	b.decoderOptions = append(b.decoderOptions, codecOption{name: name, value: value})
	return b
}

// SetEncoderOption stages a codec private option for the internal encoder.
func (b *AudioTranscoderBuilder) SetEncoderOption(name, value string) *AudioTranscoderBuilder {
	b.encoderOptions = append(b.encoderOptions, codecOption{name: name, value: value})
	return b
}

// Build opens the decoder, resampler and encoder of the chain. The builder
// is consumed.
func (b *AudioTranscoderBuilder) Build() (*AudioTranscoder, error) {
	if b.input == nil {
		return nil, newError("input codec parameters not set")
	}
	if b.output == nil {
		return nil, newError("output codec parameters not set")
	}
	if b.input.SampleRate() <= 0 {
		return nil, newError("input sample rate not set")
	}
	if b.output.SampleRate() <= 0 {
		return nil, newError("output sample rate not set")
	}

	decoderBuilder := AudioDecoderFromCodecParameters(b.input).
		TimeBase(NewTimeBase(1, int32(b.input.SampleRate())))
	for _, opt := range b.decoderOptions {
		decoderBuilder.SetOption(opt.name, opt.value)
	}

	decoder, err := decoderBuilder.Build()
	if err != nil {
		return nil, err
	}

	encoderBuilder := AudioEncoderFromCodecParameters(b.output).
		TimeBase(NewTimeBase(1, int32(b.output.SampleRate())))
	for _, opt := range b.encoderOptions {
		encoderBuilder.SetOption(opt.name, opt.value)
	}

	encoder, err := encoderBuilder.Build()
	if err != nil {
		decoder.Close()
		return nil, err
	}

	resampler, err := NewAudioResampler().
		SourceChannelLayout(b.input.ChannelLayout()).
		SourceSampleFormat(b.input.SampleFormat()).
		SourceSampleRate(b.input.SampleRate()).
		TargetChannelLayout(b.output.ChannelLayout()).
		TargetSampleFormat(b.output.SampleFormat()).
		TargetSampleRate(b.output.SampleRate()).
		TargetFrameSamples(encoder.SamplesPerFrame()).
		Build()
	if err != nil {
		decoder.Close()
		encoder.Close()
		return nil, err
	}

	return &AudioTranscoder{
		decoder:   decoder,
		resampler: resampler,
		encoder:   encoder,
	}, nil
}

// AudioTranscoder converts audio packets of one codec into packets of
// another by running them through an internal decoder, resampler and
// encoder. The chain behaves as a single unit of the pump protocol
// described in this package; transcoded packets queue up inside and Push
// or Flush report Again until the queue has been taken empty.
type AudioTranscoder struct {
	decoder   *AudioDecoder
	resampler *AudioResampler
	encoder   *AudioEncoder

	ready []*Packet
}

// NewAudioTranscoderFor builds a transcoder with default decoder and
// encoder settings.
func NewAudioTranscoderFor(input, output *AudioCodecParameters) (*AudioTranscoder, error) {
	return NewAudioTranscoder(input, output).Build()
}

// CodecParameters returns the codec parameters of the transcoded stream.
func (t *AudioTranscoder) CodecParameters() *AudioCodecParameters {
	return t.encoder.CodecParameters()
}

// Push sends a packet through the chain. All output it produces becomes
// ready for Take.
func (t *AudioTranscoder) Push(packet *Packet) error {
	if len(t.ready) > 0 {
		return againError("take all transcoded packets before pushing another packet for transcoding")
	}
	return t.pushToDecoder(packet)
}

// Flush drains the whole chain. Remaining output becomes ready for Take.
func (t *AudioTranscoder) Flush() error {
	if len(t.ready) > 0 {
		return againError("take all transcoded packets before flushing the transcoder")
	}

	if err := t.flushDecoder(); err != nil {
		return err
	}
	if err := t.flushResampler(); err != nil {
		return err
	}
	return t.flushEncoder()
}

// Take returns the next transcoded packet, or nil when the transcoder
// needs more input or has been fully drained.
func (t *AudioTranscoder) Take() (*Packet, error) {
	if len(t.ready) == 0 {
		return nil, nil
	}
	packet := t.ready[0]
	t.ready[0] = nil
	t.ready = t.ready[1:]
	return packet, nil
}

// Close releases the chain and any packets not taken. Close is
// idempotent.
func (t *AudioTranscoder) Close() {
	t.decoder.Close()
	t.resampler.Close()
	t.encoder.Close()
	for _, packet := range t.ready {
		packet.Free()
	}
	t.ready = nil
}

func (t *AudioTranscoder) pushToDecoder(packet *Packet) error {
	if err := t.decoder.Push(packet); err != nil {
		return err
	}
	for {
		frame, err := t.decoder.Take()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}
		// Frames before the stream start carry encoder priming samples.
		if frame.Pts().Ticks() < 0 {
			frame.Free()
			continue
		}
		if err := t.pushToResampler(frame); err != nil {
			return err
		}
	}
}

func (t *AudioTranscoder) pushToResampler(frame *AudioFrame) error {
	if err := t.resampler.Push(frame); err != nil {
		return err
	}
	for {
		frame, err := t.resampler.Take()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}
		if err := t.pushToEncoder(frame); err != nil {
			return err
		}
	}
}

func (t *AudioTranscoder) pushToEncoder(frame *AudioFrame) error {
	if err := t.encoder.Push(frame); err != nil {
		return err
	}
	return t.collectEncoded()
}

func (t *AudioTranscoder) flushDecoder() error {
	if err := t.decoder.Flush(); err != nil {
		return err
	}
	for {
		frame, err := t.decoder.Take()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}
		if err := t.pushToResampler(frame); err != nil {
			return err
		}
	}
}

func (t *AudioTranscoder) flushResampler() error {
	if err := t.resampler.Flush(); err != nil {
		return err
	}
	for {
		frame, err := t.resampler.Take()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}
		if err := t.pushToEncoder(frame); err != nil {
			return err
		}
	}
}

func (t *AudioTranscoder) flushEncoder() error {
	if err := t.encoder.Flush(); err != nil {
		return err
	}
	return t.collectEncoded()
}

func (t *AudioTranscoder) collectEncoded() error {
	for {
		packet, err := t.encoder.Take()
		if err != nil {
			return err
		}
		if packet == nil {
			return nil
		}
		t.ready = append(t.ready, packet)
	}
}
