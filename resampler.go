//go:build (darwin || linux) && (amd64 || arm64)

package av

// AudioResamplerBuilder collects resampler configuration. The source and
// target channel layout, sample format and sample rate are all required.
type AudioResamplerBuilder struct {
	sourceLayout *ChannelLayout
	sourceFormat SampleFormat
	sourceRate   int

	targetLayout *ChannelLayout
	targetFormat SampleFormat
	targetRate   int

	targetFrameSamples int
}

// NewAudioResampler creates a resampler builder.
func NewAudioResampler() *AudioResamplerBuilder {
	return &AudioResamplerBuilder{
		sourceFormat: -1,
		targetFormat: -1,
	}
}

// SourceChannelLayout sets the channel layout of the pushed frames. The
// layout is copied.
func (b *AudioResamplerBuilder) SourceChannelLayout(layout *ChannelLayout) *AudioResamplerBuilder {
	if b.sourceLayout != nil {
		b.sourceLayout.Free()
	}
	b.sourceLayout = layout.Clone()
	return b
}

// SourceSampleFormat sets the sample format of the pushed frames.
func (b *AudioResamplerBuilder) SourceSampleFormat(format SampleFormat) *AudioResamplerBuilder {
	b.sourceFormat = format
	return b
}

// SourceSampleRate sets the sample rate of the pushed frames in Hz.
func (b *AudioResamplerBuilder) SourceSampleRate(rate int) *AudioResamplerBuilder {
	b.sourceRate = rate
	return b
}

// TargetChannelLayout sets the channel layout of the taken frames. The
// layout is copied.
func (b *AudioResamplerBuilder) TargetChannelLayout(layout *ChannelLayout) *AudioResamplerBuilder {
	if b.targetLayout != nil {
		b.targetLayout.Free()
	}
	b.targetLayout = layout.Clone()
	return b
}

// TargetSampleFormat sets the sample format of the taken frames.
func (b *AudioResamplerBuilder) TargetSampleFormat(format SampleFormat) *AudioResamplerBuilder {
	b.targetFormat = format
	return b
}

// TargetSampleRate sets the sample rate of the taken frames in Hz.
func (b *AudioResamplerBuilder) TargetSampleRate(rate int) *AudioResamplerBuilder {
	b.targetRate = rate
	return b
}

// TargetFrameSamples sets the exact number of samples per taken frame,
// for encoders with a fixed frame size. Without it output frames keep
// whatever size the conversion produces.
func (b *AudioResamplerBuilder) TargetFrameSamples(samples int) *AudioResamplerBuilder {
	b.targetFrameSamples = samples
	return b
}

// Build opens the resampler. The builder is consumed.
func (b *AudioResamplerBuilder) Build() (*AudioResampler, error) {
	if b.sourceLayout == nil {
		return nil, newError("source channel layout was not set")
	}
	if b.sourceFormat < 0 {
		return nil, newError("source sample format was not set")
	}
	if b.sourceRate == 0 {
		return nil, newError("source sample rate was not set")
	}
	if b.targetLayout == nil {
		return nil, newError("target channel layout was not set")
	}
	if b.targetFormat < 0 {
		return nil, newError("target sample format was not set")
	}
	if b.targetRate == 0 {
		return nil, newError("target sample rate was not set")
	}

	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	ctx := swrAlloc()
	if ctx == 0 {
		panic("unable to allocate a resampler")
	}
	avOptSetChlayout(ctx, "in_chlayout", b.sourceLayout.ptr, 0)
	avOptSetSampleFmt(ctx, "in_sample_fmt", int32(b.sourceFormat), 0)
	avOptSetInt(ctx, "in_sample_rate", int64(b.sourceRate), 0)
	avOptSetChlayout(ctx, "out_chlayout", b.targetLayout.ptr, 0)
	avOptSetSampleFmt(ctx, "out_sample_fmt", int32(b.targetFormat), 0)
	avOptSetInt(ctx, "out_sample_rate", int64(b.targetRate), 0)

	if swrInit(ctx) < 0 {
		swrFree(&ctx)
		b.sourceLayout.Free()
		b.targetLayout.Free()
		return nil, newError("unable to create an audio resampler for a given configuration")
	}

	return &AudioResampler{
		ctx:                ctx,
		sourceLayout:       b.sourceLayout,
		sourceFormat:       b.sourceFormat,
		sourceRate:         b.sourceRate,
		targetLayout:       b.targetLayout,
		targetFormat:       b.targetFormat,
		targetRate:         b.targetRate,
		targetFrameSamples: int32(b.targetFrameSamples),
	}, nil
}

// AudioResampler converts audio frames between channel layouts, sample
// formats and sample rates. See the pump protocol description in this
// package for the Push, Flush and Take contract.
//
// The resampler keeps its own sample clock. Gaps between the pts of
// consecutive input frames are filled with silence, overlaps drop the
// extra output. Taken frames carry timestamps in 1/target_rate.
type AudioResampler struct {
	ctx uintptr

	sourceLayout *ChannelLayout
	sourceFormat SampleFormat
	sourceRate   int

	targetLayout *ChannelLayout
	targetFormat SampleFormat
	targetRate   int

	targetFrameSamples int32

	tmpFrame    uintptr
	tmpCapacity int32
	outputFrame uintptr

	sourceSamples     int64
	expectedSourcePts int64
	outputSamples     int64
	inputPtsOffset    int64
	outputPtsOffset   int64

	offset   int32
	flushing bool
}

// allocSamplesFrame allocates a frame with a sample buffer for the given
// parameters.
func allocSamplesFrame(layout *ChannelLayout, format SampleFormat, rate int, samples int32) uintptr {
	ptr := avFrameAlloc()
	if ptr == 0 {
		panic("unable to allocate an audio frame")
	}
	setNativeInt32(ptr, frameOffFormat, int32(format))
	setNativeInt32(ptr, frameOffSampleRate, int32(rate))
	setNativeInt32(ptr, frameOffNbSamples, samples)
	if avChannelLayoutCopy(ptr+frameOffChannelLayout, layout.ptr) < 0 {
		frameFree(&ptr)
		panic("unable to allocate an audio frame")
	}
	if avFrameGetBuffer(ptr, 0) < 0 {
		frameFree(&ptr)
		panic("unable to allocate an audio frame")
	}
	return ptr
}

// Push sends a frame into the resampler. The frame must match the
// configured source parameters. The frame is freed on success, kept for
// a retry when the returned error reports Again.
func (r *AudioResampler) Push(frame *AudioFrame) error {
	if frame == nil || frame.ptr == 0 {
		return newError("nil frame")
	}
	if !frame.ChannelLayout().Equal(r.sourceLayout) {
		return codecError(newError("invalid frame, channel layout does not match"))
	}
	if frame.SampleFormat() != r.sourceFormat {
		return codecError(newError("invalid frame, sample format does not match"))
	}
	if frame.SampleRate() != r.sourceRate {
		return codecError(newError("invalid frame, sample rate does not match"))
	}

	frame.WithTimeBase(TimeBase{Num: 1, Den: int32(r.sourceRate)})

	if err := r.convert(frame.ptr, "all frames must be consumed before pushing a new frame"); err != nil {
		return err
	}
	frame.Free()
	return nil
}

// Flush drains the delay line of the resampler. In fixed frame size mode
// the last frame may be shorter than the configured size.
func (r *AudioResampler) Flush() error {
	return r.convert(0, "all frames must be consumed before flushing")
}

// convert resamples one input frame (or the delay line when the frame is
// zero) into the staging frame.
func (r *AudioResampler) convert(frame uintptr, againMsg string) error {
	if r.tmpFrame != 0 && r.offset < nativeInt32(r.tmpFrame, frameOffNbSamples) {
		return againError(againMsg)
	}

	var capacity int32

	if frame != 0 {
		pts := nativeInt64(frame, frameOffPts)
		samples := nativeInt32(frame, frameOffNbSamples)

		// The first frame anchors the sample clock.
		if r.sourceSamples == 0 {
			r.expectedSourcePts = pts
			r.inputPtsOffset = pts
			r.outputPtsOffset = pts * int64(r.targetRate) / int64(r.sourceRate)
		}

		ptsDelta := pts - r.expectedSourcePts
		if ptsDelta > 0 {
			if ret := swrInjectSilence(r.ctx, int32(ptsDelta)); ret < 0 {
				return codecError(errorFromRaw(ret))
			}
		} else if ptsDelta < 0 {
			drop := -ptsDelta * int64(r.targetRate) / int64(r.sourceRate)
			if ret := swrDropOutput(r.ctx, int32(drop)); ret < 0 {
				return codecError(errorFromRaw(ret))
			}
		}

		r.sourceSamples += int64(samples) + ptsDelta
		r.expectedSourcePts = r.inputPtsOffset + r.sourceSamples

		capacity = swrGetOutSamples(r.ctx, samples)
		if capacity < 0 {
			return codecError(errorFromRaw(capacity))
		}
	} else {
		r.flushing = true

		capacity = int32(swrGetDelay(r.ctx, int64(r.targetRate))) + 3
	}

	if r.tmpFrame == 0 || avFrameIsWritable(r.tmpFrame) == 0 || capacity > r.tmpCapacity {
		frameFree(&r.tmpFrame)
		r.tmpFrame = allocSamplesFrame(r.targetLayout, r.targetFormat, r.targetRate, capacity)
		r.tmpCapacity = capacity
	}

	setNativeInt32(r.tmpFrame, frameOffNbSamples, 0)
	r.offset = 0

	var in uintptr
	var inSamples int32
	if frame != 0 {
		in = nativePtr(frame, frameOffExtendedData)
		inSamples = nativeInt32(frame, frameOffNbSamples)
	}
	ret := swrConvert(r.ctx, nativePtr(r.tmpFrame, frameOffExtendedData), capacity, in, inSamples)
	if ret < 0 {
		return codecError(errorFromRaw(ret))
	}
	setNativeInt32(r.tmpFrame, frameOffNbSamples, ret)

	setNativeInt64(r.tmpFrame, frameOffPts, r.outputSamples+r.outputPtsOffset)
	r.outputSamples += int64(ret)

	return nil
}

// Take returns the next resampled frame, or nil when the resampler needs
// more input or has been fully drained. Timestamps of the taken frames
// are in 1/target_rate.
func (r *AudioResampler) Take() (*AudioFrame, error) {
	if r.tmpFrame == 0 {
		return nil, nil
	}

	tb := TimeBase{Num: 1, Den: int32(r.targetRate)}

	// Without a fixed target frame size the staging frame goes out as is.
	if r.targetFrameSamples == 0 {
		r.flushing = false

		if nativeInt32(r.tmpFrame, frameOffNbSamples) == 0 {
			return nil, nil
		}
		clone := avFrameClone(r.tmpFrame)
		if clone == 0 {
			panic("unable to allocate an audio frame")
		}
		setNativeInt32(r.tmpFrame, frameOffNbSamples, 0)
		return &AudioFrame{ptr: clone, tb: tb}, nil
	}

	if r.outputFrame == 0 || avFrameIsWritable(r.outputFrame) == 0 {
		frameFree(&r.outputFrame)
		r.outputFrame = allocSamplesFrame(r.targetLayout, r.targetFormat, r.targetRate,
			r.targetFrameSamples)
		setNativeInt32(r.outputFrame, frameOffNbSamples, 0)
	}

	filled := nativeInt32(r.outputFrame, frameOffNbSamples)
	required := r.targetFrameSamples - filled
	available := nativeInt32(r.tmpFrame, frameOffNbSamples) - r.offset

	copySamples := available
	if copySamples > required {
		copySamples = required
	}

	if copySamples > 0 {
		avSamplesCopy(
			nativePtr(r.outputFrame, frameOffExtendedData),
			nativePtr(r.tmpFrame, frameOffExtendedData),
			filled,
			r.offset,
			copySamples,
			int32(r.targetLayout.Channels()),
			int32(r.targetFormat))

		if filled == 0 {
			setNativeInt64(r.outputFrame, frameOffPts,
				nativeInt64(r.tmpFrame, frameOffPts)+int64(r.offset))
		}

		r.offset += copySamples
		filled += copySamples
		setNativeInt32(r.outputFrame, frameOffNbSamples, filled)
	}

	if !r.flushing && filled < r.targetFrameSamples {
		return nil, nil
	}

	clone := avFrameClone(r.outputFrame)
	if clone == 0 {
		panic("unable to allocate an audio frame")
	}

	setNativeInt32(r.outputFrame, frameOffNbSamples, 0)

	if r.offset >= nativeInt32(r.tmpFrame, frameOffNbSamples) {
		r.flushing = false
	}

	return &AudioFrame{ptr: clone, tb: tb}, nil
}

// Close releases the resampler. Close is idempotent.
func (r *AudioResampler) Close() {
	frameFree(&r.tmpFrame)
	frameFree(&r.outputFrame)
	if r.ctx != 0 {
		swrFree(&r.ctx)
	}
	r.sourceLayout.Free()
	r.targetLayout.Free()
}
