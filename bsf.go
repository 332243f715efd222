//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
)

// BitstreamFilterBuilder collects bitstream filter configuration.
type BitstreamFilterBuilder struct {
	name string

	inputParams  *CodecParameters
	outputParams *CodecParameters

	inputTb  TimeBase
	outputTb TimeBase
}

// NewBitstreamFilter creates a builder for a given filter name, for
// example "aac_adtstoasc" or "h264_mp4toannexb".
func NewBitstreamFilter(name string) *BitstreamFilterBuilder {
	return &BitstreamFilterBuilder{
		name:     name,
		inputTb:  TimeBaseMicroseconds,
		outputTb: TimeBaseMicroseconds,
	}
}

// InputTimeBase sets the time base packets are rescaled into before
// filtering. The default is microseconds.
func (b *BitstreamFilterBuilder) InputTimeBase(tb TimeBase) *BitstreamFilterBuilder {
	b.inputTb = tb
	return b
}

// OutputTimeBase sets the time base the taken packets are tagged with.
// The default is microseconds.
func (b *BitstreamFilterBuilder) OutputTimeBase(tb TimeBase) *BitstreamFilterBuilder {
	b.outputTb = tb
	return b
}

// InputCodecParameters sets the parameters of the filtered stream. The
// parameters are copied.
func (b *BitstreamFilterBuilder) InputCodecParameters(params *CodecParameters) *BitstreamFilterBuilder {
	if b.inputParams != nil {
		b.inputParams.Free()
	}
	b.inputParams = params.Clone()
	return b
}

// OutputCodecParameters overrides the parameters the filter derives for
// its output stream. The parameters are copied.
func (b *BitstreamFilterBuilder) OutputCodecParameters(params *CodecParameters) *BitstreamFilterBuilder {
	if b.outputParams != nil {
		b.outputParams.Free()
	}
	b.outputParams = params.Clone()
	return b
}

// Build opens the filter. The builder is consumed.
func (b *BitstreamFilterBuilder) Build() (*BitstreamFilter, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	filter := avBsfGetByName(b.name)
	if filter == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, b.name)
	}

	var ctx uintptr
	if ret := avBsfAlloc(filter, &ctx); ret < 0 {
		return nil, errorFromRaw(ret)
	}

	if b.inputParams != nil {
		if avcodecParametersCopy(nativePtr(ctx, bsfCtxOffParIn), b.inputParams.ptr) < 0 {
			avBsfFree(&ctx)
			panic("unable to set input codec parameters")
		}
		b.inputParams.Free()
	}
	if b.outputParams != nil {
		if avcodecParametersCopy(nativePtr(ctx, bsfCtxOffParOut), b.outputParams.ptr) < 0 {
			avBsfFree(&ctx)
			panic("unable to set output codec parameters")
		}
		b.outputParams.Free()
	}

	setNativeRational(ctx, bsfCtxOffTimeBaseIn, b.inputTb)
	setNativeRational(ctx, bsfCtxOffTimeBaseOut, b.outputTb)

	if ret := avBsfInit(ctx); ret < 0 {
		avBsfFree(&ctx)
		return nil, errorFromRaw(ret)
	}

	return &BitstreamFilter{
		ctx:      ctx,
		inputTb:  b.inputTb,
		outputTb: b.outputTb,
	}, nil
}

// BitstreamFilter rewrites packet payloads without transcoding, for
// example converting H.264 between Annex B and AVCC framing. See the
// pump protocol description in this package for the Push, Flush and
// Take contract.
type BitstreamFilter struct {
	ctx      uintptr
	inputTb  TimeBase
	outputTb TimeBase
}

// Push sends a packet into the filter, rescaling it into the input time
// base. The packet is freed on success, kept for a retry when the
// returned error reports Again.
func (f *BitstreamFilter) Push(packet *Packet) error {
	if packet == nil || packet.ptr == 0 {
		return newError("nil packet")
	}
	packet.WithTimeBase(f.inputTb)
	if err := pumpPushStatus(avBsfSendPacket(f.ctx, packet.ptr),
		"all packets must be consumed before pushing a new packet"); err != nil {
		return err
	}
	packet.Free()
	return nil
}

// Flush signals the end of the stream. Packets may still be ready after
// the flush.
func (f *BitstreamFilter) Flush() error {
	return pumpPushStatus(avBsfSendPacket(f.ctx, 0),
		"all packets must be consumed before flushing")
}

// Take returns the next filtered packet, or nil when the filter needs
// more input or has been fully drained.
func (f *BitstreamFilter) Take() (*Packet, error) {
	packet := avPacketAlloc()
	if packet == 0 {
		panic("unable to allocate a packet")
	}
	ret := avBsfReceivePacket(f.ctx, packet)
	if ret == averrorEOF || isAgainCode(ret) {
		avPacketFree(&packet)
		return nil, nil
	}
	if ret < 0 {
		avPacketFree(&packet)
		return nil, errorFromRaw(ret)
	}
	return &Packet{ptr: packet, tb: f.outputTb}, nil
}

// Close releases the filter. Close is idempotent.
func (f *BitstreamFilter) Close() {
	if f.ctx != 0 {
		avBsfFree(&f.ctx)
	}
}
