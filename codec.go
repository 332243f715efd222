//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
)

// Processing units (decoders, encoders, resamplers, filters, bitstream
// filters) share one pump protocol:
//
//  1. Push input into the unit. A CodecError with IsAgain() set means the
//     unit is holding output; Take everything first, then retry the same
//     Push.
//  2. Take output until Take returns nil.
//  3. When no more input exists, Flush (same Again semantics) and Take the
//     remaining output until nil.
//
// Push and Take never block. Output order follows input order. Input is
// rescaled into the unit's input time base on Push and output carries the
// unit's output time base.

// codecOption is a stringly codec option applied when the unit opens.
type codecOption struct {
	name  string
	value string
}

func dictFromOptions(options []codecOption) (*nativeDictionary, error) {
	var dict nativeDictionary
	for _, opt := range options {
		if err := dict.set(opt.name, opt.value); err != nil {
			dict.free()
			return nil, fmt.Errorf("unable to set option %q: %w", opt.name, err)
		}
	}
	return &dict, nil
}

const (
	decoderPushAgain  = "all frames must be consumed before pushing a new packet"
	decoderFlushAgain = "all frames must be consumed before flushing"
	encoderPushAgain  = "all packets must be consumed before pushing a new frame"
	encoderFlushAgain = "all packets must be consumed before flushing"
)

// pumpPushStatus maps the return value of a native send call to the pump
// protocol. Pushing into an already flushed unit is not an error.
func pumpPushStatus(ret int32, againMsg string) error {
	switch {
	case ret == 0 || ret == averrorEOF:
		return nil
	case isAgainCode(ret):
		return againError(againMsg)
	default:
		return codecError(errorFromRaw(ret))
	}
}

// decoderCore drives a native decoder context. The typed audio and video
// decoders wrap it with their frame types.
type decoderCore struct {
	ctx   uintptr
	frame uintptr
	tb    TimeBase
}

// decoderConfig is the state collected by the decoder builders.
type decoderConfig struct {
	codecName string
	params    *CodecParameters
	tb        TimeBase
	extradata []byte
	options   []codecOption
	lowDelay  bool
	mediaType int32
}

func openDecoder(cfg decoderConfig) (*decoderCore, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	var codec uintptr
	if cfg.codecName != "" {
		codec = avcodecFindDecoderByName(cfg.codecName)
		if codec == 0 {
			return nil, fmt.Errorf("%w: %s", ErrCodecNotFound, cfg.codecName)
		}
	} else if cfg.params != nil && cfg.params.ptr != 0 {
		codec = avcodecFindDecoder(nativeInt32(cfg.params.ptr, codecParOffCodecID))
		if codec == 0 {
			return nil, fmt.Errorf("%w for %q", ErrCodecNotFound, cfg.params.CodecName())
		}
	} else {
		return nil, newError("decoder codec not set")
	}

	ctx := avcodecAllocContext3(codec)
	if ctx == 0 {
		panic("unable to allocate a decoder")
	}

	if cfg.params != nil && cfg.params.ptr != 0 {
		if ret := avcodecParametersToContext(ctx, cfg.params.ptr); ret < 0 {
			avcodecFreeContext(&ctx)
			return nil, errorFromRaw(ret)
		}
	}
	if len(cfg.extradata) > 0 {
		setContextExtradata(ctx, cfg.extradata)
	}
	if cfg.lowDelay {
		setNativeInt32(ctx, codecCtxOffFlags,
			nativeInt32(ctx, codecCtxOffFlags)|codecFlagLowDelay)
	}

	dict, err := dictFromOptions(cfg.options)
	if err != nil {
		avcodecFreeContext(&ctx)
		return nil, err
	}
	ret := avcodecOpen2(ctx, codec, &dict.ptr)
	dict.free()
	if ret < 0 {
		avcodecFreeContext(&ctx)
		return nil, newError("unable to build the decoder")
	}

	frame := avFrameAlloc()
	if frame == 0 {
		avcodecFreeContext(&ctx)
		panic("unable to allocate a frame")
	}

	return &decoderCore{ctx: ctx, frame: frame, tb: cfg.tb}, nil
}

// push sends a packet into the decoder. A nil packet pointer starts the
// flush.
func (d *decoderCore) push(packet uintptr, againMsg string) error {
	return pumpPushStatus(avcodecSendPacket(d.ctx, packet), againMsg)
}

// take receives the next decoded frame, returning 0 when the decoder
// needs more input or is drained. The returned frame is an independent
// reference.
func (d *decoderCore) take() (uintptr, error) {
	ret := avcodecReceiveFrame(d.ctx, d.frame)
	if ret == averrorEOF || isAgainCode(ret) {
		return 0, nil
	}
	if ret < 0 {
		return 0, errorFromRaw(ret)
	}
	clone := avFrameClone(d.frame)
	if clone == 0 {
		panic("no frame received")
	}
	return clone, nil
}

// codecParameters extracts the current codec parameters of the context.
func (d *decoderCore) codecParameters() *CodecParameters {
	params := allocCodecParameters()
	if avcodecParametersFromContext(params, d.ctx) < 0 {
		avcodecParametersFree(&params)
		panic("unable to allocate codec parameters")
	}
	return &CodecParameters{ptr: params}
}

func (d *decoderCore) close() {
	frameFree(&d.frame)
	if d.ctx != 0 {
		avcodecFreeContext(&d.ctx)
		d.ctx = 0
	}
}

// encoderCore drives a native encoder context.
type encoderCore struct {
	ctx    uintptr
	packet uintptr
	tb     TimeBase
}

// openEncoder opens an encoder context. The typed builders validate
// their required fields before calling it and apply their fields through
// the configure callback.
func openEncoder(codecName string, fromParams *CodecParameters, options []codecOption,
	configure func(ctx uintptr) error) (*encoderCore, error) {

	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	var codec uintptr
	if codecName != "" {
		codec = avcodecFindEncoderByName(codecName)
		if codec == 0 {
			return nil, fmt.Errorf("%w: %s", ErrCodecNotFound, codecName)
		}
	} else if fromParams != nil && fromParams.ptr != 0 {
		codec = avcodecFindEncoder(nativeInt32(fromParams.ptr, codecParOffCodecID))
		if codec == 0 {
			return nil, fmt.Errorf("%w for %q", ErrCodecNotFound, fromParams.CodecName())
		}
	} else {
		return nil, newError("encoder codec not set")
	}

	ctx := avcodecAllocContext3(codec)
	if ctx == 0 {
		panic("unable to allocate an encoder")
	}

	if fromParams != nil && fromParams.ptr != 0 {
		if ret := avcodecParametersToContext(ctx, fromParams.ptr); ret < 0 {
			avcodecFreeContext(&ctx)
			return nil, errorFromRaw(ret)
		}
	}
	if configure != nil {
		if err := configure(ctx); err != nil {
			avcodecFreeContext(&ctx)
			return nil, err
		}
	}

	dict, err := dictFromOptions(options)
	if err != nil {
		avcodecFreeContext(&ctx)
		return nil, err
	}
	ret := avcodecOpen2(ctx, codec, &dict.ptr)
	dict.free()
	if ret < 0 {
		avcodecFreeContext(&ctx)
		return nil, newError("unable to build the encoder")
	}

	packet := avPacketAlloc()
	if packet == 0 {
		avcodecFreeContext(&ctx)
		panic("unable to allocate a packet")
	}

	return &encoderCore{ctx: ctx, packet: packet}, nil
}

// push sends a frame into the encoder. A nil frame pointer starts the
// flush.
func (e *encoderCore) push(frame uintptr, againMsg string) error {
	return pumpPushStatus(avcodecSendFrame(e.ctx, frame), againMsg)
}

// take receives the next encoded packet, returning 0 when the encoder
// needs more input or is drained.
func (e *encoderCore) take() (uintptr, error) {
	ret := avcodecReceivePacket(e.ctx, e.packet)
	if ret == averrorEOF || isAgainCode(ret) {
		return 0, nil
	}
	if ret < 0 {
		return 0, errorFromRaw(ret)
	}
	clone := avPacketClone(e.packet)
	if clone == 0 {
		panic("no packet received")
	}
	return clone, nil
}

func (e *encoderCore) codecParameters() *CodecParameters {
	params := allocCodecParameters()
	if avcodecParametersFromContext(params, e.ctx) < 0 {
		avcodecParametersFree(&params)
		panic("unable to allocate codec parameters")
	}
	return &CodecParameters{ptr: params}
}

func (e *encoderCore) close() {
	if e.packet != 0 {
		avPacketFree(&e.packet)
		e.packet = 0
	}
	if e.ctx != 0 {
		avcodecFreeContext(&e.ctx)
		e.ctx = 0
	}
}

// setContextExtradata copies an extradata blob onto a codec context with
// the required zero padding.
func setContextExtradata(ctx uintptr, data []byte) {
	buf := avMallocz(uintptr(len(data) + inputBufferPaddingSize))
	if buf == 0 {
		panic("unable to allocate extradata")
	}
	copy(nativeBytes(buf, len(data)), data)
	setNativePtr(ctx, codecCtxOffExtradata, buf)
	setNativeInt32(ctx, codecCtxOffExtradataSize, int32(len(data)))
}
