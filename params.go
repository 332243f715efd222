//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
)

// Extradata buffers require this much zeroed padding after the payload.
const inputBufferPaddingSize = 64

// CodecTag is the four character container tag of a codec, for example
// "avc1".
type CodecTag uint32

// CodecTagFromString packs the first four bytes of a string into a tag.
func CodecTagFromString(s string) CodecTag {
	var b [4]byte
	copy(b[:], s)
	return CodecTag(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func (t CodecTag) String() string {
	b := []byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

// CodecParameters describes an encoded stream. The handle owns a native
// AVCodecParameters struct; typed audio and video views share the same
// native memory.
type CodecParameters struct {
	ptr uintptr
}

func allocCodecParameters() uintptr {
	ptr := avcodecParametersAlloc()
	if ptr == 0 {
		panic("unable to allocate codec parameters")
	}
	return ptr
}

// newCodecParametersFrom deep-copies native codec parameters.
func newCodecParametersFrom(src uintptr) *CodecParameters {
	ptr := allocCodecParameters()
	if avcodecParametersCopy(ptr, src) < 0 {
		avcodecParametersFree(&ptr)
		panic("unable to copy codec parameters")
	}
	return &CodecParameters{ptr: ptr}
}

// IsAudioCodec reports whether the parameters describe an audio stream.
func (p *CodecParameters) IsAudioCodec() bool {
	return p.ptr != 0 && nativeInt32(p.ptr, codecParOffCodecType) == mediaTypeAudio
}

// IsVideoCodec reports whether the parameters describe a video stream.
func (p *CodecParameters) IsVideoCodec() bool {
	return p.ptr != 0 && nativeInt32(p.ptr, codecParOffCodecType) == mediaTypeVideo
}

// CodecName returns the canonical name of the codec, or an empty string
// if the codec is unknown.
func (p *CodecParameters) CodecName() string {
	if p.ptr == 0 {
		return ""
	}
	desc := avcodecDescriptorGet(nativeInt32(p.ptr, codecParOffCodecID))
	if desc == 0 {
		return ""
	}
	return goStringFromPtr(nativePtr(desc, codecDescOffName))
}

// CodecTag returns the container tag of the codec.
func (p *CodecParameters) CodecTag() CodecTag {
	if p.ptr == 0 {
		return 0
	}
	return CodecTag(nativeInt32(p.ptr, codecParOffCodecTag))
}

// BitRate returns the stream bit rate in bits per second, or 0 if
// unknown.
func (p *CodecParameters) BitRate() int64 {
	if p.ptr == 0 {
		return 0
	}
	return nativeInt64(p.ptr, codecParOffBitRate)
}

// Extradata returns the codec specific configuration record, for example
// the AVCC record of an H.264 stream. The slice aliases native memory.
func (p *CodecParameters) Extradata() []byte {
	if p.ptr == 0 {
		return nil
	}
	return nativeBytes(nativePtr(p.ptr, codecParOffExtradata),
		int(nativeInt32(p.ptr, codecParOffExtradataSize)))
}

// Audio returns an audio view of the parameters. The view shares the
// native memory with the generic handle.
func (p *CodecParameters) Audio() (*AudioCodecParameters, bool) {
	if !p.IsAudioCodec() {
		return nil, false
	}
	return &AudioCodecParameters{p: p}, true
}

// Video returns a video view of the parameters. The view shares the
// native memory with the generic handle.
func (p *CodecParameters) Video() (*VideoCodecParameters, bool) {
	if !p.IsVideoCodec() {
		return nil, false
	}
	return &VideoCodecParameters{p: p}, true
}

// Clone returns a deep copy of the parameters.
func (p *CodecParameters) Clone() *CodecParameters {
	return newCodecParametersFrom(p.ptr)
}

// Free releases the parameters. Free is idempotent and also invalidates
// any typed views.
func (p *CodecParameters) Free() {
	if p.ptr != 0 {
		avcodecParametersFree(&p.ptr)
		p.ptr = 0
	}
}

// setExtradata copies an extradata blob into native memory with the
// required zero padding.
func setExtradata(par uintptr, data []byte) {
	old := nativePtr(par, codecParOffExtradata)
	if old != 0 {
		avFree(old)
		setNativePtr(par, codecParOffExtradata, 0)
		setNativeInt32(par, codecParOffExtradataSize, 0)
	}
	if len(data) == 0 {
		return
	}
	buf := avMallocz(uintptr(len(data) + inputBufferPaddingSize))
	if buf == 0 {
		panic("unable to allocate extradata")
	}
	copy(nativeBytes(buf, len(data)), data)
	setNativePtr(par, codecParOffExtradata, buf)
	setNativeInt32(par, codecParOffExtradataSize, int32(len(data)))
}

// AudioCodecParameters is the audio view of CodecParameters.
type AudioCodecParameters struct {
	p *CodecParameters
}

// CodecParameters returns the generic view of the parameters.
func (p *AudioCodecParameters) CodecParameters() *CodecParameters {
	return p.p
}

// CodecName returns the canonical name of the codec.
func (p *AudioCodecParameters) CodecName() string {
	return p.p.CodecName()
}

// BitRate returns the stream bit rate in bits per second.
func (p *AudioCodecParameters) BitRate() int64 {
	return p.p.BitRate()
}

// SampleFormat returns the sample format.
func (p *AudioCodecParameters) SampleFormat() SampleFormat {
	return SampleFormat(nativeInt32(p.p.ptr, codecParOffFormat))
}

// SampleRate returns the sample rate in Hz.
func (p *AudioCodecParameters) SampleRate() int {
	return int(nativeInt32(p.p.ptr, codecParOffSampleRate))
}

// ChannelLayout returns a view of the channel layout. The view is valid
// until the parameters are freed.
func (p *AudioCodecParameters) ChannelLayout() *ChannelLayout {
	return channelLayoutView(p.p.ptr + codecParOffChLayout)
}

// FrameSize returns the number of samples per frame for codecs with a
// fixed frame size, or 0.
func (p *AudioCodecParameters) FrameSize() int {
	return int(nativeInt32(p.p.ptr, codecParOffFrameSize))
}

// Extradata returns the codec specific configuration record.
func (p *AudioCodecParameters) Extradata() []byte {
	return p.p.Extradata()
}

// Free releases the underlying parameters.
func (p *AudioCodecParameters) Free() {
	p.p.Free()
}

// VideoCodecParameters is the video view of CodecParameters.
type VideoCodecParameters struct {
	p *CodecParameters

	// The container level parameters have no frame rate field; the value
	// set by a builder is carried here and used as encoder configuration.
	frameRate TimeBase
}

// CodecParameters returns the generic view of the parameters.
func (p *VideoCodecParameters) CodecParameters() *CodecParameters {
	return p.p
}

// CodecName returns the canonical name of the codec.
func (p *VideoCodecParameters) CodecName() string {
	return p.p.CodecName()
}

// BitRate returns the stream bit rate in bits per second.
func (p *VideoCodecParameters) BitRate() int64 {
	return p.p.BitRate()
}

// PixelFormat returns the pixel format.
func (p *VideoCodecParameters) PixelFormat() PixelFormat {
	return PixelFormat(nativeInt32(p.p.ptr, codecParOffFormat))
}

// Width returns the frame width in pixels.
func (p *VideoCodecParameters) Width() int {
	return int(nativeInt32(p.p.ptr, codecParOffWidth))
}

// Height returns the frame height in pixels.
func (p *VideoCodecParameters) Height() int {
	return int(nativeInt32(p.p.ptr, codecParOffHeight))
}

// FrameRate returns the frame rate set by a builder. Parameters taken
// from a demuxed stream report no frame rate here, see Stream.
func (p *VideoCodecParameters) FrameRate() TimeBase {
	return p.frameRate
}

// Extradata returns the codec specific configuration record.
func (p *VideoCodecParameters) Extradata() []byte {
	return p.p.Extradata()
}

// Free releases the underlying parameters.
func (p *VideoCodecParameters) Free() {
	p.p.Free()
}

// newParametersForCodec allocates codec parameters preset to a codec
// found by name.
func newParametersForCodec(codecName string, mediaType int32) (uintptr, error) {
	if err := loadFFmpeg(); err != nil {
		return 0, wrapNotLoaded(err)
	}
	desc := avcodecDescriptorGetByName(codecName)
	if desc == 0 || nativeInt32(desc, codecDescOffType) != mediaType {
		return 0, fmt.Errorf("%w: %s", ErrCodecNotFound, codecName)
	}
	ptr := allocCodecParameters()
	setNativeInt32(ptr, codecParOffCodecType, mediaType)
	setNativeInt32(ptr, codecParOffCodecID, nativeInt32(desc, codecDescOffID))
	return ptr, nil
}

// AudioCodecParametersBuilder builds audio codec parameters. Build
// consumes the builder.
type AudioCodecParametersBuilder struct {
	ptr uintptr
}

// NewAudioCodecParameters creates a builder preset to the given codec.
func NewAudioCodecParameters(codecName string) (*AudioCodecParametersBuilder, error) {
	ptr, err := newParametersForCodec(codecName, mediaTypeAudio)
	if err != nil {
		return nil, err
	}
	return &AudioCodecParametersBuilder{ptr: ptr}, nil
}

// BitRate sets the stream bit rate in bits per second.
func (b *AudioCodecParametersBuilder) BitRate(bitRate int64) *AudioCodecParametersBuilder {
	setNativeInt64(b.ptr, codecParOffBitRate, bitRate)
	return b
}

// SampleFormat sets the sample format.
func (b *AudioCodecParametersBuilder) SampleFormat(format SampleFormat) *AudioCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffFormat, int32(format))
	return b
}

// SampleRate sets the sample rate in Hz.
func (b *AudioCodecParametersBuilder) SampleRate(rate int) *AudioCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffSampleRate, int32(rate))
	return b
}

// ChannelLayout copies the given channel layout into the parameters.
func (b *AudioCodecParametersBuilder) ChannelLayout(layout *ChannelLayout) *AudioCodecParametersBuilder {
	if layout != nil && layout.ptr != 0 {
		if avChannelLayoutCopy(b.ptr+codecParOffChLayout, layout.ptr) < 0 {
			panic("unable to copy a channel layout")
		}
	}
	return b
}

// CodecTag sets the container tag.
func (b *AudioCodecParametersBuilder) CodecTag(tag CodecTag) *AudioCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffCodecTag, int32(tag))
	return b
}

// Extradata copies the codec specific configuration record.
func (b *AudioCodecParametersBuilder) Extradata(data []byte) *AudioCodecParametersBuilder {
	setExtradata(b.ptr, data)
	return b
}

// Build finalizes the parameters. The builder is consumed.
func (b *AudioCodecParametersBuilder) Build() *AudioCodecParameters {
	params := &CodecParameters{ptr: b.ptr}
	b.ptr = 0
	return &AudioCodecParameters{p: params}
}

// VideoCodecParametersBuilder builds video codec parameters. Build
// consumes the builder.
type VideoCodecParametersBuilder struct {
	ptr       uintptr
	frameRate TimeBase
}

// NewVideoCodecParameters creates a builder preset to the given codec.
func NewVideoCodecParameters(codecName string) (*VideoCodecParametersBuilder, error) {
	ptr, err := newParametersForCodec(codecName, mediaTypeVideo)
	if err != nil {
		return nil, err
	}
	return &VideoCodecParametersBuilder{ptr: ptr}, nil
}

// BitRate sets the stream bit rate in bits per second.
func (b *VideoCodecParametersBuilder) BitRate(bitRate int64) *VideoCodecParametersBuilder {
	setNativeInt64(b.ptr, codecParOffBitRate, bitRate)
	return b
}

// PixelFormat sets the pixel format.
func (b *VideoCodecParametersBuilder) PixelFormat(format PixelFormat) *VideoCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffFormat, int32(format))
	return b
}

// Width sets the frame width in pixels.
func (b *VideoCodecParametersBuilder) Width(width int) *VideoCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffWidth, int32(width))
	return b
}

// Height sets the frame height in pixels.
func (b *VideoCodecParametersBuilder) Height(height int) *VideoCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffHeight, int32(height))
	return b
}

// FrameRate sets the nominal frame rate as a rational number of frames
// per second.
func (b *VideoCodecParametersBuilder) FrameRate(num, den int) *VideoCodecParametersBuilder {
	b.frameRate = TimeBase{Num: int32(num), Den: int32(den)}
	return b
}

// CodecTag sets the container tag.
func (b *VideoCodecParametersBuilder) CodecTag(tag CodecTag) *VideoCodecParametersBuilder {
	setNativeInt32(b.ptr, codecParOffCodecTag, int32(tag))
	return b
}

// Extradata copies the codec specific configuration record.
func (b *VideoCodecParametersBuilder) Extradata(data []byte) *VideoCodecParametersBuilder {
	setExtradata(b.ptr, data)
	return b
}

// Build finalizes the parameters. The builder is consumed.
func (b *VideoCodecParametersBuilder) Build() *VideoCodecParameters {
	params := &CodecParameters{ptr: b.ptr}
	b.ptr = 0
	return &VideoCodecParameters{p: params, frameRate: b.frameRate}
}
