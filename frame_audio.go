//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
	"unsafe"
)

// SampleFormat identifies an audio sample format.
type SampleFormat int32

// SampleFormatFromName looks up a sample format by its FFmpeg name, for
// example "s16" or "fltp".
func SampleFormatFromName(name string) (SampleFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return -1, wrapNotLoaded(err)
	}
	format := avGetSampleFmt(name)
	if format < 0 {
		return -1, fmt.Errorf("%w %q", ErrUnknownSampleFormat, name)
	}
	return SampleFormat(format), nil
}

// Name returns the FFmpeg name of the sample format.
func (f SampleFormat) Name() string {
	return goStringFromPtr(avGetSampleFmtName(int32(f)))
}

// IsPlanar reports whether the format stores each channel in its own
// plane.
func (f SampleFormat) IsPlanar() bool {
	return avSampleFmtIsPlanar(int32(f)) != 0
}

// BytesPerSample returns the size of a single sample in bytes.
func (f SampleFormat) BytesPerSample() int {
	return int(avGetBytesPerSample(int32(f)))
}

func (f SampleFormat) String() string {
	return f.Name()
}

// ChannelLayout describes the channels of an audio stream. The zero value
// is not usable, construct layouts with ChannelLayoutFromName or
// ChannelLayoutFromChannels and release them with Free.
type ChannelLayout struct {
	ptr   uintptr
	owned bool
}

func allocChannelLayout() uintptr {
	ptr := avMallocz(chLayoutSize)
	if ptr == 0 {
		panic("unable to allocate a channel layout")
	}
	return ptr
}

// ChannelLayoutFromName looks up a channel layout by name, for example
// "mono", "stereo" or "5.1".
func ChannelLayoutFromName(name string) (*ChannelLayout, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := allocChannelLayout()
	if avChannelLayoutFromString(ptr, name) < 0 || avChannelLayoutCheck(ptr) == 0 {
		avFree(ptr)
		return nil, fmt.Errorf("%w %q", ErrUnknownChannelLayout, name)
	}
	return &ChannelLayout{ptr: ptr, owned: true}, nil
}

// ChannelLayoutFromChannels returns the default layout for a given number
// of channels.
func ChannelLayoutFromChannels(channels int) (*ChannelLayout, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := allocChannelLayout()
	avChannelLayoutDefault(ptr, int32(channels))
	if avChannelLayoutCheck(ptr) == 0 {
		avFree(ptr)
		return nil, fmt.Errorf("%w: no default layout for %d channels", ErrUnknownChannelLayout, channels)
	}
	return &ChannelLayout{ptr: ptr, owned: true}, nil
}

// channelLayoutView wraps a layout embedded in another native struct. The
// view does not own the native memory.
func channelLayoutView(ptr uintptr) *ChannelLayout {
	return &ChannelLayout{ptr: ptr}
}

// Channels returns the number of channels.
func (l *ChannelLayout) Channels() int {
	if l == nil || l.ptr == 0 {
		return 0
	}
	return int(nativeInt32(l.ptr, chLayoutOffNbChannels))
}

// Describe returns a human readable description of the layout.
func (l *ChannelLayout) Describe() string {
	if l == nil || l.ptr == 0 {
		return ""
	}
	buf := make([]byte, 128)
	if avChannelLayoutDescribe(l.ptr, unsafe.Pointer(&buf[0]), uintptr(len(buf))) < 0 {
		return ""
	}
	return goStringFromPtr(uintptr(unsafe.Pointer(&buf[0])))
}

// Equal reports whether two layouts describe the same channels.
func (l *ChannelLayout) Equal(other *ChannelLayout) bool {
	if l == nil || other == nil || l.ptr == 0 || other.ptr == 0 {
		return false
	}
	return avChannelLayoutCompare(l.ptr, other.ptr) == 0
}

// Clone returns an owned copy of the layout.
func (l *ChannelLayout) Clone() *ChannelLayout {
	ptr := allocChannelLayout()
	if avChannelLayoutCopy(ptr, l.ptr) < 0 {
		avFree(ptr)
		panic("unable to clone a channel layout")
	}
	return &ChannelLayout{ptr: ptr, owned: true}
}

// Free releases an owned layout. Free is idempotent and a no-op on views
// borrowed from frames or codec parameters.
func (l *ChannelLayout) Free() {
	if l == nil || l.ptr == 0 || !l.owned {
		return
	}
	avChannelLayoutUninit(l.ptr)
	avFree(l.ptr)
	l.ptr = 0
}

// AudioFrame is an immutable, reference counted frame of raw audio
// samples.
type AudioFrame struct {
	ptr uintptr
	tb  TimeBase
}

// AudioFrameMut is an exclusively owned, writable audio frame.
type AudioFrameMut struct {
	ptr uintptr
	tb  TimeBase
}

// NewAudioFrameSilence allocates a writable audio frame filled with
// silence. The frame time base defaults to microseconds.
func NewAudioFrameSilence(layout *ChannelLayout, format SampleFormat, sampleRate, samples int) (*AudioFrameMut, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	if layout == nil || layout.ptr == 0 {
		return nil, newError("invalid channel layout")
	}

	ptr := avFrameAlloc()
	if ptr == 0 {
		panic("unable to allocate an audio frame")
	}
	setNativeInt32(ptr, frameOffFormat, int32(format))
	setNativeInt32(ptr, frameOffSampleRate, int32(sampleRate))
	setNativeInt32(ptr, frameOffNbSamples, int32(samples))
	if avChannelLayoutCopy(ptr+frameOffChannelLayout, layout.ptr) < 0 {
		frameFree(&ptr)
		panic("unable to allocate an audio frame")
	}
	if avFrameGetBuffer(ptr, 0) < 0 {
		frameFree(&ptr)
		panic("unable to allocate an audio frame")
	}
	avSamplesSetSilence(nativePtr(ptr, frameOffExtendedData), 0, int32(samples),
		int32(layout.Channels()), int32(format))
	setNativeInt64(ptr, frameOffPts, NoPtsValue)
	setNativeInt64(ptr, frameOffBestEffortTs, NoPtsValue)

	return &AudioFrameMut{ptr: ptr, tb: TimeBaseMicroseconds}, nil
}

// SampleFormat returns the sample format of the frame.
func (f *AudioFrame) SampleFormat() SampleFormat {
	return SampleFormat(nativeInt32(f.ptr, frameOffFormat))
}

// SampleRate returns the sample rate in Hz.
func (f *AudioFrame) SampleRate() int {
	return int(nativeInt32(f.ptr, frameOffSampleRate))
}

// Samples returns the number of samples per channel.
func (f *AudioFrame) Samples() int {
	return int(nativeInt32(f.ptr, frameOffNbSamples))
}

// Channels returns the number of channels.
func (f *AudioFrame) Channels() int {
	return int(nativeInt32(f.ptr, frameOffChannelLayout+chLayoutOffNbChannels))
}

// ChannelLayout returns a view of the frame channel layout. The view is
// valid until the frame is freed.
func (f *AudioFrame) ChannelLayout() *ChannelLayout {
	return channelLayoutView(f.ptr + frameOffChannelLayout)
}

// TimeBase returns the time base of the frame timestamps.
func (f *AudioFrame) TimeBase() TimeBase {
	return f.tb
}

// WithTimeBase rescales the frame timestamps into the given time base and
// returns the frame.
func (f *AudioFrame) WithTimeBase(tb TimeBase) *AudioFrame {
	frameWithTimeBase(f.ptr, f.tb, tb)
	f.tb = tb
	return f
}

// Pts returns the presentation timestamp.
func (f *AudioFrame) Pts() Timestamp {
	return frameTimestamp(f.ptr, frameOffPts, f.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the frame
// time base.
func (f *AudioFrame) WithPts(ts Timestamp) *AudioFrame {
	setNativeInt64(f.ptr, frameOffPts, ts.WithTimeBase(f.tb).Ticks())
	return f
}

// Planes returns the sample planes. The data must not be modified through
// an immutable frame.
func (f *AudioFrame) Planes() []Plane {
	return audioPlanes(f.ptr)
}

// Clone returns a new reference to the same samples.
func (f *AudioFrame) Clone() *AudioFrame {
	ptr := avFrameClone(f.ptr)
	if ptr == 0 {
		panic("unable to clone a frame")
	}
	return &AudioFrame{ptr: ptr, tb: f.tb}
}

// TryIntoMut converts the frame into a writable one without copying. The
// conversion succeeds only if this handle is the sole owner of the
// samples. On success the frame is consumed; on failure it stays valid
// and (nil, false) is returned.
func (f *AudioFrame) TryIntoMut() (*AudioFrameMut, bool) {
	if f.ptr == 0 || avFrameIsWritable(f.ptr) == 0 {
		return nil, false
	}
	m := &AudioFrameMut{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return m, true
}

// IntoMut converts the frame into a writable one, copying the samples if
// they are shared. The frame is consumed.
func (f *AudioFrame) IntoMut() *AudioFrameMut {
	if m, ok := f.TryIntoMut(); ok {
		return m
	}
	if avFrameMakeWritable(f.ptr) < 0 {
		panic("unable to make the frame mutable")
	}
	m := &AudioFrameMut{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return m
}

// Free releases the frame reference. Free is idempotent.
func (f *AudioFrame) Free() {
	frameFree(&f.ptr)
}

// SampleFormat returns the sample format of the frame.
func (f *AudioFrameMut) SampleFormat() SampleFormat {
	return SampleFormat(nativeInt32(f.ptr, frameOffFormat))
}

// SampleRate returns the sample rate in Hz.
func (f *AudioFrameMut) SampleRate() int {
	return int(nativeInt32(f.ptr, frameOffSampleRate))
}

// Samples returns the number of samples per channel.
func (f *AudioFrameMut) Samples() int {
	return int(nativeInt32(f.ptr, frameOffNbSamples))
}

// Channels returns the number of channels.
func (f *AudioFrameMut) Channels() int {
	return int(nativeInt32(f.ptr, frameOffChannelLayout+chLayoutOffNbChannels))
}

// ChannelLayout returns a view of the frame channel layout. The view is
// valid until the frame is freed.
func (f *AudioFrameMut) ChannelLayout() *ChannelLayout {
	return channelLayoutView(f.ptr + frameOffChannelLayout)
}

// TimeBase returns the time base of the frame timestamps.
func (f *AudioFrameMut) TimeBase() TimeBase {
	return f.tb
}

// WithTimeBase rescales the frame timestamps into the given time base and
// returns the frame.
func (f *AudioFrameMut) WithTimeBase(tb TimeBase) *AudioFrameMut {
	frameWithTimeBase(f.ptr, f.tb, tb)
	f.tb = tb
	return f
}

// Pts returns the presentation timestamp.
func (f *AudioFrameMut) Pts() Timestamp {
	return frameTimestamp(f.ptr, frameOffPts, f.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the frame
// time base.
func (f *AudioFrameMut) WithPts(ts Timestamp) *AudioFrameMut {
	setNativeInt64(f.ptr, frameOffPts, ts.WithTimeBase(f.tb).Ticks())
	return f
}

// Planes returns the writable sample planes.
func (f *AudioFrameMut) Planes() []Plane {
	return audioPlanes(f.ptr)
}

// Freeze converts the frame into an immutable one without copying. The
// mutable handle is consumed.
func (f *AudioFrameMut) Freeze() *AudioFrame {
	frozen := &AudioFrame{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return frozen
}

// Free releases the frame. Free is idempotent.
func (f *AudioFrameMut) Free() {
	frameFree(&f.ptr)
}
