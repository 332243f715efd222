//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
	"unsafe"
)

// PixelFormat identifies a video pixel format.
type PixelFormat int32

// PixelFormatFromName looks up a pixel format by its FFmpeg name, for
// example "yuv420p" or "rgb24".
func PixelFormatFromName(name string) (PixelFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return -1, wrapNotLoaded(err)
	}
	format := avGetPixFmt(name)
	if format < 0 {
		return -1, fmt.Errorf("%w %q", ErrUnknownPixelFormat, name)
	}
	return PixelFormat(format), nil
}

// Name returns the FFmpeg name of the pixel format.
func (f PixelFormat) Name() string {
	return goStringFromPtr(avGetPixFmtName(int32(f)))
}

// Planes returns the number of planes of the pixel format.
func (f PixelFormat) Planes() int {
	count := avPixFmtCountPlanes(int32(f))
	if count < 0 {
		return 0
	}
	return int(count)
}

func (f PixelFormat) String() string {
	return f.Name()
}

// VideoFrame is an immutable, reference counted raw video frame.
type VideoFrame struct {
	ptr uintptr
	tb  TimeBase
}

// VideoFrameMut is an exclusively owned, writable video frame.
type VideoFrameMut struct {
	ptr uintptr
	tb  TimeBase
}

// NewVideoFrameBlack allocates a writable video frame painted black. The
// frame time base defaults to microseconds.
func NewVideoFrameBlack(format PixelFormat, width, height int) (*VideoFrameMut, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	ptr := avFrameAlloc()
	if ptr == 0 {
		panic("unable to allocate a video frame")
	}
	setNativeInt32(ptr, frameOffFormat, int32(format))
	setNativeInt32(ptr, frameOffWidth, int32(width))
	setNativeInt32(ptr, frameOffHeight, int32(height))
	if avFrameGetBuffer(ptr, 0) < 0 {
		frameFree(&ptr)
		panic("unable to allocate a video frame")
	}

	// av_image_fill_black expects ptrdiff_t strides while the frame keeps
	// int strides.
	var strides [4]int64
	for i := 0; i < 4; i++ {
		strides[i] = int64(nativeInt32(ptr, frameOffLinesize+uintptr(i)*4))
	}
	colorRangeMpeg := int32(1)
	if avImageFillBlack(ptr+frameOffData, unsafe.Pointer(&strides[0]), int32(format),
		colorRangeMpeg, int32(width), int32(height)) < 0 {
		frameFree(&ptr)
		panic("unable to allocate a video frame")
	}
	setNativeInt64(ptr, frameOffPts, NoPtsValue)
	setNativeInt64(ptr, frameOffBestEffortTs, NoPtsValue)

	return &VideoFrameMut{ptr: ptr, tb: TimeBaseMicroseconds}, nil
}

// PixelFormat returns the pixel format of the frame.
func (f *VideoFrame) PixelFormat() PixelFormat {
	return PixelFormat(nativeInt32(f.ptr, frameOffFormat))
}

// Width returns the frame width in pixels.
func (f *VideoFrame) Width() int {
	return int(nativeInt32(f.ptr, frameOffWidth))
}

// Height returns the frame height in pixels.
func (f *VideoFrame) Height() int {
	return int(nativeInt32(f.ptr, frameOffHeight))
}

// TimeBase returns the time base of the frame timestamps.
func (f *VideoFrame) TimeBase() TimeBase {
	return f.tb
}

// WithTimeBase rescales the frame timestamps into the given time base and
// returns the frame.
func (f *VideoFrame) WithTimeBase(tb TimeBase) *VideoFrame {
	frameWithTimeBase(f.ptr, f.tb, tb)
	f.tb = tb
	return f
}

// Pts returns the presentation timestamp.
func (f *VideoFrame) Pts() Timestamp {
	return frameTimestamp(f.ptr, frameOffPts, f.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the frame
// time base.
func (f *VideoFrame) WithPts(ts Timestamp) *VideoFrame {
	setNativeInt64(f.ptr, frameOffPts, ts.WithTimeBase(f.tb).Ticks())
	return f
}

// BestEffortTimestamp returns the frame timestamp estimated by the
// decoder, falling back to pts for frames that did not pass through a
// decoder.
func (f *VideoFrame) BestEffortTimestamp() Timestamp {
	ts := frameTimestamp(f.ptr, frameOffBestEffortTs, f.tb)
	if ts.IsNull() {
		return f.Pts()
	}
	return ts
}

// Planes returns the picture planes. The data must not be modified
// through an immutable frame.
func (f *VideoFrame) Planes() []Plane {
	return videoPlanes(f.ptr)
}

// Clone returns a new reference to the same picture.
func (f *VideoFrame) Clone() *VideoFrame {
	ptr := avFrameClone(f.ptr)
	if ptr == 0 {
		panic("unable to clone a frame")
	}
	return &VideoFrame{ptr: ptr, tb: f.tb}
}

// TryIntoMut converts the frame into a writable one without copying. The
// conversion succeeds only if this handle is the sole owner of the
// picture. On success the frame is consumed; on failure it stays valid
// and (nil, false) is returned.
func (f *VideoFrame) TryIntoMut() (*VideoFrameMut, bool) {
	if f.ptr == 0 || avFrameIsWritable(f.ptr) == 0 {
		return nil, false
	}
	m := &VideoFrameMut{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return m, true
}

// IntoMut converts the frame into a writable one, copying the picture if
// it is shared. The frame is consumed.
func (f *VideoFrame) IntoMut() *VideoFrameMut {
	if m, ok := f.TryIntoMut(); ok {
		return m
	}
	if avFrameMakeWritable(f.ptr) < 0 {
		panic("unable to make the frame mutable")
	}
	m := &VideoFrameMut{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return m
}

// Free releases the frame reference. Free is idempotent.
func (f *VideoFrame) Free() {
	frameFree(&f.ptr)
}

// rawPtr hands the native frame to the processing units.
func (f *VideoFrame) rawPtr() uintptr {
	return f.ptr
}

// PixelFormat returns the pixel format of the frame.
func (f *VideoFrameMut) PixelFormat() PixelFormat {
	return PixelFormat(nativeInt32(f.ptr, frameOffFormat))
}

// Width returns the frame width in pixels.
func (f *VideoFrameMut) Width() int {
	return int(nativeInt32(f.ptr, frameOffWidth))
}

// Height returns the frame height in pixels.
func (f *VideoFrameMut) Height() int {
	return int(nativeInt32(f.ptr, frameOffHeight))
}

// TimeBase returns the time base of the frame timestamps.
func (f *VideoFrameMut) TimeBase() TimeBase {
	return f.tb
}

// WithTimeBase rescales the frame timestamps into the given time base and
// returns the frame.
func (f *VideoFrameMut) WithTimeBase(tb TimeBase) *VideoFrameMut {
	frameWithTimeBase(f.ptr, f.tb, tb)
	f.tb = tb
	return f
}

// Pts returns the presentation timestamp.
func (f *VideoFrameMut) Pts() Timestamp {
	return frameTimestamp(f.ptr, frameOffPts, f.tb)
}

// WithPts sets the presentation timestamp, rescaling it into the frame
// time base.
func (f *VideoFrameMut) WithPts(ts Timestamp) *VideoFrameMut {
	setNativeInt64(f.ptr, frameOffPts, ts.WithTimeBase(f.tb).Ticks())
	return f
}

// Planes returns the writable picture planes.
func (f *VideoFrameMut) Planes() []Plane {
	return videoPlanes(f.ptr)
}

// Freeze converts the frame into an immutable one without copying. The
// mutable handle is consumed.
func (f *VideoFrameMut) Freeze() *VideoFrame {
	frozen := &VideoFrame{ptr: f.ptr, tb: f.tb}
	f.ptr = 0
	return frozen
}

// Free releases the frame. Free is idempotent.
func (f *VideoFrameMut) Free() {
	frameFree(&f.ptr)
}
