//go:build (darwin || linux) && (amd64 || arm64)

package av

// Stream describes one elementary stream of a container. Demuxers hand
// out streams after FindStreamInfo, muxer builders create them with
// AddStream. The handle borrows the native stream owned by the format
// context and stays valid until the demuxer or muxer is closed.
type Stream struct {
	ptr uintptr
	tb  TimeBase

	// Container duration in microseconds, used as a fallback when the
	// stream itself does not report one. NoPtsValue when unknown.
	containerDuration int64
}

func newStream(ptr uintptr, containerDuration int64) *Stream {
	return &Stream{
		ptr:               ptr,
		tb:                nativeRational(ptr, streamOffTimeBase),
		containerDuration: containerDuration,
	}
}

// Index returns the position of the stream within its container.
func (s *Stream) Index() int {
	return int(nativeInt32(s.ptr, streamOffIndex))
}

// ID returns the format specific stream identifier.
func (s *Stream) ID() int {
	return int(nativeInt32(s.ptr, streamOffID))
}

// SetID sets the format specific stream identifier.
func (s *Stream) SetID(id int) {
	setNativeInt32(s.ptr, streamOffID, int32(id))
}

// TimeBase returns the stream time base.
func (s *Stream) TimeBase() TimeBase {
	return s.tb
}

// SetTimeBase provides a hint to the muxer about the desired time base.
// The muxer is free to pick a different one when it writes the header.
func (s *Stream) SetTimeBase(tb TimeBase) {
	s.tb = tb
	setNativeRational(s.ptr, streamOffTimeBase, tb)
}

// StartTime returns the presentation timestamp of the first frame of the
// stream.
func (s *Stream) StartTime() Timestamp {
	return NewTimestamp(nativeInt64(s.ptr, streamOffStartTime), s.tb)
}

// Duration returns the duration of the stream. When the stream itself
// does not report one, the container duration is used instead.
func (s *Stream) Duration() Timestamp {
	duration := nativeInt64(s.ptr, streamOffDuration)
	if duration == NoPtsValue && s.containerDuration != NoPtsValue {
		return NewTimestamp(s.containerDuration, TimeBaseMicroseconds)
	}
	return NewTimestamp(duration, s.tb)
}

// Frames returns the number of frames in the stream, if known. Depending
// on the format the count may cover only keyframes.
func (s *Stream) Frames() (int64, bool) {
	count := nativeInt64(s.ptr, streamOffNbFrames)
	if count <= 0 {
		return 0, false
	}
	return count, true
}

// AvgFrameRate returns the average frame rate of the stream, if known.
func (s *Stream) AvgFrameRate() (TimeBase, bool) {
	rate := nativeRational(s.ptr, streamOffAvgFrameRate)
	if rate.Num == 0 || rate.Den == 0 {
		return TimeBase{}, false
	}
	return rate, true
}

// RFrameRate returns the real base frame rate of the stream.
func (s *Stream) RFrameRate() TimeBase {
	return nativeRational(s.ptr, streamOffRFrameRate)
}

// CodecParameters returns a copy of the stream codec parameters. The
// caller owns the copy.
func (s *Stream) CodecParameters() *CodecParameters {
	return newCodecParametersFrom(nativePtr(s.ptr, streamOffCodecpar))
}

// Metadata returns a copy of the stream metadata.
func (s *Stream) Metadata() map[string]string {
	return dictionaryToMap(nativePtr(s.ptr, streamOffMetadata))
}

// SetMetadata sets a stream metadata entry.
func (s *Stream) SetMetadata(key, value string) {
	if dictSetAt(s.ptr, streamOffMetadata, key, value) < 0 {
		panic("unable to allocate metadata")
	}
}
