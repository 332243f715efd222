//go:build (darwin || linux) && (amd64 || arm64)

package av

// Plane is one plane of a raw frame. Data aliases the native frame buffer
// and stays valid until the frame is freed. Mutate it only through a
// mutable frame.
type Plane struct {
	// Data holds LineCount lines of LineSize bytes each.
	Data      []byte
	LineSize  int
	LineCount int
}

// Lines splits the plane into its individual lines.
func (p *Plane) Lines() [][]byte {
	if p.LineSize <= 0 || p.LineCount <= 0 {
		return nil
	}
	lines := make([][]byte, 0, p.LineCount)
	for i := 0; i < p.LineCount; i++ {
		lines = append(lines, p.Data[i*p.LineSize:(i+1)*p.LineSize])
	}
	return lines
}

// frameWithTimeBase rescales the stamped frame fields into a new time
// base. Both timestamps change together.
func frameWithTimeBase(ptr uintptr, from, to TimeBase) {
	if ptr == 0 || from == to {
		return
	}
	setNativeInt64(ptr, frameOffPts, from.Rescale(nativeInt64(ptr, frameOffPts), to))
	setNativeInt64(ptr, frameOffBestEffortTs, from.Rescale(nativeInt64(ptr, frameOffBestEffortTs), to))
}

func frameTimestamp(ptr uintptr, off uintptr, tb TimeBase) Timestamp {
	if ptr == 0 {
		return NullTimestamp(tb)
	}
	return NewTimestamp(nativeInt64(ptr, off), tb)
}

// videoPlanes collects the planes of a video frame. The line count of the
// chroma planes follows the subsampling of the pixel format.
func videoPlanes(ptr uintptr) []Plane {
	if ptr == 0 {
		return nil
	}
	format := nativeInt32(ptr, frameOffFormat)
	height := int(nativeInt32(ptr, frameOffHeight))
	count := int(avPixFmtCountPlanes(format))
	if count <= 0 {
		return nil
	}

	var log2ChromaH int
	if desc := avPixFmtDescGet(format); desc != 0 {
		log2ChromaH = int(nativeByte(desc, pixDescOffLog2ChromaH))
	}

	planes := make([]Plane, 0, count)
	for i := 0; i < count; i++ {
		lineSize := int(nativeInt32(ptr, frameOffLinesize+uintptr(i)*4))
		lineCount := height
		// Chroma planes are vertically subsampled, the alpha plane is not.
		if i == 1 || i == 2 {
			lineCount = ceilRshift(height, log2ChromaH)
		}
		data := nativePtr(ptr, frameOffData+uintptr(i)*8)
		planes = append(planes, Plane{
			Data:      nativeBytes(data, lineSize*lineCount),
			LineSize:  lineSize,
			LineCount: lineCount,
		})
	}
	return planes
}

// audioPlanes collects the planes of an audio frame. Planar formats have
// one plane per channel, packed formats a single interleaved plane.
func audioPlanes(ptr uintptr) []Plane {
	if ptr == 0 {
		return nil
	}
	format := nativeInt32(ptr, frameOffFormat)
	count := 1
	if avSampleFmtIsPlanar(format) != 0 {
		count = int(nativeInt32(ptr, frameOffChannelLayout+chLayoutOffNbChannels))
	}
	lineSize := int(nativeInt32(ptr, frameOffLinesize))

	// Frames with more than 8 channels keep the plane pointers only in
	// extended_data, so always read the pointers from there.
	extended := nativePtr(ptr, frameOffExtendedData)
	planes := make([]Plane, 0, count)
	for i := 0; i < count; i++ {
		data := nativePtr(extended, uintptr(i)*8)
		planes = append(planes, Plane{
			Data:      nativeBytes(data, lineSize),
			LineSize:  lineSize,
			LineCount: 1,
		})
	}
	return planes
}

func ceilRshift(v, shift int) int {
	return -((-v) >> shift)
}

func frameFree(ptr *uintptr) {
	if *ptr != 0 {
		avFrameFree(ptr)
		*ptr = 0
	}
}
