//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/ebitengine/purego"
)

// Scaling algorithm flags accepted by sws_getContext.
const (
	swsFastBilinear = int32(1)    // SWS_FAST_BILINEAR
	swsBilinear     = int32(2)    // SWS_BILINEAR
	swsBicubic      = int32(4)    // SWS_BICUBIC
	swsPoint        = int32(0x10) // SWS_POINT
	swsLanczos      = int32(0x200)
)

var (
	swsGetContext func(srcW int32, srcH int32, srcFormat int32,
		dstW int32, dstH int32, dstFormat int32,
		flags int32, srcFilter uintptr, dstFilter uintptr, param uintptr) uintptr
	swsScale func(ctx uintptr, srcSlice uintptr, srcStride uintptr,
		srcSliceY int32, srcSliceH int32, dst uintptr, dstStride uintptr) int32
	swsFreeContext func(ctx uintptr)
)

func loadSwscaleSymbols() {
	purego.RegisterLibFunc(&swsGetContext, swscaleHandle, "sws_getContext")
	purego.RegisterLibFunc(&swsScale, swscaleHandle, "sws_scale")
	purego.RegisterLibFunc(&swsFreeContext, swscaleHandle, "sws_freeContext")
}

// scaleFrame runs sws_scale between two frames. Both frames must already
// have their buffers allocated.
func scaleFrame(ctx uintptr, src, dst uintptr) int32 {
	srcHeight := nativeInt32(src, frameOffHeight)
	return swsScale(ctx,
		src+frameOffData, src+frameOffLinesize,
		0, srcHeight,
		dst+frameOffData, dst+frameOffLinesize)
}
