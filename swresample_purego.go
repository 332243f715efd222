//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/ebitengine/purego"
)

var (
	swrAlloc         func() uintptr
	swrInit          func(ctx uintptr) int32
	swrFree          func(ctx *uintptr)
	swrConvert       func(ctx uintptr, out uintptr, outCount int32, in uintptr, inCount int32) int32
	swrGetDelay      func(ctx uintptr, base int64) int64
	swrGetOutSamples func(ctx uintptr, inSamples int32) int32
	swrInjectSilence func(ctx uintptr, count int32) int32
	swrDropOutput    func(ctx uintptr, count int32) int32
)

func loadSwresampleSymbols() {
	purego.RegisterLibFunc(&swrAlloc, swresampleHandle, "swr_alloc")
	purego.RegisterLibFunc(&swrInit, swresampleHandle, "swr_init")
	purego.RegisterLibFunc(&swrFree, swresampleHandle, "swr_free")
	purego.RegisterLibFunc(&swrConvert, swresampleHandle, "swr_convert")
	purego.RegisterLibFunc(&swrGetDelay, swresampleHandle, "swr_get_delay")
	purego.RegisterLibFunc(&swrGetOutSamples, swresampleHandle, "swr_get_out_samples")
	purego.RegisterLibFunc(&swrInjectSilence, swresampleHandle, "swr_inject_silence")
	purego.RegisterLibFunc(&swrDropOutput, swresampleHandle, "swr_drop_output")
}
