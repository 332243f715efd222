//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/ebitengine/purego"
)

// AVFilterInOut field offsets, libavfilter 9 on 64-bit platforms.
const (
	filterInOutOffName      = 0  // char *name
	filterInOutOffFilterCtx = 8  // AVFilterContext *filter_ctx
	filterInOutOffPadIdx    = 16 // int pad_idx
	filterInOutOffNext      = 24 // struct AVFilterInOut *next
)

var (
	avfilterGraphAlloc        func() uintptr
	avfilterGraphFree         func(graph *uintptr)
	avfilterGraphParsePtr     func(graph uintptr, filters string, inputs *uintptr, outputs *uintptr, logCtx uintptr) int32
	avfilterGraphConfig       func(graph uintptr, logCtx uintptr) int32
	avfilterGetByName         func(name string) uintptr
	avfilterGraphCreateFilter func(filterCtx *uintptr, filter uintptr, name string, args string, opaque uintptr, graph uintptr) int32
	avfilterInoutAlloc        func() uintptr
	avfilterInoutFree         func(inout *uintptr)

	avBuffersrcAddFrame  func(ctx uintptr, frame uintptr) int32
	avBuffersinkGetFrame func(ctx uintptr, frame uintptr) int32
)

func loadAvfilterSymbols() {
	purego.RegisterLibFunc(&avfilterGraphAlloc, avfilterHandle, "avfilter_graph_alloc")
	purego.RegisterLibFunc(&avfilterGraphFree, avfilterHandle, "avfilter_graph_free")
	purego.RegisterLibFunc(&avfilterGraphParsePtr, avfilterHandle, "avfilter_graph_parse_ptr")
	purego.RegisterLibFunc(&avfilterGraphConfig, avfilterHandle, "avfilter_graph_config")
	purego.RegisterLibFunc(&avfilterGetByName, avfilterHandle, "avfilter_get_by_name")
	purego.RegisterLibFunc(&avfilterGraphCreateFilter, avfilterHandle, "avfilter_graph_create_filter")
	purego.RegisterLibFunc(&avfilterInoutAlloc, avfilterHandle, "avfilter_inout_alloc")
	purego.RegisterLibFunc(&avfilterInoutFree, avfilterHandle, "avfilter_inout_free")

	purego.RegisterLibFunc(&avBuffersrcAddFrame, avfilterHandle, "av_buffersrc_add_frame")
	purego.RegisterLibFunc(&avBuffersinkGetFrame, avfilterHandle, "av_buffersink_get_frame")
}
