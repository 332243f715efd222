//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
)

// VideoFilterBuilder collects filter graph configuration. The filter
// description, input codec parameters and input time base are required.
type VideoFilterBuilder struct {
	description string
	params      *CodecParameters

	inputTb    TimeBase
	inputTbSet bool

	outputTb    TimeBase
	outputTbSet bool
}

// NewVideoFilter creates a filter builder.
func NewVideoFilter() *VideoFilterBuilder {
	return &VideoFilterBuilder{}
}

// FilterDescription sets the graph description, for example
// "scale=1280:720,fps=30".
func (b *VideoFilterBuilder) FilterDescription(description string) *VideoFilterBuilder {
	b.description = description
	return b
}

// InputCodecParameters sets the parameters of the pushed frames. The
// parameters are copied.
func (b *VideoFilterBuilder) InputCodecParameters(params *VideoCodecParameters) *VideoFilterBuilder {
	if b.params != nil {
		b.params.Free()
	}
	b.params = params.CodecParameters().Clone()
	return b
}

// InputTimeBase sets the time base frames are rescaled into before
// entering the graph.
func (b *VideoFilterBuilder) InputTimeBase(tb TimeBase) *VideoFilterBuilder {
	b.inputTb = tb
	b.inputTbSet = true
	return b
}

// OutputTimeBase sets the time base the taken frames are tagged with.
// The default is the input time base.
func (b *VideoFilterBuilder) OutputTimeBase(tb TimeBase) *VideoFilterBuilder {
	b.outputTb = tb
	b.outputTbSet = true
	return b
}

// Build configures the filter graph. The builder is consumed.
func (b *VideoFilterBuilder) Build() (*VideoFilter, error) {
	if b.description == "" {
		return nil, newError("filter description not set")
	}
	if b.params == nil {
		return nil, newError("codec parameters not set")
	}
	if !b.inputTbSet {
		return nil, newError("input time base not set")
	}
	outputTb := b.outputTb
	if !b.outputTbSet {
		outputTb = b.inputTb
	}

	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	graph := avfilterGraphAlloc()
	if graph == 0 {
		panic("unable to allocate a filtergraph")
	}

	source, err := newFilterSource(graph, b.params.ptr, b.inputTb)
	if err != nil {
		avfilterGraphFree(&graph)
		return nil, err
	}
	sink, err := newFilterSink(graph)
	if err != nil {
		avfilterGraphFree(&graph)
		return nil, err
	}
	if err := parseFilterGraph(graph, source, sink, b.description); err != nil {
		avfilterGraphFree(&graph)
		return nil, err
	}

	b.params.Free()

	return &VideoFilter{
		graph:    graph,
		source:   source,
		sink:     sink,
		inputTb:  b.inputTb,
		outputTb: outputTb,
	}, nil
}

// newFilterSource creates the buffer source all frames enter the graph
// through.
func newFilterSource(graph uintptr, params uintptr, tb TimeBase) (uintptr, error) {
	filter := avfilterGetByName("buffer")
	if filter == 0 {
		return 0, fmt.Errorf("%w: buffer", ErrFilterNotFound)
	}

	sar := nativeRational(params, codecParOffSampleAspectRatio)
	if sar.Den == 0 {
		sar = TimeBase{Num: 0, Den: 1}
	}
	args := fmt.Sprintf("video_size=%dx%d:pix_fmt=%d:time_base=%d/%d:pixel_aspect=%d/%d",
		nativeInt32(params, codecParOffWidth), nativeInt32(params, codecParOffHeight),
		nativeInt32(params, codecParOffFormat),
		tb.Num, tb.Den,
		sar.Num, sar.Den)

	var ctx uintptr
	if ret := avfilterGraphCreateFilter(&ctx, filter, "in", args, 0, graph); ret < 0 {
		return 0, errorFromRaw(ret)
	}
	if ctx == 0 {
		return 0, newError("unable to allocate a source")
	}
	return ctx, nil
}

// newFilterSink creates the buffer sink terminating the graph.
func newFilterSink(graph uintptr) (uintptr, error) {
	filter := avfilterGetByName("buffersink")
	if filter == 0 {
		return 0, fmt.Errorf("%w: buffersink", ErrFilterNotFound)
	}

	var ctx uintptr
	if ret := avfilterGraphCreateFilter(&ctx, filter, "out", "", 0, graph); ret < 0 {
		return 0, errorFromRaw(ret)
	}
	if ctx == 0 {
		return 0, newError("unable to allocate a sink")
	}
	return ctx, nil
}

// parseFilterGraph links the description between the source and the sink
// and configures the graph.
func parseFilterGraph(graph, source, sink uintptr, description string) error {
	outputs := avfilterInoutAlloc()
	inputs := avfilterInoutAlloc()
	defer avfilterInoutFree(&outputs)
	defer avfilterInoutFree(&inputs)
	if outputs == 0 || inputs == 0 {
		panic("unable to allocate filter endpoints")
	}

	// The unlabeled input pad of the first filter in the description
	// connects to the source, the unlabeled output pad of the last one to
	// the sink.
	setNativePtr(outputs, filterInOutOffName, avStrdup("in"))
	setNativePtr(outputs, filterInOutOffFilterCtx, source)
	setNativeInt32(outputs, filterInOutOffPadIdx, 0)
	setNativePtr(outputs, filterInOutOffNext, 0)

	setNativePtr(inputs, filterInOutOffName, avStrdup("out"))
	setNativePtr(inputs, filterInOutOffFilterCtx, sink)
	setNativeInt32(inputs, filterInOutOffPadIdx, 0)
	setNativePtr(inputs, filterInOutOffNext, 0)

	if ret := avfilterGraphParsePtr(graph, description, &inputs, &outputs, 0); ret < 0 {
		return errorFromRaw(ret)
	}
	if ret := avfilterGraphConfig(graph, 0); ret < 0 {
		return errorFromRaw(ret)
	}
	return nil
}

// VideoFilter runs video frames through an avfilter graph. See the pump
// protocol description in this package for the Push, Flush and Take
// contract.
type VideoFilter struct {
	graph  uintptr
	source uintptr
	sink   uintptr

	inputTb  TimeBase
	outputTb TimeBase
}

// Push sends a frame into the graph, rescaling it into the input time
// base. The frame is freed on success, kept for a retry when the
// returned error reports Again.
func (f *VideoFilter) Push(frame *VideoFrame) error {
	if frame == nil || frame.ptr == 0 {
		return newError("nil frame")
	}
	frame.WithTimeBase(f.inputTb)
	if err := pumpPushStatus(avBuffersrcAddFrame(f.source, frame.ptr),
		"all frames must be consumed before pushing a new frame"); err != nil {
		return err
	}
	frame.Free()
	return nil
}

// Flush closes the source of the graph. Frames may still be ready after
// the flush.
func (f *VideoFilter) Flush() error {
	return pumpPushStatus(avBuffersrcAddFrame(f.source, 0),
		"all frames must be consumed before flushing")
}

// Take returns the next filtered frame, or nil when the graph needs more
// input or has been fully drained.
func (f *VideoFilter) Take() (*VideoFrame, error) {
	frame := avFrameAlloc()
	if frame == 0 {
		panic("unable to allocate a video frame")
	}
	ret := avBuffersinkGetFrame(f.sink, frame)
	if ret == averrorEOF || isAgainCode(ret) {
		frameFree(&frame)
		return nil, nil
	}
	if ret < 0 {
		frameFree(&frame)
		return nil, errorFromRaw(ret)
	}
	return &VideoFrame{ptr: frame, tb: f.outputTb}, nil
}

// Close releases the graph including its source and sink. Close is
// idempotent.
func (f *VideoFilter) Close() {
	if f.graph != 0 {
		avfilterGraphFree(&f.graph)
		f.source = 0
		f.sink = 0
	}
}
