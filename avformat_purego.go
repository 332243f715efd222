//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/ebitengine/purego"
)

// AVFormatContext field offsets, libavformat 60 on 64-bit platforms.
const (
	formatCtxOffIformat            = 8   // const AVInputFormat *iformat
	formatCtxOffOformat            = 16  // const AVOutputFormat *oformat
	formatCtxOffPb                 = 32  // AVIOContext *pb
	formatCtxOffNbStreams          = 44  // unsigned int nb_streams
	formatCtxOffStreams            = 48  // AVStream **streams
	formatCtxOffURL                = 56  // char *url
	formatCtxOffStartTime          = 64  // int64_t start_time
	formatCtxOffDuration           = 72  // int64_t duration
	formatCtxOffBitRate            = 80  // int64_t bit_rate
	formatCtxOffFlags              = 96  // int flags
	formatCtxOffProbesize          = 104 // int64_t probesize
	formatCtxOffMaxAnalyzeDuration = 112 // int64_t max_analyze_duration
	formatCtxOffMetadata           = 176 // AVDictionary *metadata
)

// AVStream field offsets, libavformat 60.
const (
	streamOffIndex        = 8   // int index
	streamOffID           = 12  // int id
	streamOffCodecpar     = 16  // AVCodecParameters *codecpar
	streamOffTimeBase     = 32  // AVRational time_base
	streamOffStartTime    = 40  // int64_t start_time
	streamOffDuration     = 48  // int64_t duration
	streamOffNbFrames     = 56  // int64_t nb_frames
	streamOffDiscard      = 68  // enum AVDiscard discard
	streamOffMetadata     = 80  // AVDictionary *metadata
	streamOffAvgFrameRate = 88  // AVRational avg_frame_rate
	streamOffRFrameRate   = 216 // AVRational r_frame_rate
)

// AVInputFormat and AVOutputFormat field offsets, libavformat 60.
const (
	inputFormatOffName       = 0  // const char *name
	inputFormatOffLongName   = 8  // const char *long_name
	inputFormatOffExtensions = 24 // const char *extensions
	inputFormatOffMimeType   = 48 // const char *mime_type

	outputFormatOffName       = 0  // const char *name
	outputFormatOffLongName   = 8  // const char *long_name
	outputFormatOffMimeType   = 16 // const char *mime_type
	outputFormatOffExtensions = 24 // const char *extensions
	outputFormatOffFlags      = 44 // int flags
	outputFormatOffCodecTag   = 48 // const struct AVCodecTag *const *codec_tag
)

// AVIOContext field offsets.
const (
	ioCtxOffBuffer = 8 // unsigned char *buffer
)

const (
	fmtFlagGlobalHeader = int32(0x0040)  // AVFMT_GLOBALHEADER
	fmtFlagNoFile       = int32(0x0001)  // AVFMT_NOFILE
	fmtCtxFlagCustomIO  = int32(0x0080)  // AVFMT_FLAG_CUSTOM_IO
	avioSeekableNormal  = int32(1)       // AVIO_SEEKABLE_NORMAL
	avseekSize          = int32(0x10000) // AVSEEK_SIZE
	avseekForce         = int32(0x20000) // AVSEEK_FORCE

	seekFlagBackward = int32(1) // AVSEEK_FLAG_BACKWARD
	seekFlagByte     = int32(2) // AVSEEK_FLAG_BYTE
	seekFlagAny      = int32(4) // AVSEEK_FLAG_ANY
	seekFlagFrame    = int32(8) // AVSEEK_FLAG_FRAME
)

var (
	// Format contexts
	avformatAllocContext   func() uintptr
	avformatFreeContext    func(ctx uintptr)
	avformatOpenInput      func(ctx *uintptr, url string, format uintptr, options *uintptr) int32
	avformatCloseInput     func(ctx *uintptr)
	avformatFindStreamInfo func(ctx uintptr, options *uintptr) int32

	// Demuxing
	avReadFrame      func(ctx uintptr, packet uintptr) int32
	avformatSeekFile func(ctx uintptr, streamIndex int32, minTs int64, ts int64, maxTs int64, flags int32) int32

	// Format lookup
	avFindInputFormat func(name string) uintptr
	avDemuxerIterate  func(opaque *uintptr) uintptr
	avGuessFormat     func(shortName string, filename string, mimeType string) uintptr
	avMatchExt        func(filename string, extensions uintptr) int32
	avCodecGetID      func(tags uintptr, tag uint32) int32

	// Muxing
	avformatNewStream       func(ctx uintptr, codec uintptr) uintptr
	avformatWriteHeader     func(ctx uintptr, options *uintptr) int32
	avWriteFrame            func(ctx uintptr, packet uintptr) int32
	avInterleavedWriteFrame func(ctx uintptr, packet uintptr) int32
	avWriteTrailer          func(ctx uintptr) int32

	// Custom IO
	avioAllocContext func(buffer uintptr, bufferSize int32, writeFlag int32, opaque uintptr, read uintptr, write uintptr, seek uintptr) uintptr
	avioContextFree  func(ctx *uintptr)
)

func loadAvformatSymbols() {
	// Format contexts
	purego.RegisterLibFunc(&avformatAllocContext, avformatHandle, "avformat_alloc_context")
	purego.RegisterLibFunc(&avformatFreeContext, avformatHandle, "avformat_free_context")
	purego.RegisterLibFunc(&avformatOpenInput, avformatHandle, "avformat_open_input")
	purego.RegisterLibFunc(&avformatCloseInput, avformatHandle, "avformat_close_input")
	purego.RegisterLibFunc(&avformatFindStreamInfo, avformatHandle, "avformat_find_stream_info")

	// Demuxing
	purego.RegisterLibFunc(&avReadFrame, avformatHandle, "av_read_frame")
	purego.RegisterLibFunc(&avformatSeekFile, avformatHandle, "avformat_seek_file")

	// Format lookup
	purego.RegisterLibFunc(&avFindInputFormat, avformatHandle, "av_find_input_format")
	purego.RegisterLibFunc(&avDemuxerIterate, avformatHandle, "av_demuxer_iterate")
	purego.RegisterLibFunc(&avGuessFormat, avformatHandle, "av_guess_format")
	purego.RegisterLibFunc(&avMatchExt, avformatHandle, "av_match_ext")
	purego.RegisterLibFunc(&avCodecGetID, avformatHandle, "av_codec_get_id")

	// Muxing
	purego.RegisterLibFunc(&avformatNewStream, avformatHandle, "avformat_new_stream")
	purego.RegisterLibFunc(&avformatWriteHeader, avformatHandle, "avformat_write_header")
	purego.RegisterLibFunc(&avWriteFrame, avformatHandle, "av_write_frame")
	purego.RegisterLibFunc(&avInterleavedWriteFrame, avformatHandle, "av_interleaved_write_frame")
	purego.RegisterLibFunc(&avWriteTrailer, avformatHandle, "av_write_trailer")

	// Custom IO
	purego.RegisterLibFunc(&avioAllocContext, avformatHandle, "avio_alloc_context")
	purego.RegisterLibFunc(&avioContextFree, avformatHandle, "avio_context_free")
}
