//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// AVFrame field offsets, libavutil 58 on 64-bit platforms.
const (
	frameOffData          = 0   // uint8_t *data[8]
	frameOffLinesize      = 64  // int linesize[8]
	frameOffExtendedData  = 96  // uint8_t **extended_data
	frameOffWidth         = 104 // int width
	frameOffHeight        = 108 // int height
	frameOffNbSamples     = 112 // int nb_samples
	frameOffFormat        = 116 // int format
	frameOffPts           = 136 // int64_t pts
	frameOffPktDts        = 144 // int64_t pkt_dts
	frameOffTimeBase      = 152 // AVRational time_base
	frameOffSampleRate    = 200 // int sample_rate
	frameOffBestEffortTs  = 328 // int64_t best_effort_timestamp
	frameOffChannelLayout = 416 // AVChannelLayout ch_layout
	frameOffDuration      = 440 // int64_t duration
)

// AVChannelLayout field offsets and size, libavutil 58.
const (
	chLayoutOffOrder      = 0 // enum AVChannelOrder order
	chLayoutOffNbChannels = 4 // int nb_channels
	chLayoutOffMask       = 8 // uint64_t u.mask
	chLayoutSize          = 24
)

// AVPixFmtDescriptor field offsets, libavutil 58.
const (
	pixDescOffName        = 0  // const char *name
	pixDescOffNbComps     = 8  // uint8_t nb_components
	pixDescOffLog2ChromaW = 9  // uint8_t log2_chroma_w
	pixDescOffLog2ChromaH = 10 // uint8_t log2_chroma_h
)

// AVDictionaryEntry field offsets.
const (
	dictEntryOffKey   = 0 // char *key
	dictEntryOffValue = 8 // char *value
)

const (
	averrorEOF     = int32(-541478725)  // FFERRTAG('E','O','F',' ')
	averrorInvalid = int32(-22)         // AVERROR(EINVAL)
	averrorNoMem   = int32(-12)         // AVERROR(ENOMEM)
	averrorUnknown = int32(-1313558101) // FFERRTAG('U','N','K','N')

	avDictIgnoreSuffix = int32(2)

	optSearchChildren = int32(1) // AV_OPT_SEARCH_CHILDREN

	avTimeBase = 1000000
)

// averrorAgain returns AVERROR(EAGAIN) for the current platform.
func averrorAgain() int32 {
	if runtime.GOOS == "darwin" {
		return -35
	}
	return -11
}

func isAgainCode(code int32) bool {
	return code == averrorAgain()
}

var (
	// Memory
	avMalloc  func(size uintptr) uintptr
	avMallocz func(size uintptr) uintptr
	avFree    func(ptr uintptr)
	avStrdup  func(s string) uintptr

	// Name matching
	avMatchName func(name string, names uintptr) int32

	// Error strings
	avStrerror func(code int32, buf unsafe.Pointer, bufSize uintptr) int32

	// Logging
	avLogSetCallback func(callback uintptr)
	avLogSetLevel    func(level int32)
	avLogFormatLine  func(ptr uintptr, level int32, format uintptr, vl uintptr, line unsafe.Pointer, lineSize int32, printPrefix unsafe.Pointer)

	// Frames
	avFrameAlloc        func() uintptr
	avFrameFree         func(frame *uintptr)
	avFrameClone        func(frame uintptr) uintptr
	avFrameGetBuffer    func(frame uintptr, align int32) int32
	avFrameIsWritable   func(frame uintptr) int32
	avFrameMakeWritable func(frame uintptr) int32

	// Sample and pixel formats
	avGetSampleFmt       func(name string) int32
	avGetSampleFmtName   func(format int32) uintptr
	avSampleFmtIsPlanar  func(format int32) int32
	avGetBytesPerSample  func(format int32) int32
	avGetPixFmt          func(name string) int32
	avGetPixFmtName      func(format int32) uintptr
	avPixFmtCountPlanes  func(format int32) int32
	avPixFmtDescGet      func(format int32) uintptr
	avSamplesSetSilence  func(audioData uintptr, offset int32, nbSamples int32, nbChannels int32, sampleFmt int32) int32
	avImageFillBlack     func(dstData uintptr, dstLinesize unsafe.Pointer, pixFmt int32, colorRange int32, width int32, height int32) int32

	// Channel layouts
	avChannelLayoutDefault    func(layout uintptr, nbChannels int32)
	avChannelLayoutFromString func(layout uintptr, str string) int32
	avChannelLayoutDescribe   func(layout uintptr, buf unsafe.Pointer, bufSize uintptr) int32
	avChannelLayoutCopy       func(dst uintptr, src uintptr) int32
	avChannelLayoutUninit     func(layout uintptr)
	avChannelLayoutCompare    func(a uintptr, b uintptr) int32
	avChannelLayoutCheck      func(layout uintptr) int32

	// Reference counted buffers
	avBufferIsWritable func(buf uintptr) int32

	// Options
	avOptSet          func(obj uintptr, name string, value string, searchFlags int32) int32
	avOptSetInt       func(obj uintptr, name string, value int64, searchFlags int32) int32
	avOptSetSampleFmt func(obj uintptr, name string, format int32, searchFlags int32) int32
	avOptSetChlayout  func(obj uintptr, name string, layout uintptr, searchFlags int32) int32

	// Dictionaries
	avDictSet  func(dict *uintptr, key string, value string, flags int32) int32
	avDictGet  func(dict uintptr, key string, prev uintptr, flags int32) uintptr
	avDictFree func(dict *uintptr)

	// Sample buffers
	avSamplesCopy func(dst uintptr, src uintptr, dstOffset int32, srcOffset int32, nbSamples int32, nbChannels int32, sampleFmt int32) int32
)

func loadAvutilSymbols() {
	// Memory
	purego.RegisterLibFunc(&avMalloc, avutilHandle, "av_malloc")
	purego.RegisterLibFunc(&avMallocz, avutilHandle, "av_mallocz")
	purego.RegisterLibFunc(&avFree, avutilHandle, "av_free")
	purego.RegisterLibFunc(&avStrdup, avutilHandle, "av_strdup")

	// Name matching
	purego.RegisterLibFunc(&avMatchName, avutilHandle, "av_match_name")

	// Error strings
	purego.RegisterLibFunc(&avStrerror, avutilHandle, "av_strerror")

	// Logging
	purego.RegisterLibFunc(&avLogSetCallback, avutilHandle, "av_log_set_callback")
	purego.RegisterLibFunc(&avLogSetLevel, avutilHandle, "av_log_set_level")
	purego.RegisterLibFunc(&avLogFormatLine, avutilHandle, "av_log_format_line")

	// Frames
	purego.RegisterLibFunc(&avFrameAlloc, avutilHandle, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, avutilHandle, "av_frame_free")
	purego.RegisterLibFunc(&avFrameClone, avutilHandle, "av_frame_clone")
	purego.RegisterLibFunc(&avFrameGetBuffer, avutilHandle, "av_frame_get_buffer")
	purego.RegisterLibFunc(&avFrameIsWritable, avutilHandle, "av_frame_is_writable")
	purego.RegisterLibFunc(&avFrameMakeWritable, avutilHandle, "av_frame_make_writable")

	// Sample and pixel formats
	purego.RegisterLibFunc(&avGetSampleFmt, avutilHandle, "av_get_sample_fmt")
	purego.RegisterLibFunc(&avGetSampleFmtName, avutilHandle, "av_get_sample_fmt_name")
	purego.RegisterLibFunc(&avSampleFmtIsPlanar, avutilHandle, "av_sample_fmt_is_planar")
	purego.RegisterLibFunc(&avGetBytesPerSample, avutilHandle, "av_get_bytes_per_sample")
	purego.RegisterLibFunc(&avGetPixFmt, avutilHandle, "av_get_pix_fmt")
	purego.RegisterLibFunc(&avGetPixFmtName, avutilHandle, "av_get_pix_fmt_name")
	purego.RegisterLibFunc(&avPixFmtCountPlanes, avutilHandle, "av_pix_fmt_count_planes")
	purego.RegisterLibFunc(&avPixFmtDescGet, avutilHandle, "av_pix_fmt_desc_get")
	purego.RegisterLibFunc(&avSamplesSetSilence, avutilHandle, "av_samples_set_silence")
	purego.RegisterLibFunc(&avImageFillBlack, avutilHandle, "av_image_fill_black")

	// Channel layouts
	purego.RegisterLibFunc(&avChannelLayoutDefault, avutilHandle, "av_channel_layout_default")
	purego.RegisterLibFunc(&avChannelLayoutFromString, avutilHandle, "av_channel_layout_from_string")
	purego.RegisterLibFunc(&avChannelLayoutDescribe, avutilHandle, "av_channel_layout_describe")
	purego.RegisterLibFunc(&avChannelLayoutCopy, avutilHandle, "av_channel_layout_copy")
	purego.RegisterLibFunc(&avChannelLayoutUninit, avutilHandle, "av_channel_layout_uninit")
	purego.RegisterLibFunc(&avChannelLayoutCompare, avutilHandle, "av_channel_layout_compare")
	purego.RegisterLibFunc(&avChannelLayoutCheck, avutilHandle, "av_channel_layout_check")

	// Reference counted buffers
	purego.RegisterLibFunc(&avBufferIsWritable, avutilHandle, "av_buffer_is_writable")

	// Options
	purego.RegisterLibFunc(&avOptSet, avutilHandle, "av_opt_set")
	purego.RegisterLibFunc(&avOptSetInt, avutilHandle, "av_opt_set_int")
	purego.RegisterLibFunc(&avOptSetSampleFmt, avutilHandle, "av_opt_set_sample_fmt")
	purego.RegisterLibFunc(&avOptSetChlayout, avutilHandle, "av_opt_set_chlayout")

	// Dictionaries
	purego.RegisterLibFunc(&avDictSet, avutilHandle, "av_dict_set")
	purego.RegisterLibFunc(&avDictGet, avutilHandle, "av_dict_get")
	purego.RegisterLibFunc(&avDictFree, avutilHandle, "av_dict_free")

	// Sample buffers
	purego.RegisterLibFunc(&avSamplesCopy, avutilHandle, "av_samples_copy")

	nativeErrorString = ffmpegErrorString
}

// ffmpegErrorString resolves an FFmpeg error code to its message.
func ffmpegErrorString(code int32) string {
	buf := make([]byte, 256)
	if avStrerror(code, unsafe.Pointer(&buf[0]), uintptr(len(buf))) < 0 {
		return "unknown error"
	}
	return goStringFromPtr(uintptr(unsafe.Pointer(&buf[0])))
}

// nativeDictionary collects key value pairs into an AVDictionary owned by
// the caller.
type nativeDictionary struct {
	ptr uintptr
}

func (d *nativeDictionary) set(key, value string) error {
	if ret := avDictSet(&d.ptr, key, value, 0); ret < 0 {
		return errorFromRaw(ret)
	}
	return nil
}

func (d *nativeDictionary) free() {
	if d.ptr != 0 {
		avDictFree(&d.ptr)
		d.ptr = 0
	}
}

// dictSetAt sets an entry of a dictionary embedded in a native struct.
func dictSetAt(base uintptr, off uintptr, key, value string) int32 {
	return avDictSet((*uintptr)(unsafe.Pointer(base+off)), key, value, 0)
}

// dictionaryToMap copies all entries of an AVDictionary into a Go map.
func dictionaryToMap(dict uintptr) map[string]string {
	if dict == 0 {
		return nil
	}
	out := make(map[string]string)
	var entry uintptr
	for {
		entry = avDictGet(dict, "", entry, avDictIgnoreSuffix)
		if entry == 0 {
			break
		}
		key := goStringFromPtr(nativePtr(entry, dictEntryOffKey))
		value := goStringFromPtr(nativePtr(entry, dictEntryOffValue))
		out[key] = value
	}
	return out
}
