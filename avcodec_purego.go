//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"github.com/ebitengine/purego"
)

// AVPacket field offsets, libavcodec 60 on 64-bit platforms.
const (
	packetOffBuf         = 0  // AVBufferRef *buf
	packetOffPts         = 8  // int64_t pts
	packetOffDts         = 16 // int64_t dts
	packetOffData        = 24 // uint8_t *data
	packetOffSize        = 32 // int size
	packetOffStreamIndex = 36 // int stream_index
	packetOffFlags       = 40 // int flags
	packetOffDuration    = 64 // int64_t duration
	packetOffPos         = 72 // int64_t pos
)

// AVCodecContext field offsets, libavcodec 60.
const (
	codecCtxOffCodecType     = 12  // enum AVMediaType codec_type
	codecCtxOffCodecID       = 24  // enum AVCodecID codec_id
	codecCtxOffCodecTag      = 28  // unsigned int codec_tag
	codecCtxOffBitRate       = 56  // int64_t bit_rate
	codecCtxOffFlags         = 76  // int flags
	codecCtxOffExtradata     = 88  // uint8_t *extradata
	codecCtxOffExtradataSize = 96  // int extradata_size
	codecCtxOffTimeBase      = 100 // AVRational time_base
	codecCtxOffWidth         = 116 // int width
	codecCtxOffHeight        = 120 // int height
	codecCtxOffGopSize       = 132 // int gop_size
	codecCtxOffPixFmt        = 136 // enum AVPixelFormat pix_fmt
	codecCtxOffMaxBFrames    = 160 // int max_b_frames
	codecCtxOffSampleRate    = 352 // int sample_rate
	codecCtxOffSampleFmt     = 360 // enum AVSampleFormat sample_fmt
	codecCtxOffFrameSize     = 364 // int frame_size
	codecCtxOffFramerate     = 704 // AVRational framerate
	codecCtxOffChLayout      = 912 // AVChannelLayout ch_layout
)

// AVCodecParameters field offsets, libavcodec 60.
const (
	codecParOffCodecType         = 0   // enum AVMediaType codec_type
	codecParOffCodecID           = 4   // enum AVCodecID codec_id
	codecParOffCodecTag          = 8   // uint32_t codec_tag
	codecParOffExtradata         = 16  // uint8_t *extradata
	codecParOffExtradataSize     = 24  // int extradata_size
	codecParOffFormat            = 28  // int format
	codecParOffBitRate           = 32  // int64_t bit_rate
	codecParOffWidth             = 56  // int width
	codecParOffHeight            = 60  // int height
	codecParOffSampleAspectRatio = 64  // AVRational sample_aspect_ratio
	codecParOffSampleRate        = 116 // int sample_rate
	codecParOffFrameSize         = 124 // int frame_size
	codecParOffChLayout          = 144 // AVChannelLayout ch_layout
)

// AVBSFContext field offsets, libavcodec 60.
const (
	bsfCtxOffParIn       = 24 // AVCodecParameters *par_in
	bsfCtxOffParOut      = 32 // AVCodecParameters *par_out
	bsfCtxOffTimeBaseIn  = 40 // AVRational time_base_in
	bsfCtxOffTimeBaseOut = 48 // AVRational time_base_out
)

// Media types and codec flags.
const (
	mediaTypeVideo = int32(0) // AVMEDIA_TYPE_VIDEO
	mediaTypeAudio = int32(1) // AVMEDIA_TYPE_AUDIO

	codecFlagLowDelay     = int32(1 << 19) // AV_CODEC_FLAG_LOW_DELAY
	codecFlagGlobalHeader = int32(1 << 22) // AV_CODEC_FLAG_GLOBAL_HEADER

	packetFlagKey = int32(1) // AV_PKT_FLAG_KEY
)

// AVCodecDescriptor field offsets, libavcodec 60.
const (
	codecDescOffID   = 0 // enum AVCodecID id
	codecDescOffType = 4 // enum AVMediaType type
	codecDescOffName = 8 // const char *name
)

var (
	// Codec lookup
	avcodecFindDecoderByName func(name string) uintptr
	avcodecFindEncoderByName func(name string) uintptr
	avcodecFindDecoder       func(id int32) uintptr
	avcodecFindEncoder       func(id int32) uintptr

	// Codec descriptors
	avcodecDescriptorGetByName func(name string) uintptr
	avcodecDescriptorGet       func(id int32) uintptr

	// Codec contexts
	avcodecAllocContext3 func(codec uintptr) uintptr
	avcodecFreeContext   func(ctx *uintptr)
	avcodecOpen2         func(ctx uintptr, codec uintptr, options *uintptr) int32

	// Codec IO
	avcodecSendPacket    func(ctx uintptr, packet uintptr) int32
	avcodecReceiveFrame  func(ctx uintptr, frame uintptr) int32
	avcodecSendFrame     func(ctx uintptr, frame uintptr) int32
	avcodecReceivePacket func(ctx uintptr, packet uintptr) int32

	// Codec parameters
	avcodecParametersAlloc       func() uintptr
	avcodecParametersFree        func(par *uintptr)
	avcodecParametersCopy        func(dst uintptr, src uintptr) int32
	avcodecParametersFromContext func(par uintptr, ctx uintptr) int32
	avcodecParametersToContext   func(ctx uintptr, par uintptr) int32

	// Packets
	avPacketAlloc        func() uintptr
	avPacketFree         func(packet *uintptr)
	avPacketClone        func(packet uintptr) uintptr
	avPacketUnref        func(packet uintptr)
	avPacketMakeWritable func(packet uintptr) int32
	avNewPacket          func(packet uintptr, size int32) int32

	// Bitstream filters
	avBsfGetByName     func(name string) uintptr
	avBsfAlloc         func(filter uintptr, ctx *uintptr) int32
	avBsfInit          func(ctx uintptr) int32
	avBsfSendPacket    func(ctx uintptr, packet uintptr) int32
	avBsfReceivePacket func(ctx uintptr, packet uintptr) int32
	avBsfFree          func(ctx *uintptr)
)

func loadAvcodecSymbols() {
	// Codec lookup
	purego.RegisterLibFunc(&avcodecFindDecoderByName, avcodecHandle, "avcodec_find_decoder_by_name")
	purego.RegisterLibFunc(&avcodecFindEncoderByName, avcodecHandle, "avcodec_find_encoder_by_name")
	purego.RegisterLibFunc(&avcodecFindDecoder, avcodecHandle, "avcodec_find_decoder")
	purego.RegisterLibFunc(&avcodecFindEncoder, avcodecHandle, "avcodec_find_encoder")

	// Codec descriptors
	purego.RegisterLibFunc(&avcodecDescriptorGetByName, avcodecHandle, "avcodec_descriptor_get_by_name")
	purego.RegisterLibFunc(&avcodecDescriptorGet, avcodecHandle, "avcodec_descriptor_get")

	// Codec contexts
	purego.RegisterLibFunc(&avcodecAllocContext3, avcodecHandle, "avcodec_alloc_context3")
	purego.RegisterLibFunc(&avcodecFreeContext, avcodecHandle, "avcodec_free_context")
	purego.RegisterLibFunc(&avcodecOpen2, avcodecHandle, "avcodec_open2")

	// Codec IO
	purego.RegisterLibFunc(&avcodecSendPacket, avcodecHandle, "avcodec_send_packet")
	purego.RegisterLibFunc(&avcodecReceiveFrame, avcodecHandle, "avcodec_receive_frame")
	purego.RegisterLibFunc(&avcodecSendFrame, avcodecHandle, "avcodec_send_frame")
	purego.RegisterLibFunc(&avcodecReceivePacket, avcodecHandle, "avcodec_receive_packet")

	// Codec parameters
	purego.RegisterLibFunc(&avcodecParametersAlloc, avcodecHandle, "avcodec_parameters_alloc")
	purego.RegisterLibFunc(&avcodecParametersFree, avcodecHandle, "avcodec_parameters_free")
	purego.RegisterLibFunc(&avcodecParametersCopy, avcodecHandle, "avcodec_parameters_copy")
	purego.RegisterLibFunc(&avcodecParametersFromContext, avcodecHandle, "avcodec_parameters_from_context")
	purego.RegisterLibFunc(&avcodecParametersToContext, avcodecHandle, "avcodec_parameters_to_context")

	// Packets
	purego.RegisterLibFunc(&avPacketAlloc, avcodecHandle, "av_packet_alloc")
	purego.RegisterLibFunc(&avPacketFree, avcodecHandle, "av_packet_free")
	purego.RegisterLibFunc(&avPacketClone, avcodecHandle, "av_packet_clone")
	purego.RegisterLibFunc(&avPacketUnref, avcodecHandle, "av_packet_unref")
	purego.RegisterLibFunc(&avPacketMakeWritable, avcodecHandle, "av_packet_make_writable")
	purego.RegisterLibFunc(&avNewPacket, avcodecHandle, "av_new_packet")

	// Bitstream filters
	purego.RegisterLibFunc(&avBsfGetByName, avcodecHandle, "av_bsf_get_by_name")
	purego.RegisterLibFunc(&avBsfAlloc, avcodecHandle, "av_bsf_alloc")
	purego.RegisterLibFunc(&avBsfInit, avcodecHandle, "av_bsf_init")
	purego.RegisterLibFunc(&avBsfSendPacket, avcodecHandle, "av_bsf_send_packet")
	purego.RegisterLibFunc(&avBsfReceivePacket, avcodecHandle, "av_bsf_receive_packet")
	purego.RegisterLibFunc(&avBsfFree, avcodecHandle, "av_bsf_free")
}
