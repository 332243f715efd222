// Package av wraps the FFmpeg libraries behind small, explicit Go types
// for demuxing, muxing, decoding, encoding, resampling, filtering and
// time base arithmetic.
//
// Key pieces include:
//   - TimeBase and Timestamp rational clock arithmetic
//   - Packet and audio/video frame handles with explicit ownership
//   - Decoders, encoders, resamplers, filter graphs and bitstream
//     filters sharing one push/take/flush pump protocol
//   - Demuxer and Muxer over caller supplied byte streams
//   - RTP payloadization of encoded packets
//
// # Pump protocol
//
// Every processing unit moves data the same way:
//
//	Push input. An error whose IsAgain() reports true means output is
//	pending; Take everything, then retry the same Push.
//	Take output until it returns nil.
//	Flush once at the end of the stream and Take the rest.
//
// Push and Take never block, so the units compose without goroutines.
//
// # Native libraries
//
// The bindings load the stock FFmpeg 6 shared libraries (libavutil,
// libavcodec, libavformat, libswresample, libswscale, libavfilter) at
// runtime with purego; no cgo is involved. Set AV_FFMPEG_LIB_PATH to the
// directory containing the libraries, otherwise the executable directory
// and the system defaults are searched. FFmpegAvailable reports whether
// loading succeeded.
//
// # Ownership
//
// Values backed by native memory (packets, frames, codec parameters,
// channel layouts, the processing units) are released explicitly with
// Free or Close, both idempotent. Push consumes its argument on success
// and leaves it with the caller when the error reports Again, so the
// same value can be pushed again after draining.
package av
