//go:build (darwin || linux) && (amd64 || arm64)

package av

// ScalingAlgorithm selects the swscale filter used by a frame scaler.
type ScalingAlgorithm int

const (
	ScalingFastBilinear ScalingAlgorithm = iota
	ScalingBilinear
	ScalingBicubic
)

func (a ScalingAlgorithm) flags() int32 {
	switch a {
	case ScalingFastBilinear:
		return swsFastBilinear
	case ScalingBilinear:
		return swsBilinear
	case ScalingBicubic:
		return swsBicubic
	default:
		return 0
	}
}

// VideoFrameScalerBuilder collects scaler configuration. The source
// pixel format and both dimensions are required, the target format
// defaults to the source one.
type VideoFrameScalerBuilder struct {
	sourceFormat PixelFormat
	sourceWidth  int
	sourceHeight int

	targetFormat    PixelFormat
	targetFormatSet bool
	targetWidth     int
	targetHeight    int

	flags int32
}

// NewVideoFrameScaler creates a scaler builder. The default algorithm is
// bicubic.
func NewVideoFrameScaler() *VideoFrameScalerBuilder {
	return &VideoFrameScalerBuilder{
		sourceFormat: -1,
		targetFormat: -1,
		flags:        ScalingBicubic.flags(),
	}
}

// SourcePixelFormat sets the pixel format of the scaled frames.
func (b *VideoFrameScalerBuilder) SourcePixelFormat(format PixelFormat) *VideoFrameScalerBuilder {
	b.sourceFormat = format
	return b
}

// SourceWidth sets the width of the scaled frames in pixels.
func (b *VideoFrameScalerBuilder) SourceWidth(width int) *VideoFrameScalerBuilder {
	b.sourceWidth = width
	return b
}

// SourceHeight sets the height of the scaled frames in pixels.
func (b *VideoFrameScalerBuilder) SourceHeight(height int) *VideoFrameScalerBuilder {
	b.sourceHeight = height
	return b
}

// TargetPixelFormat sets the pixel format of the output frames. The
// default is the source format.
func (b *VideoFrameScalerBuilder) TargetPixelFormat(format PixelFormat) *VideoFrameScalerBuilder {
	b.targetFormat = format
	b.targetFormatSet = true
	return b
}

// TargetWidth sets the width of the output frames in pixels.
func (b *VideoFrameScalerBuilder) TargetWidth(width int) *VideoFrameScalerBuilder {
	b.targetWidth = width
	return b
}

// TargetHeight sets the height of the output frames in pixels.
func (b *VideoFrameScalerBuilder) TargetHeight(height int) *VideoFrameScalerBuilder {
	b.targetHeight = height
	return b
}

// Algorithm sets the scaling algorithm. The default is bicubic.
func (b *VideoFrameScalerBuilder) Algorithm(algorithm ScalingAlgorithm) *VideoFrameScalerBuilder {
	b.flags = algorithm.flags()
	return b
}

// Build opens the scaler. The builder is consumed.
func (b *VideoFrameScalerBuilder) Build() (*VideoFrameScaler, error) {
	targetFormat := b.targetFormat
	if !b.targetFormatSet {
		targetFormat = b.sourceFormat
	}

	switch {
	case b.sourceFormat < 0:
		return nil, newError("invalid source format")
	case targetFormat < 0:
		return nil, newError("invalid target format")
	case b.sourceWidth < 1:
		return nil, newError("invalid source width")
	case b.sourceHeight < 1:
		return nil, newError("invalid source height")
	case b.targetWidth < 1:
		return nil, newError("invalid target width")
	case b.targetHeight < 1:
		return nil, newError("invalid target height")
	}

	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}

	ctx := swsGetContext(
		int32(b.sourceWidth), int32(b.sourceHeight), int32(b.sourceFormat),
		int32(b.targetWidth), int32(b.targetHeight), int32(targetFormat),
		b.flags, 0, 0, 0)
	if ctx == 0 {
		return nil, newError("unable to create a frame scaler")
	}

	return &VideoFrameScaler{
		ctx:          ctx,
		sourceFormat: b.sourceFormat,
		sourceWidth:  b.sourceWidth,
		sourceHeight: b.sourceHeight,
		targetFormat: targetFormat,
		targetWidth:  b.targetWidth,
		targetHeight: b.targetHeight,
	}, nil
}

// VideoFrameScaler converts video frames between pixel formats and
// resolutions. Unlike the codecs it maps every input frame to exactly
// one output frame, so there is no pump protocol.
type VideoFrameScaler struct {
	ctx uintptr

	sourceFormat PixelFormat
	sourceWidth  int
	sourceHeight int

	targetFormat PixelFormat
	targetWidth  int
	targetHeight int

	frame uintptr
}

// Scale converts a frame into the target format and resolution. The
// returned frame keeps the pts and time base of the source frame.
func (s *VideoFrameScaler) Scale(frame *VideoFrame) (*VideoFrame, error) {
	if frame.Width() != s.sourceWidth {
		return nil, newError("frame width does not match")
	}
	if frame.Height() != s.sourceHeight {
		return nil, newError("frame height does not match")
	}
	if frame.PixelFormat() != s.sourceFormat {
		return nil, newError("frame pixel format does not match")
	}

	if s.frame == 0 || avFrameIsWritable(s.frame) == 0 {
		frameFree(&s.frame)
		s.frame = avFrameAlloc()
		if s.frame == 0 {
			panic("unable to allocate a video frame")
		}
		setNativeInt32(s.frame, frameOffFormat, int32(s.targetFormat))
		setNativeInt32(s.frame, frameOffWidth, int32(s.targetWidth))
		setNativeInt32(s.frame, frameOffHeight, int32(s.targetHeight))
		if avFrameGetBuffer(s.frame, 0) < 0 {
			frameFree(&s.frame)
			panic("unable to allocate a video frame")
		}
	}

	setNativeInt64(s.frame, frameOffPts, nativeInt64(frame.ptr, frameOffPts))

	scaleFrame(s.ctx, frame.ptr, s.frame)

	clone := avFrameClone(s.frame)
	if clone == 0 {
		panic("unable to scale a frame")
	}

	return &VideoFrame{ptr: clone, tb: frame.tb}, nil
}

// Close releases the scaler. Close is idempotent.
func (s *VideoFrameScaler) Close() {
	frameFree(&s.frame)
	if s.ctx != 0 {
		swsFreeContext(s.ctx)
		s.ctx = 0
	}
}
