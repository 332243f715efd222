//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"syscall"

	"github.com/ebitengine/purego"
)

// ioBufferSize is the size of the buffer handed to avio_alloc_context.
const ioBufferSize = 4096

// IO adapts a Go stream to the native byte IO layer so demuxers and muxers
// can read from and write to arbitrary sources. The native side pulls and
// pushes data through process wide callbacks, so the stream's Read, Write
// and Seek methods are invoked from whatever goroutine drives the demuxer
// or muxer.
//
// The wrapped stream is retained and can be recovered with Stream, for
// example to grab the bytes out of a MemWriter after muxing.
type IO struct {
	ctx    uintptr
	handle uintptr
	stream any
}

// Global callback state for purego. AVIOContext opaque pointers carry a
// registry key instead of a Go pointer, the callbacks look the stream up
// here.
var (
	ioStreamsMu     sync.RWMutex
	ioStreams       = make(map[uintptr]*ioStream)
	ioStreamCounter uintptr
	ioReadCallback  uintptr
	ioWriteCallback uintptr
	ioSeekCallback  uintptr
	ioCallbackOnce  sync.Once
)

type ioStream struct {
	reader io.Reader
	writer io.Writer
	seeker io.Seeker
}

// initIOCallbacks creates the three native trampolines once. NewCallback
// slots are a finite per process resource, so every IO instance shares them.
func initIOCallbacks() {
	ioCallbackOnce.Do(func() {
		ioReadCallback = purego.NewCallback(ioReadHandler)
		ioWriteCallback = purego.NewCallback(ioWriteHandler)
		ioSeekCallback = purego.NewCallback(ioSeekHandler)
	})
}

// IOFromReader wraps a non seekable input stream.
func IOFromReader(r io.Reader) (*IO, error) {
	return newIO(r, nil, nil, r)
}

// IOFromReadSeeker wraps a seekable input stream. Demuxers can seek in the
// input and formats that need to know the total size can query it.
func IOFromReadSeeker(r io.ReadSeeker) (*IO, error) {
	return newIO(r, nil, r, r)
}

// IOFromWriter wraps a non seekable output stream.
func IOFromWriter(w io.Writer) (*IO, error) {
	return newIO(nil, w, nil, w)
}

// IOFromWriteSeeker wraps a seekable output stream. Formats that rewrite
// earlier parts of the output require this.
func IOFromWriteSeeker(w io.WriteSeeker) (*IO, error) {
	return newIO(nil, w, w, w)
}

func newIO(reader io.Reader, writer io.Writer, seeker io.Seeker, stream any) (*IO, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	initIOCallbacks()

	buffer := avMalloc(ioBufferSize)
	if buffer == 0 {
		panic("unable to allocate an AVIO context")
	}

	var writeFlag int32
	var readCb, writeCb, seekCb uintptr
	if reader != nil {
		readCb = ioReadCallback
	}
	if writer != nil {
		writeCb = ioWriteCallback
		writeFlag = 1
	}
	if seeker != nil {
		seekCb = ioSeekCallback
	}

	ioStreamsMu.Lock()
	ioStreamCounter++
	handle := ioStreamCounter
	ioStreams[handle] = &ioStream{reader: reader, writer: writer, seeker: seeker}
	ioStreamsMu.Unlock()

	ctx := avioAllocContext(buffer, ioBufferSize, writeFlag, handle, readCb, writeCb, seekCb)
	if ctx == 0 {
		avFree(buffer)
		ioStreamsMu.Lock()
		delete(ioStreams, handle)
		ioStreamsMu.Unlock()
		panic("unable to allocate an AVIO context")
	}

	return &IO{ctx: ctx, handle: handle, stream: stream}, nil
}

// Stream returns the wrapped Go stream.
func (o *IO) Stream() any {
	return o.stream
}

// Free releases the native IO context and unregisters the stream. The
// stream itself is not closed. Safe to call more than once.
func (o *IO) Free() {
	if o == nil || o.ctx == 0 {
		return
	}
	// The context owns its buffer and may have reallocated it, free
	// whatever it currently points at.
	buffer := nativePtr(o.ctx, ioCtxOffBuffer)
	if buffer != 0 {
		avFree(buffer)
		setNativePtr(o.ctx, ioCtxOffBuffer, 0)
	}
	avioContextFree(&o.ctx)
	o.ctx = 0

	ioStreamsMu.Lock()
	delete(ioStreams, o.handle)
	ioStreamsMu.Unlock()
}

func lookupIOStream(opaque uintptr) *ioStream {
	ioStreamsMu.RLock()
	stream := ioStreams[opaque]
	ioStreamsMu.RUnlock()
	return stream
}

// ioErrorCode translates a Go error into a native status code. Errors
// wrapping a syscall errno keep their identity, anything else becomes the
// generic unknown error.
func ioErrorCode(err error) int32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int32(errno)
	}
	return averrorUnknown
}

func ioReadHandler(opaque uintptr, buffer uintptr, size int32) int32 {
	stream := lookupIOStream(opaque)
	if stream == nil || stream.reader == nil {
		return averrorUnknown
	}
	if size <= 0 {
		return 0
	}
	n, err := stream.reader.Read(nativeBytes(buffer, int(size)))
	if n > 0 {
		return int32(n)
	}
	if errors.Is(err, io.EOF) {
		return averrorEOF
	}
	if err != nil {
		return ioErrorCode(err)
	}
	// A zero byte read without an error means no data right now.
	return averrorAgain()
}

func ioWriteHandler(opaque uintptr, buffer uintptr, size int32) int32 {
	stream := lookupIOStream(opaque)
	if stream == nil || stream.writer == nil {
		return averrorUnknown
	}
	if buffer == 0 || size <= 0 {
		// Zero sized writes are flush requests.
		if f, ok := stream.writer.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return ioErrorCode(err)
			}
		}
		return 0
	}
	n, err := stream.writer.Write(nativeBytes(buffer, int(size)))
	if err == nil && n < int(size) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return ioErrorCode(err)
	}
	return int32(n)
}

func ioSeekHandler(opaque uintptr, offset int64, whence int32) int64 {
	stream := lookupIOStream(opaque)
	if stream == nil || stream.seeker == nil {
		return int64(averrorUnknown)
	}
	whence &^= avseekForce
	if whence&avseekSize != 0 {
		return ioStreamSize(stream.seeker)
	}
	var goWhence int
	switch whence {
	case 0:
		goWhence = io.SeekStart
	case 1:
		goWhence = io.SeekCurrent
	case 2:
		goWhence = io.SeekEnd
	default:
		return int64(averrorInvalid)
	}
	pos, err := stream.seeker.Seek(offset, goWhence)
	if err != nil {
		return int64(ioErrorCode(err))
	}
	return pos
}

// ioStreamSize reports the total stream size by seeking to the end and
// back.
func ioStreamSize(s io.Seeker) int64 {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return int64(ioErrorCode(err))
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return int64(ioErrorCode(err))
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return int64(ioErrorCode(err))
	}
	return end
}

// MemWriter is an in memory WriteSeeker for container output. Formats that
// rewrite earlier bytes of the output, an MP4 moov box for example, can
// seek back into the already written data.
//
// The zero value is ready to use.
type MemWriter struct {
	data []byte
	pos  int64
}

// NewMemWriter returns an empty in memory writer.
func NewMemWriter() *MemWriter {
	return &MemWriter{}
}

func (m *MemWriter) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *MemWriter) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = pos
	return pos, nil
}

// Bytes returns the written data. The slice aliases the writer's buffer
// and stays valid until the next Write.
func (m *MemWriter) Bytes() []byte {
	return m.data
}

// TakeData returns the written data and resets the writer.
func (m *MemWriter) TakeData() []byte {
	data := m.data
	m.data = nil
	m.pos = 0
	return data
}

// NewMemReader wraps a byte slice in a seekable reader, typically for
// demuxing from memory.
func NewMemReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}
