//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// LogLevel classifies a native log record. Lower values are more severe.
type LogLevel int32

const (
	LogLevelQuiet   LogLevel = -8
	LogLevelPanic   LogLevel = 0
	LogLevelFatal   LogLevel = 8
	LogLevelError   LogLevel = 16
	LogLevelWarning LogLevel = 24
	LogLevelInfo    LogLevel = 32
	LogLevelVerbose LogLevel = 40
	LogLevelDebug   LogLevel = 48
	LogLevelTrace   LogLevel = 56
)

var (
	logSinkMu       sync.RWMutex
	logSink         func(level int, message string)
	logLineMu       sync.Mutex
	logLinePrefix   int32 = 1
	logCallback     uintptr
	logCallbackOnce sync.Once
)

// SetLogSink installs a process-wide sink receiving log records emitted by
// the native libraries. At most one sink is active at a time; installing a
// new one replaces the previous. Passing nil removes the sink and discards
// native log output until another sink is installed.
//
// Records above the informational level are not forwarded. The sink runs
// synchronously on whichever thread emits the record, so it must be safe to
// call concurrently and should return quickly.
func SetLogSink(sink func(level int, message string)) error {
	if err := loadFFmpeg(); err != nil {
		return wrapNotLoaded(err)
	}

	logCallbackOnce.Do(func() {
		logCallback = purego.NewCallback(logHandler)
		avLogSetCallback(logCallback)
	})

	logSinkMu.Lock()
	logSink = sink
	logSinkMu.Unlock()

	return nil
}

// SetLogLevel sets the severity threshold of the native libraries. Records
// above the threshold are not generated at all, which also silences the
// default stderr output when no sink is installed.
func SetLogLevel(level LogLevel) error {
	if err := loadFFmpeg(); err != nil {
		return wrapNotLoaded(err)
	}
	avLogSetLevel(int32(level))
	return nil
}

func logHandler(avcl uintptr, level int32, format uintptr, vl uintptr) {
	if level > int32(LogLevelInfo) {
		return
	}

	logSinkMu.RLock()
	sink := logSink
	logSinkMu.RUnlock()
	if sink == nil {
		return
	}

	// The prefix flag is carried between records so that a record split
	// across multiple calls gets its context printed only once.
	var line [1024]byte
	logLineMu.Lock()
	avLogFormatLine(avcl, level, format, vl, unsafe.Pointer(&line[0]), int32(len(line)), unsafe.Pointer(&logLinePrefix))
	logLineMu.Unlock()

	n := 0
	for n < len(line) && line[n] != 0 {
		n++
	}

	sink(int(level), strings.TrimRight(string(line[:n]), "\n"))
}
