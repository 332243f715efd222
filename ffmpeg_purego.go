//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// The bindings dlopen the stock FFmpeg shared libraries at runtime. All
// struct field access goes through the byte offsets listed in the
// av*_purego.go files, which are valid for the FFmpeg 6.x ABI:
//
//	libavutil 58, libavcodec 60, libavformat 60,
//	libswresample 4, libswscale 7, libavfilter 9
//
// Loading refuses to proceed when the installed majors differ, since the
// offsets would silently read the wrong fields.
const (
	avutilMajorRequired     = 58
	avcodecMajorRequired    = 60
	avformatMajorRequired   = 60
	swresampleMajorRequired = 4
	swscaleMajorRequired    = 7
	avfilterMajorRequired   = 9
)

var (
	ffmpegOnce    sync.Once
	ffmpegInitErr error
	ffmpegLoaded  bool

	avutilHandle     uintptr
	swresampleHandle uintptr
	swscaleHandle    uintptr
	avcodecHandle    uintptr
	avformatHandle   uintptr
	avfilterHandle   uintptr
)

// Version functions, registered before everything else so the ABI check can
// run ahead of the full symbol registration.
var (
	avutilVersion     func() uint32
	avcodecVersion    func() uint32
	avformatVersion   func() uint32
	swresampleVersion func() uint32
	swscaleVersion    func() uint32
	avfilterVersion   func() uint32
	avVersionInfo     func() uintptr
)

type ffmpegLib struct {
	name    string
	handle  *uintptr
	version *func() uint32
	major   int
}

func ffmpegLibs() []ffmpegLib {
	// Load order follows the internal dependencies between the libraries.
	return []ffmpegLib{
		{"libavutil", &avutilHandle, &avutilVersion, avutilMajorRequired},
		{"libswresample", &swresampleHandle, &swresampleVersion, swresampleMajorRequired},
		{"libswscale", &swscaleHandle, &swscaleVersion, swscaleMajorRequired},
		{"libavcodec", &avcodecHandle, &avcodecVersion, avcodecMajorRequired},
		{"libavformat", &avformatHandle, &avformatVersion, avformatMajorRequired},
		{"libavfilter", &avfilterHandle, &avfilterVersion, avfilterMajorRequired},
	}
}

// loadFFmpeg loads all six FFmpeg libraries and registers the symbols used
// by the bindings. Safe to call multiple times.
func loadFFmpeg() error {
	ffmpegOnce.Do(func() {
		ffmpegInitErr = loadFFmpegLibs()
		if ffmpegInitErr == nil {
			ffmpegLoaded = true
		}
	})
	return ffmpegInitErr
}

func loadFFmpegLibs() error {
	libs := ffmpegLibs()

	for _, lib := range libs {
		handle, err := openFFmpegLib(lib.name, lib.major)
		if err != nil {
			return err
		}
		*lib.handle = handle
	}

	// ABI check before any offset-based access can happen.
	for _, lib := range libs {
		purego.RegisterLibFunc(lib.version, *lib.handle, versionSymbol(lib.name))
		v := (*lib.version)()
		if int(v>>16) != lib.major {
			return fmt.Errorf("unsupported %s version %d.%d.%d: these bindings require major version %d",
				lib.name, v>>16, (v>>8)&0xff, v&0xff, lib.major)
		}
	}
	purego.RegisterLibFunc(&avVersionInfo, avutilHandle, "av_version_info")

	loadAvutilSymbols()
	loadSwresampleSymbols()
	loadSwscaleSymbols()
	loadAvcodecSymbols()
	loadAvformatSymbols()
	loadAvfilterSymbols()

	return nil
}

// versionSymbol maps a library name to its version function, for example
// libavutil to avutil_version.
func versionSymbol(libName string) string {
	return libName[3:] + "_version"
}

func openFFmpegLib(name string, major int) (uintptr, error) {
	var lastErr error

	for _, path := range getFFmpegLibPaths(name, major) {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		return handle, nil
	}

	if lastErr != nil {
		return 0, fmt.Errorf("failed to load %s: %w", name, lastErr)
	}
	return 0, errors.New(name + " not found in any standard location")
}

// getFFmpegLibPaths returns candidate paths for an FFmpeg library in order
// of preference.
func getFFmpegLibPaths(name string, major int) []string {
	var sonames []string
	switch runtime.GOOS {
	case "darwin":
		sonames = []string{
			fmt.Sprintf("%s.%d.dylib", name, major),
			name + ".dylib",
		}
	default:
		sonames = []string{
			fmt.Sprintf("%s.so.%d", name, major),
			name + ".so",
		}
	}

	var paths []string

	// Environment override pointing at a directory with the libraries.
	if dir := os.Getenv("AV_FFMPEG_LIB_PATH"); dir != "" {
		for _, soname := range sonames {
			paths = append(paths, filepath.Join(dir, soname))
		}
	}

	// Next to the executable.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		for _, soname := range sonames {
			paths = append(paths, filepath.Join(execDir, soname))
		}
	}

	// Bare soname, resolved through the system loader search path.
	paths = append(paths, sonames...)

	// Common install locations.
	var dirs []string
	switch runtime.GOOS {
	case "darwin":
		dirs = []string{
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/local/lib",
		}
	case "linux":
		dirs = []string{
			"/usr/lib",
			"/usr/local/lib",
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/opt/ffmpeg/lib",
		}
	}
	for _, dir := range dirs {
		for _, soname := range sonames {
			paths = append(paths, filepath.Join(dir, soname))
		}
	}

	return paths
}

// FFmpegAvailable returns true if the FFmpeg libraries were found and match
// the ABI the bindings were built against.
func FFmpegAvailable() bool {
	return loadFFmpeg() == nil && ffmpegLoaded
}

// FFmpegVersion returns the version string of the loaded FFmpeg build, or an
// empty string if the libraries are not available.
func FFmpegVersion() string {
	if !FFmpegAvailable() {
		return ""
	}
	if info := goStringFromPtr(avVersionInfo()); info != "" {
		return info
	}
	v := avutilVersion()
	return fmt.Sprintf("lavu %d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}
