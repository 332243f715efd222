//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"fmt"
)

// InputFormat identifies a container format for demuxing. The handle
// points at a static native descriptor and never needs freeing.
type InputFormat struct {
	ptr uintptr
}

// FindInputFormat looks up an input format by its short name, for example
// "mp4" or "matroska".
func FindInputFormat(name string) (*InputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := avFindInputFormat(name)
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, name)
	}
	return &InputFormat{ptr: ptr}, nil
}

// FindInputFormatByMime looks up an input format by a MIME type, for
// example "video/webm".
func FindInputFormatByMime(mimeType string) (*InputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := guessInputFormat("", "", mimeType)
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, mimeType)
	}
	return &InputFormat{ptr: ptr}, nil
}

// GuessInputFormat guesses an input format from a file name.
func GuessInputFormat(fileName string) (*InputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := guessInputFormat("", fileName, "")
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, fileName)
	}
	return &InputFormat{ptr: ptr}, nil
}

// guessInputFormat scores all registered demuxers against the given hints
// and returns the best match. A short name match weighs more than a MIME
// type match which weighs more than a file extension match.
func guessInputFormat(shortName, fileName, mimeType string) uintptr {
	var best uintptr
	var bestScore int32
	var iter uintptr
	for {
		candidate := avDemuxerIterate(&iter)
		if candidate == 0 {
			break
		}
		var score int32
		if shortName != "" {
			if names := nativePtr(candidate, inputFormatOffName); names != 0 && avMatchName(shortName, names) != 0 {
				score += 100
			}
		}
		if mimeType != "" {
			if mimes := nativePtr(candidate, inputFormatOffMimeType); mimes != 0 && avMatchName(mimeType, mimes) != 0 {
				score += 10
			}
		}
		if fileName != "" {
			if exts := nativePtr(candidate, inputFormatOffExtensions); exts != 0 && avMatchExt(fileName, exts) != 0 {
				score += 5
			}
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best
}

// Name returns the short name of the format.
func (f *InputFormat) Name() string {
	return goStringFromPtr(nativePtr(f.ptr, inputFormatOffName))
}

// LongName returns the descriptive name of the format.
func (f *InputFormat) LongName() string {
	return goStringFromPtr(nativePtr(f.ptr, inputFormatOffLongName))
}

// OutputFormat identifies a container format for muxing. The handle
// points at a static native descriptor and never needs freeing.
type OutputFormat struct {
	ptr uintptr
}

// FindOutputFormat looks up an output format by its short name, for
// example "mp4" or "mpegts".
func FindOutputFormat(name string) (*OutputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := avGuessFormat(name, "", "")
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, name)
	}
	return &OutputFormat{ptr: ptr}, nil
}

// FindOutputFormatByMime looks up an output format by a MIME type.
func FindOutputFormatByMime(mimeType string) (*OutputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := avGuessFormat("", "", mimeType)
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, mimeType)
	}
	return &OutputFormat{ptr: ptr}, nil
}

// GuessOutputFormat guesses an output format from a file name.
func GuessOutputFormat(fileName string) (*OutputFormat, error) {
	if err := loadFFmpeg(); err != nil {
		return nil, wrapNotLoaded(err)
	}
	ptr := avGuessFormat("", fileName, "")
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, fileName)
	}
	return &OutputFormat{ptr: ptr}, nil
}

// Name returns the short name of the format.
func (f *OutputFormat) Name() string {
	return goStringFromPtr(nativePtr(f.ptr, outputFormatOffName))
}

// LongName returns the descriptive name of the format.
func (f *OutputFormat) LongName() string {
	return goStringFromPtr(nativePtr(f.ptr, outputFormatOffLongName))
}
