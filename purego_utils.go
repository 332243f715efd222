//go:build (darwin || linux) && (amd64 || arm64)

// Shared utilities for the purego-based FFmpeg bindings.

package av

import (
	"unsafe"
)

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	// Find string length
	p := unsafe.Pointer(ptr)
	var length int
	for {
		if *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(length))) == 0 {
			break
		}
		length++
		if length > 4096 { // Safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// nativeBytes exposes size bytes of native memory as a Go slice. The slice
// aliases the native buffer and is only valid while the buffer stays alive.
func nativeBytes(ptr uintptr, size int) []byte {
	if ptr == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
}

// Typed accessors for fields of native structs. FFmpeg structs are read and
// written through explicit byte offsets, see the offset tables in the
// av*_purego.go files.

func nativeInt32(base uintptr, off uintptr) int32 {
	return *(*int32)(unsafe.Pointer(base + off))
}

func setNativeInt32(base uintptr, off uintptr, v int32) {
	*(*int32)(unsafe.Pointer(base + off)) = v
}

func nativeInt64(base uintptr, off uintptr) int64 {
	return *(*int64)(unsafe.Pointer(base + off))
}

func setNativeInt64(base uintptr, off uintptr, v int64) {
	*(*int64)(unsafe.Pointer(base + off)) = v
}

func nativeUint64(base uintptr, off uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(base + off))
}

func setNativeUint64(base uintptr, off uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(base + off)) = v
}

func nativePtr(base uintptr, off uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(base + off))
}

func setNativePtr(base uintptr, off uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(base + off)) = v
}

func nativeByte(base uintptr, off uintptr) byte {
	return *(*byte)(unsafe.Pointer(base + off))
}

// nativeRational reads an AVRational (two packed int32 values).
func nativeRational(base uintptr, off uintptr) TimeBase {
	return TimeBase{
		Num: nativeInt32(base, off),
		Den: nativeInt32(base, off+4),
	}
}

func setNativeRational(base uintptr, off uintptr, tb TimeBase) {
	setNativeInt32(base, off, tb.Num)
	setNativeInt32(base, off+4, tb.Den)
}
