//go:build (darwin || linux) && (amd64 || arm64)

package av

import (
	"bytes"
	"io"
	"testing"
)

func TestMemWriterWriteAndSeek(t *testing.T) {
	w := NewMemWriter()

	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Rewrite the middle of the data, like a muxer patching a header.
	if _, err := w.Seek(6, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if _, err := w.Write([]byte("media")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got := w.Bytes(); !bytes.Equal(got, []byte("hello media")) {
		t.Errorf("Bytes() = %q, want %q", got, "hello media")
	}
}

func TestMemWriterSeekPastEnd(t *testing.T) {
	w := NewMemWriter()

	if _, err := w.Write([]byte("ab")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Seek(2, io.SeekCurrent); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if _, err := w.Write([]byte("cd")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got := w.Bytes(); !bytes.Equal(got, []byte("ab\x00\x00cd")) {
		t.Errorf("Bytes() = %q, want %q", got, "ab\x00\x00cd")
	}

	pos, err := w.Seek(-2, io.SeekEnd)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos != 4 {
		t.Errorf("Seek(-2, SeekEnd) = %d, want 4", pos)
	}
}

func TestMemWriterSeekErrors(t *testing.T) {
	w := NewMemWriter()

	if _, err := w.Seek(-1, io.SeekStart); err == nil {
		t.Error("Seek to a negative position did not fail")
	}
	if _, err := w.Seek(0, 42); err == nil {
		t.Error("Seek with an invalid whence did not fail")
	}
}

func TestMemWriterTakeData(t *testing.T) {
	w := NewMemWriter()

	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data := w.TakeData()
	if !bytes.Equal(data, []byte("abc")) {
		t.Errorf("TakeData() = %q, want %q", data, "abc")
	}
	if len(w.Bytes()) != 0 {
		t.Error("the writer still holds data after TakeData")
	}

	// The writer starts over from position zero.
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := w.Bytes(); !bytes.Equal(got, []byte("x")) {
		t.Errorf("Bytes() = %q, want %q", got, "x")
	}
}

func TestMemReader(t *testing.T) {
	r := NewMemReader([]byte("abcdef"))

	if _, err := r.Seek(3, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(buf, []byte("def")) {
		t.Errorf("Read = %q, want %q", buf, "def")
	}
}
