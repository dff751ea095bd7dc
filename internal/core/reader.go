package core

// reader.go reads a selected file into text for the parser.
//
// Files are read whole: imports are small client lists, and the parser needs
// the complete text. The read is bounded by the configured maximum size so an
// oversized upload fails fast instead of filling memory.
//
// Two common export problems are repaired on the way in:
//
//   - The UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows programs is skipped.
//   - Invalid UTF-8 sequences are replaced with U+FFFD.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxFileSize bounds a single import file.
const DefaultMaxFileSize = 10 << 20 // 10MB

var bom = []byte{0xEF, 0xBB, 0xBF}

// FileHandle is an opaque reference to a user-selected file.
// Open is called once per preview; the returned reader is closed afterwards.
type FileHandle struct {
	Name     string
	MIMEType string
	Size     int64 // -1 if unknown
	Open     func() (io.ReadCloser, error)
}

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br
}

// ReadText reads the whole file as UTF-8 text, failing with ErrFileTooLarge
// if it holds more than maxSize bytes. A maxSize <= 0 uses DefaultMaxFileSize.
func ReadText(r io.Reader, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(NewBOMSkippingReader(r), maxSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxSize)
	}

	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// readFile opens h and reads it with ReadText, wrapping failures in *ReadError.
func readFile(h *FileHandle, maxSize int64) (string, error) {
	if h == nil || h.Open == nil {
		return "", &ReadError{Err: ErrNoFile}
	}
	if maxSize > 0 && h.Size > maxSize {
		return "", &ReadError{Name: h.Name, Err: fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, h.Size, maxSize)}
	}

	rc, err := h.Open()
	if err != nil {
		return "", &ReadError{Name: h.Name, Err: err}
	}
	defer rc.Close()

	text, err := ReadText(rc, maxSize)
	if err != nil {
		return "", &ReadError{Name: h.Name, Err: err}
	}
	return text, nil
}
