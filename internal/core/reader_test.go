package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestReadText(t *testing.T) {
	t.Run("replaces invalid utf8", func(t *testing.T) {
		got, err := ReadText(bytes.NewReader([]byte{'a', 0xff, 'b'}), 0)
		if err != nil {
			t.Fatalf("ReadText() error = %v", err)
		}
		if got != "a\uFFFDb" {
			t.Errorf("got %q, want %q", got, "a\uFFFDb")
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		got, err := ReadText(strings.NewReader("12345"), 5)
		if err != nil {
			t.Fatalf("ReadText() error = %v", err)
		}
		if got != "12345" {
			t.Errorf("got %q, want %q", got, "12345")
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadText(strings.NewReader("123456"), 5)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})
}

func TestReadFile(t *testing.T) {
	t.Run("open failure becomes ReadError", func(t *testing.T) {
		h := &FileHandle{Name: "x.csv", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("permission denied")
		}}
		_, err := readFile(h, 0)

		var readErr *ReadError
		if !errors.As(err, &readErr) {
			t.Fatalf("error = %v, want *ReadError", err)
		}
		if readErr.Name != "x.csv" {
			t.Errorf("Name = %q, want x.csv", readErr.Name)
		}
	})

	t.Run("declared size over limit is rejected before open", func(t *testing.T) {
		opened := false
		h := &FileHandle{Name: "big.csv", Size: 100, Open: func() (io.ReadCloser, error) {
			opened = true
			return io.NopCloser(strings.NewReader("")), nil
		}}
		_, err := readFile(h, 10)

		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
		if opened {
			t.Error("file was opened")
		}
	})

	t.Run("missing handle", func(t *testing.T) {
		_, err := readFile(nil, 0)
		if !errors.Is(err, ErrNoFile) {
			t.Errorf("error = %v, want ErrNoFile", err)
		}
	})
}
