package api

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

const readChunkSize = 4 << 10

// TextStream decodes a chunked UTF-8 body as it arrives.
// A multi-byte character split across reads is held back until it is complete.
type TextStream struct {
	body    io.ReadCloser
	buf     []byte
	pending []byte
	err     error
}

// NewTextStream wraps body. The stream owns body and closes it on Close.
func NewTextStream(body io.ReadCloser) *TextStream {
	return &TextStream{
		body: body,
		buf:  make([]byte, readChunkSize),
	}
}

// Recv blocks until the next fragment is available. It returns io.EOF after the last fragment.
func (s *TextStream) Recv() (string, error) {
	for s.err == nil {
		n, err := s.body.Read(s.buf)
		if err != nil {
			s.err = err
		}
		if n == 0 {
			continue
		}

		s.pending = append(s.pending, s.buf[:n]...)
		cut := completePrefix(s.pending)
		if cut == 0 {
			continue
		}

		frag := strings.ToValidUTF8(string(s.pending[:cut]), "\uFFFD")
		s.pending = append(s.pending[:0], s.pending[cut:]...)
		return frag, nil
	}

	// a truncated character at the very end is flushed as a replacement
	if errors.Is(s.err, io.EOF) && len(s.pending) > 0 {
		frag := strings.ToValidUTF8(string(s.pending), "\uFFFD")
		s.pending = nil
		return frag, nil
	}

	return "", s.err
}

// Close releases the underlying body; any unread data is discarded.
func (s *TextStream) Close() error {
	return s.body.Close()
}

// Fragments adapts a Stream into a lazy sequence. Iteration ends at io.EOF;
// any other error is yielded once as the final element.
func Fragments(s Stream) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			frag, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// completePrefix returns the length of b up to the start of an incomplete trailing rune.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
