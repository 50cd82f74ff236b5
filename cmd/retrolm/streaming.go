package main

import (
	"bufio"
	"io"
	"strings"
)

// StreamWriter surfaces generated characters as they are sampled. Each
// Write is flushed immediately so slow generations stay visible.
type StreamWriter struct {
	out   *bufio.Writer
	quiet bool
	acc   strings.Builder
}

// NewStreamWriter wraps w. With quiet set, output is accumulated and only
// written to w by Flush.
func NewStreamWriter(w io.Writer, quiet bool) *StreamWriter {
	return &StreamWriter{out: bufio.NewWriterSize(w, 4096), quiet: quiet}
}

// Write emits one generated character.
func (s *StreamWriter) Write(b byte) {
	s.acc.WriteByte(b)
	if s.quiet {
		return
	}
	_ = s.out.WriteByte(b)
	_ = s.out.Flush()
}

// Flush drains buffered output and returns everything written so far.
func (s *StreamWriter) Flush() string {
	if s.quiet {
		_, _ = s.out.WriteString(s.acc.String())
	}
	_ = s.out.Flush()
	return s.acc.String()
}
