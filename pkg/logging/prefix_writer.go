package logging

import (
	"bytes"
	"io"
)

// PrefixWriter decorates an io.Writer, prepending a prefix to every
// complete line. Partial lines are buffered until their newline arrives.
type PrefixWriter struct {
	prefix []byte
	writer io.Writer
	buffer bytes.Buffer
}

// NewPrefixWriter creates a PrefixWriter around w.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.buffer.Write(p)

	for {
		idx := bytes.IndexByte(pw.buffer.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := pw.buffer.Next(idx + 1)
		if _, err := pw.writer.Write(pw.prefix); err != nil {
			return 0, err
		}
		if _, err := pw.writer.Write(line); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}
