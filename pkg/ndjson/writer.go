package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

const writeBufferSize = 1 << 20

// Writer encodes one value per line. A line is only handed to the buffer
// once it is fully encoded, so a failed encode never leaves half a line behind.
type Writer struct {
	buffered *bufio.Writer
	scratch  bytes.Buffer
	encoder  *json.Encoder
	lines    uint64
}

func NewWriter(w io.Writer) *Writer {
	writer := &Writer{buffered: bufio.NewWriterSize(w, writeBufferSize)}
	writer.encoder = json.NewEncoder(&writer.scratch)
	writer.encoder.SetEscapeHTML(false)
	return writer
}

func (w *Writer) Write(value interface{}) error {
	w.scratch.Reset()
	err := w.encoder.Encode(value)
	if err != nil {
		return errors.Wrap(err, "failed to encode line")
	}

	_, err = w.buffered.Write(w.scratch.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to write line")
	}

	w.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() uint64 {
	return w.lines
}

func (w *Writer) Flush() error {
	return errors.Wrap(w.buffered.Flush(), "failed to flush lines")
}
