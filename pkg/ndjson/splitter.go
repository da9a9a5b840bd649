package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/dealerror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
)

var logger = logging.Logger("ndjson")

const readBufferSize = 1 << 20

var errBlankLine = errors.New("blank line")

// Splitter reads newline-delimited JSON one line at a time.
// Numbers are decoded as json.Number so integers survive untouched.
type Splitter struct {
	reader *bufio.Reader
	line   int
}

func NewSplitter(r io.Reader) *Splitter {
	return &Splitter{reader: bufio.NewReaderSize(r, readBufferSize)}
}

// Line returns the 1-based number of the line last read.
func (s *Splitter) Line() int {
	return s.line
}

// Next returns the next parsed value, or io.EOF once the input is exhausted.
// A blank line is a parse error like any other line that is not JSON. An
// unterminated last line that does not parse is dropped rather than reported,
// since it is most likely a truncated write.
func (s *Splitter) Next() (interface{}, error) {
	raw, err := s.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to read line %d", s.line+1)
	}

	terminated := err == nil
	if len(raw) == 0 {
		return nil, io.EOF
	}

	s.line++
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		if !terminated {
			return nil, io.EOF
		}
		return nil, dealerror.ParseError{Line: s.line, Err: errBlankLine}
	}

	value, err := decode(trimmed)
	if err != nil {
		if !terminated {
			logger.With("line", s.line, "bytes", len(raw), "err", err).
				Warn("ignoring incomplete trailing line")
			return nil, io.EOF
		}

		return nil, dealerror.ParseError{Line: s.line, Err: err}
	}

	return value, nil
}

func decode(line []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()

	var value interface{}
	err := decoder.Decode(&value)
	if err != nil {
		return nil, err
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	return value, nil
}
