package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/ndjson"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const Stdout = "-"

// NDJSON writes one deal per line.
type NDJSON struct {
	writer *ndjson.Writer
	closer io.Closer
}

func NewNDJSON(w io.Writer) *NDJSON {
	return &NDJSON{writer: ndjson.NewWriter(w)}
}

// Create opens location with OpenFile and writes deals to it.
func Create(location string) (*NDJSON, error) {
	file, err := OpenFile(location)
	if err != nil {
		return nil, err
	}

	s := NewNDJSON(file)
	s.closer = file
	return s, nil
}

func (s *NDJSON) Write(_ context.Context, deal model.RetrievableDeal) error {
	return s.writer.Write(deal)
}

func (s *NDJSON) Flush(_ context.Context) error {
	return s.writer.Flush()
}

// Lines returns the number of deals written.
func (s *NDJSON) Lines() uint64 {
	return s.writer.Lines()
}

// Close flushes pending lines and closes the underlying file, if any.
func (s *NDJSON) Close() error {
	err := s.writer.Flush()
	if s.closer == nil {
		return err
	}

	closeErr := s.closer.Close()
	if err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "failed to close output")
	}

	return err
}

// OpenFile opens location for writing, "-" meaning stdout. Missing parent
// directories are created. A ".zst" suffix compresses the output.
func OpenFile(location string) (io.WriteCloser, error) {
	if location == Stdout {
		return nopWriteCloser{os.Stdout}, nil
	}

	err := os.MkdirAll(filepath.Dir(location), 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", location)
	}

	file, err := os.Create(location)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", location)
	}

	if !strings.HasSuffix(location, ".zst") {
		return file, nil
	}

	compressor, err := zstd.NewWriter(file)
	if err != nil {
		//nolint:errcheck
		file.Close()
		return nil, errors.Wrap(err, "failed to create compressor")
	}

	return &zstdWriteCloser{compressor: compressor, file: file}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

type zstdWriteCloser struct {
	compressor *zstd.Encoder
	file       *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) {
	return z.compressor.Write(p)
}

func (z *zstdWriteCloser) Close() error {
	err := z.compressor.Close()
	closeErr := z.file.Close()
	if err != nil {
		return errors.Wrap(err, "failed to finish compression")
	}

	return closeErr
}
