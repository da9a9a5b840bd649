package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

var logger = logging.Logger("source")

const Stdin = "-"

// Open opens a deal dump for reading. The location is "-" for stdin, an
// http(s) URL or a file path. A ".zst" suffix is decompressed on the fly.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	var err error
	switch {
	case location == Stdin:
		raw = io.NopCloser(os.Stdin)
	case isURL(location):
		raw, err = fetch(ctx, location)
	default:
		raw, err = os.Open(location)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", location)
	}

	if !isZstd(location) {
		return raw, nil
	}

	decompressor, err := zstd.NewReader(raw)
	if err != nil {
		//nolint:errcheck
		raw.Close()
		return nil, errors.Wrap(err, "failed to create decompressor")
	}

	logger.With("location", location).Debug("decompressing zstd input")
	return &zstdReadCloser{decoder: decompressor, raw: raw}, nil
}

func fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to make request")
	}

	if resp.StatusCode != http.StatusOK {
		//nolint:errcheck
		resp.Body.Close()
		return nil, errors.Errorf("failed to get deals: %s", resp.Status)
	}

	logger.With("url", location, "length", resp.ContentLength).Info("streaming deals over http")
	return resp.Body, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func isZstd(location string) bool {
	if isURL(location) {
		parsed, err := url.Parse(location)
		if err == nil {
			location = parsed.Path
		}
	}

	return strings.HasSuffix(location, ".zst")
}

type zstdReadCloser struct {
	decoder *zstd.Decoder
	raw     io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.decoder.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.decoder.Close()
	return z.raw.Close()
}

// WithContext returns a reader that fails with the context's error once ctx
// is done, so a stalled pull notices cancellation at its next read.
func WithContext(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx: ctx, reader: r}
}

type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.reader.Read(p)
}
