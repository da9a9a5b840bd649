package extract

import (
	"context"
	"io"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/dealerror"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model/rpc"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/ndjson"
	"github.com/bcicen/jstream"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var logger = logging.Logger("extract")

const logEvery = 1_000_000

type Options struct {
	// Envelope is set when the snapshot is a raw Filecoin.StateMarketDeals
	// JSON-RPC response, with the deals under "result".
	Envelope bool
	// ActiveOnly skips deals that were never sealed or have been slashed.
	ActiveOnly bool
}

type Result struct {
	Written uint64
	Skipped uint64
}

// Run converts a StateMarketDeals snapshot, a single JSON object keyed by
// deal ID, into one deal per line. The snapshot is streamed; only one deal is
// held in memory at a time.
func Run(ctx context.Context, snapshot io.Reader, out io.Writer, opts Options) (Result, error) {
	emitDepth := 1
	if opts.Envelope {
		emitDepth = 2
	}

	// Cancelled on failure so the decoder stops reading the rest of the snapshot.
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	reader := &eofReader{ctx: readCtx, reader: snapshot}
	writer := ndjson.NewWriter(out)
	decoder := jstream.NewDecoder(reader, emitDepth).EmitKV()

	var result Result
	var err error
	for stream := range decoder.Stream() {
		// Keep draining so the decoder goroutine can finish.
		if err != nil {
			continue
		}

		if ctx.Err() != nil {
			err = dealerror.AbortedError{Cause: context.Cause(ctx)}
			continue
		}

		var written bool
		written, err = writeDeal(writer, stream, opts)
		if err != nil {
			stopReading()
			continue
		}

		if !written {
			result.Skipped++
			continue
		}

		result.Written++
		if result.Written%logEvery == 0 {
			logger.With("count", result.Written, "skipped", result.Skipped).Info("extracted deals")
		}
	}

	flushErr := writer.Flush()
	if err == nil && ctx.Err() != nil {
		err = dealerror.AbortedError{Cause: context.Cause(ctx)}
	}
	if err == nil && reader.err != nil {
		err = errors.Wrap(reader.err, "failed to read snapshot")
	}
	if err == nil && decoder.Err() != nil {
		logger.With("position", decoder.Pos()).Warn("prematurely reached end of json stream")
		err = errors.Wrap(decoder.Err(), "failed to decode json further")
	}
	if err == nil {
		err = flushErr
	}

	logger.With("written", result.Written, "skipped", result.Skipped).Info("finished extracting deals")
	return result, err
}

func writeDeal(writer *ndjson.Writer, stream *jstream.MetaValue, opts Options) (bool, error) {
	keyValuePair, ok := stream.Value.(jstream.KV)
	if !ok {
		return false, errors.New("failed to get key value pair")
	}

	deal, ok := keyValuePair.Value.(map[string]interface{})
	if !ok {
		return false, errors.Errorf("deal %s is not an object", keyValuePair.Key)
	}

	if opts.ActiveOnly {
		var state rpc.DealState
		err := mapstructure.Decode(deal["State"], &state)
		if err != nil {
			return false, errors.Wrapf(err, "failed to decode state of deal %s", keyValuePair.Key)
		}

		if !state.IsActive() {
			logger.With("deal_id", keyValuePair.Key).Debug("skipping inactive deal")
			return false, nil
		}
	}

	err := writer.Write(deal)
	if err != nil {
		return false, errors.Wrapf(err, "failed to write deal %s", keyValuePair.Key)
	}

	return true, nil
}

// eofReader ends the stream early when ctx is done or the underlying reader
// fails. The jstream scanner panics on any read error other than io.EOF, so
// the cause is kept in err instead.
type eofReader struct {
	ctx    context.Context
	reader io.Reader
	err    error
}

func (e *eofReader) Read(p []byte) (int, error) {
	if e.err != nil {
		return 0, io.EOF
	}

	if err := e.ctx.Err(); err != nil {
		e.err = err
		return 0, io.EOF
	}

	n, err := e.reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		e.err = err
		return n, nil
	}

	return n, err
}
