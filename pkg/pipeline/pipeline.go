package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/dealerror"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/eligibility"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/ndjson"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/sink"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/source"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/stats"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
)

var logger = logging.Logger("pipeline")

// ProgressFunc is called every N records with the running total.
type ProgressFunc func(total uint64, at time.Time)

type Pipeline struct {
	source        io.Reader
	filter        *eligibility.Filter
	sink          sink.Sink
	stats         *stats.Stats
	progressEvery uint64
	onProgress    ProgressFunc
}

type Option func(*Pipeline)

func WithProgress(every uint64, fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progressEvery = every
		p.onProgress = fn
	}
}

func New(
	source io.Reader,
	filter *eligibility.Filter,
	sink sink.Sink,
	st *stats.Stats,
	opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		filter: filter,
		sink:   sink,
		stats:  st,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run streams every record from the source through the filter into the sink.
// Records are handled one at a time, so the sink sets the pace of reading.
// It returns nil when the source is exhausted, a dealerror.AbortedError when
// ctx is cancelled, and any other error when the input is broken.
func (p *Pipeline) Run(ctx context.Context) error {
	err := p.run(ctx)

	// Whatever made it into the sink is made of whole lines; let it through
	// even when the run was cancelled.
	flushErr := p.sink.Flush(context.WithoutCancel(ctx))
	if err != nil {
		if flushErr != nil {
			logger.With("err", flushErr).Warn("failed to flush sink after stopping")
		}
		return err
	}

	return errors.Wrap(flushErr, "failed to flush sink")
}

func (p *Pipeline) run(ctx context.Context) error {
	splitter := ndjson.NewSplitter(source.WithContext(ctx, p.source))
	for {
		if ctx.Err() != nil {
			return aborted(ctx)
		}

		record, err := splitter.Next()
		if errors.Is(err, io.EOF) {
			logger.With("total", p.stats.Total(), "accepted", p.stats.Accepted()).Debug("reached end of input")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return aborted(ctx)
			}
			return errors.Wrap(err, "failed to read deals")
		}

		verdict, err := p.filter.Evaluate(record)
		if err != nil {
			return errors.Wrapf(err, "malformed deal on line %d", splitter.Line())
		}

		if verdict.Eligible() {
			if ctx.Err() != nil {
				return aborted(ctx)
			}

			err = p.sink.Write(ctx, *verdict.Deal)
			if err != nil {
				// The primary sink holds the deal even though the write failed
				if errors.As(err, &sink.PartialWriteError{}) {
					p.stats.IncrementAccepted()
					p.stats.IncrementTotal()
				}
				if ctx.Err() != nil {
					return aborted(ctx)
				}
				return errors.Wrapf(err, "failed to write deal from line %d", splitter.Line())
			}

			p.stats.IncrementAccepted()
		} else {
			p.stats.IncrementExcluded(string(verdict.Reason))
		}

		p.stats.IncrementTotal()
		if p.onProgress != nil && p.progressEvery > 0 && p.stats.Total()%p.progressEvery == 0 {
			p.onProgress(p.stats.Total(), time.Now())
		}
	}
}

func aborted(ctx context.Context) error {
	return dealerror.AbortedError{Cause: context.Cause(ctx)}
}
