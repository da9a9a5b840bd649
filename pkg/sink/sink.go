package sink

import (
	"context"
	"fmt"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
)

// Sink receives eligible deals in input order. Write may buffer; Flush
// pushes everything buffered so far to the underlying store.
type Sink interface {
	Write(ctx context.Context, deal model.RetrievableDeal) error
	Flush(ctx context.Context) error
}

// PartialWriteError is returned by Multi when a deal reached the first
// Written sinks but a later one failed.
type PartialWriteError struct {
	Written int
	Err     error
}

func (e PartialWriteError) Error() string {
	return fmt.Sprintf("deal written to %d sinks only: %s", e.Written, e.Err)
}

func (e PartialWriteError) Unwrap() error {
	return e.Err
}

// Multi fans every deal out to all sinks, in order. The first sink is the
// primary one: a deal it accepted counts as written even if a later sink fails.
type Multi []Sink

func (m Multi) Write(ctx context.Context, deal model.RetrievableDeal) error {
	for i, s := range m {
		err := s.Write(ctx, deal)
		if err == nil {
			continue
		}

		if i == 0 {
			return err
		}

		return PartialWriteError{Written: i, Err: err}
	}

	return nil
}

// Flush flushes every sink, even when an earlier one fails, and returns the
// first error.
func (m Multi) Flush(ctx context.Context) error {
	var firstErr error
	for _, s := range m {
		err := s.Flush(ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
