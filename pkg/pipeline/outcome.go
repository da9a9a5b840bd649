package pipeline

import (
	"errors"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/dealerror"
)

type Outcome string

const (
	Completed Outcome = "completed"
	Aborted   Outcome = "aborted"
	Failed    Outcome = "failed"
)

// OutcomeOf classifies the error returned by Run.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Completed
	}

	if errors.As(err, &dealerror.AbortedError{}) {
		return Aborted
	}

	return Failed
}

// FailureKind names the class of a failed run for reporting.
func FailureKind(err error) string {
	switch {
	case errors.As(err, &dealerror.MalformedRecordError{}):
		return "malformed_record"
	case errors.As(err, &dealerror.ParseError{}):
		return "parse_failure"
	default:
		return "io_failure"
	}
}
