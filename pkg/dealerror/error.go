package dealerror

import (
	"encoding/json"
	"fmt"
)

// MalformedRecordError reports a deal field whose type does not match the
// market actor schema. The record is corrupt upstream and the run must stop.
type MalformedRecordError struct {
	Field    string
	Expected string
	Got      interface{}
	Proposal interface{}
}

// ParseError reports an input line that is not a single JSON value.
type ParseError struct {
	Line int
	Err  error
}

// AbortedError reports a run stopped on request. It is not a failure.
type AbortedError struct {
	Cause error
}

func (e MalformedRecordError) Error() string {
	return fmt.Sprintf("%s is not %s (got %s): %s", e.Field, e.Expected, typeName(e.Got), compact(e.Proposal))
}

func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse line %d as JSON: %s", e.Line, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

func (e AbortedError) Error() string {
	if e.Cause == nil {
		return "aborted"
	}

	return fmt.Sprintf("aborted: %s", e.Cause)
}

func (e AbortedError) Unwrap() error {
	return e.Cause
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64, int, int64, uint64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func compact(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(encoded)
}
