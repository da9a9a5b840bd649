package eligibility

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
)

// Largest epoch whose timestamp still fits in int64 milliseconds.
const maxEpoch = (math.MaxInt64 - model.GenesisUnixMillis) / model.BlockTimeMillis

func stringField(proposal map[string]interface{}, field string) (string, error) {
	value, ok := proposal[field].(string)
	if !ok {
		return "", malformed(proposal, field, "a string", proposal[field])
	}

	return value, nil
}

// labelField returns "" when the label is absent or null, which is an
// exclusion. Any other non-string value is malformed.
func labelField(proposal map[string]interface{}) (string, error) {
	value := proposal["Label"]
	if value == nil {
		return "", nil
	}

	label, ok := value.(string)
	if !ok {
		return "", malformed(proposal, "Label", "a string", value)
	}

	return label, nil
}

// isEmpty reports whether value is null, false, zero or the empty string.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case float64:
		return v == 0 || math.IsNaN(v)
	default:
		return false
	}
}

func cidLinkField(proposal map[string]interface{}, field string) (string, error) {
	link, ok := proposal[field].(map[string]interface{})
	if !ok {
		return "", malformed(proposal, field, "a CID link", proposal[field])
	}

	root, ok := link["/"].(string)
	if !ok {
		return "", malformed(proposal, field, "a CID link", proposal[field])
	}

	return root, nil
}

func epochField(proposal map[string]interface{}, field string) (int64, error) {
	epoch, ok := toInt64(proposal[field])
	if !ok || epoch > maxEpoch || epoch < -maxEpoch {
		return 0, malformed(proposal, field, "an integer epoch", proposal[field])
	}

	return epoch, nil
}

func sizeField(proposal map[string]interface{}, field string) (uint64, error) {
	value := proposal[field]
	if number, ok := value.(json.Number); ok {
		size, err := strconv.ParseUint(number.String(), 10, 64)
		if err == nil {
			return size, nil
		}
	}

	size, ok := toInt64(value)
	if !ok || size < 0 {
		return 0, malformed(proposal, field, "a non-negative integer", value)
	}

	return uint64(size), nil
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}

		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return floatToInt64(f)
	case float64:
		return floatToInt64(v)
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}

	return int64(f), true
}
