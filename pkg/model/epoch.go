package model

import (
	"time"
)

// See https://docs.filecoin.io/networks/mainnet#genesis
const (
	GenesisUnixMillis int64 = 1598306400000
	BlockTimeMillis   int64 = 30000
	BlockTime               = time.Duration(BlockTimeMillis) * time.Millisecond
)

var GenesisTimestamp = time.UnixMilli(GenesisUnixMillis).UTC()

// EpochToUnixMilli converts a chain epoch to milliseconds since the Unix epoch.
// Negative epochs are not clamped.
func EpochToUnixMilli(epoch int64) int64 {
	return epoch*BlockTimeMillis + GenesisUnixMillis
}

func EpochToTime(epoch int64) time.Time {
	if epoch < 0 {
		return time.Time{}
	}

	return time.UnixMilli(EpochToUnixMilli(epoch)).UTC()
}

// TimeToEpoch returns the epoch that contains t, or -1 for the zero time.
func TimeToEpoch(t time.Time) int64 {
	if t.IsZero() {
		return -1
	}

	return int64(t.Sub(GenesisTimestamp) / BlockTime)
}
