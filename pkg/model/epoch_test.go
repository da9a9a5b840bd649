package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenesis(t *testing.T) {
	assert.Equal(t, time.Date(2020, 8, 24, 22, 0, 0, 0, time.UTC), GenesisTimestamp)
	assert.Equal(t, GenesisUnixMillis, EpochToUnixMilli(0))
	assert.Equal(t, 30*time.Second, BlockTime)
}

func TestEpochToUnixMilli(t *testing.T) {
	assert.Equal(t, GenesisUnixMillis+30000, EpochToUnixMilli(1))
	assert.Equal(t, GenesisUnixMillis+2880*30000, EpochToUnixMilli(2880))
	assert.Equal(t, GenesisUnixMillis-30000, EpochToUnixMilli(-1))
}

func TestEpochToTime(t *testing.T) {
	assert.True(t, EpochToTime(-1).IsZero())
	// One day is 2880 epochs
	assert.Equal(t, GenesisTimestamp.Add(24*time.Hour), EpochToTime(2880))
}

func TestTimeToEpoch(t *testing.T) {
	assert.Equal(t, int64(-1), TimeToEpoch(time.Time{}))
	assert.Equal(t, int64(2880), TimeToEpoch(EpochToTime(2880)))
	assert.Equal(t, int64(2880), TimeToEpoch(EpochToTime(2880).Add(29*time.Second)))

	for _, epoch := range []int64{0, 1, 1_000_000, 3_500_000} {
		assert.Equal(t, epoch, TimeToEpoch(EpochToTime(epoch)))
	}
}

func TestRetrievableDealTimes(t *testing.T) {
	deal := RetrievableDeal{
		Started: EpochToUnixMilli(10),
		Expires: EpochToUnixMilli(20),
	}
	assert.Equal(t, EpochToTime(10), deal.StartedAt())
	assert.Equal(t, EpochToTime(20), deal.ExpiresAt())
}
