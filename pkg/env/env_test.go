package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	t.Setenv(string(IngesterInput), "")
	assert.Equal(t, "default.ndjson", GetString(IngesterInput, "default.ndjson"))

	t.Setenv(string(IngesterInput), "deals.ndjson.zst")
	assert.Equal(t, "deals.ndjson.zst", GetString(IngesterInput, "default.ndjson"))
}

func TestGetIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv(string(IngesterMongoBatchSize), "lots")
	assert.Equal(t, 1000, GetInt(IngesterMongoBatchSize, 1000))

	t.Setenv(string(IngesterMongoBatchSize), "250")
	assert.Equal(t, 250, GetInt(IngesterMongoBatchSize, 1000))
}

func TestGetUint64(t *testing.T) {
	t.Setenv(string(IngesterProgressInterval), "-1")
	assert.Equal(t, uint64(1_000_000), GetUint64(IngesterProgressInterval, 1_000_000))

	t.Setenv(string(IngesterProgressInterval), "5000")
	assert.Equal(t, uint64(5000), GetUint64(IngesterProgressInterval, 1_000_000))
}

func TestGetBool(t *testing.T) {
	t.Setenv(string(IngesterStrictLabel), "")
	assert.False(t, GetBool(IngesterStrictLabel, false))

	t.Setenv(string(IngesterStrictLabel), "true")
	assert.True(t, GetBool(IngesterStrictLabel, false))

	t.Setenv(string(IngesterStrictLabel), "maybe")
	assert.True(t, GetBool(IngesterStrictLabel, true))
}

func TestGetDuration(t *testing.T) {
	t.Setenv(string(IngesterMinAge), "")
	assert.Equal(t, 24*time.Hour, GetDuration(IngesterMinAge, 24*time.Hour))

	t.Setenv(string(IngesterMinAge), "36h")
	assert.Equal(t, 36*time.Hour, GetDuration(IngesterMinAge, 24*time.Hour))

	t.Setenv(string(IngesterMinAge), "soon")
	assert.Panics(t, func() { GetDuration(IngesterMinAge, 24*time.Hour) })
}

func TestGetRequiredString(t *testing.T) {
	t.Setenv(string(IngesterMongoURI), "")
	assert.Panics(t, func() { GetRequiredString(IngesterMongoURI) })

	t.Setenv(string(IngesterMongoURI), "mongodb://localhost:27017")
	assert.Equal(t, "mongodb://localhost:27017", GetRequiredString(IngesterMongoURI))
}
