package sink

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/source"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var deal = model.RetrievableDeal{
	Provider:   "f01234",
	Client:     "f01000",
	PieceCID:   "baga6ea4seaqao7s73y24kcutaosvacpdjgfe5pw76ooefnyqw4ynr3d2y6x2mpq",
	PieceSize:  34359738368,
	PayloadCID: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
	Started:    model.EpochToUnixMilli(3_000_000),
	Expires:    model.EpochToUnixMilli(4_000_000),
}

const dealLine = `{"provider":"f01234","client":"f01000",` +
	`"pieceCID":"baga6ea4seaqao7s73y24kcutaosvacpdjgfe5pw76ooefnyqw4ynr3d2y6x2mpq",` +
	`"pieceSize":34359738368,` +
	`"payloadCID":"bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",` +
	`"started":1688306400000,"expires":1718306400000}` + "\n"

func TestNDJSONWritesKeysInOrder(t *testing.T) {
	var out bytes.Buffer
	s := NewNDJSON(&out)
	require.NoError(t, s.Write(context.Background(), deal))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, dealLine, out.String())
	assert.Equal(t, uint64(1), s.Lines())
}

func TestCreatePlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated", "retrievable-deals.ndjson")
	s, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), deal))
	require.NoError(t, s.Write(context.Background(), deal))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dealLine+dealLine, string(data))
}

func TestCreateZstdFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retrievable-deals.ndjson.zst")
	s, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), deal))
	require.NoError(t, s.Close())

	reader, err := source.Open(context.Background(), path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, dealLine, string(data))
}

type fakeCollection struct {
	batches [][]interface{}
	err     error
	ctxErrs []error
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents []interface{},
	_ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return nil, f.err
	}

	f.batches = append(f.batches, documents)
	return &mongo.InsertManyResult{InsertedIDs: make([]interface{}, len(documents))}, nil
}

func TestMongoBatches(t *testing.T) {
	collection := &fakeCollection{}
	s := NewMongo(collection, "run-1", 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Write(ctx, deal))
	}
	assert.Len(t, collection.batches, 2)
	assert.Equal(t, 4, s.Inserted())

	require.NoError(t, s.Flush(ctx))
	require.Len(t, collection.batches, 3)
	assert.Len(t, collection.batches[2], 1)
	assert.Equal(t, 5, s.Inserted())

	// Nothing left to insert
	require.NoError(t, s.Flush(ctx))
	assert.Len(t, collection.batches, 3)

	document, ok := collection.batches[0][0].(Document)
	require.True(t, ok)
	assert.Equal(t, "run-1", document.RunID)
	assert.Equal(t, deal, document.RetrievableDeal)
	assert.Equal(t, model.EpochToTime(3_000_000), document.StartedAt)
	assert.Equal(t, model.EpochToTime(4_000_000), document.ExpiresAt)
}

func TestMongoDefaultBatchSize(t *testing.T) {
	s := NewMongo(&fakeCollection{}, "run-1", 0)
	assert.Equal(t, DefaultBatchSize, s.batchSize)
}

func TestMongoInsertFailure(t *testing.T) {
	s := NewMongo(&fakeCollection{err: errors.New("not primary")}, "run-1", 1)
	err := s.Write(context.Background(), deal)
	assert.ErrorContains(t, err, "failed to insert deals into mongo")
	assert.Equal(t, 0, s.Inserted())
}

func TestMongoWriteInsertsFullBatchAfterCancel(t *testing.T) {
	collection := &fakeCollection{}
	s := NewMongo(collection, "run-1", 2)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Write(ctx, deal))
	cancel()
	require.NoError(t, s.Write(ctx, deal))

	require.Len(t, collection.batches, 1)
	assert.Len(t, collection.batches[0], 2)
	assert.Equal(t, []error{nil}, collection.ctxErrs)
	assert.Equal(t, 2, s.Inserted())
}

func TestMongoFailedBatchIsNotInsertedAgain(t *testing.T) {
	collection := &fakeCollection{err: errors.New("not primary")}
	s := NewMongo(collection, "run-1", 2)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, deal))
	require.Error(t, s.Write(ctx, deal))

	collection.err = nil
	require.NoError(t, s.Flush(ctx))
	assert.Empty(t, collection.batches)
	assert.Equal(t, 0, s.Inserted())
}

type recordingSink struct {
	deals    []model.RetrievableDeal
	flushed  int
	writeErr error
	flushErr error
}

func (r *recordingSink) Write(_ context.Context, deal model.RetrievableDeal) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.deals = append(r.deals, deal)
	return nil
}

func (r *recordingSink) Flush(context.Context) error {
	r.flushed++
	return r.flushErr
}

func TestMulti(t *testing.T) {
	first := &recordingSink{flushErr: errors.New("first failed")}
	second := &recordingSink{}
	multi := Multi{first, second}

	require.NoError(t, multi.Write(context.Background(), deal))
	assert.Len(t, first.deals, 1)
	assert.Len(t, second.deals, 1)

	assert.EqualError(t, multi.Flush(context.Background()), "first failed")
	assert.Equal(t, 1, second.flushed)
}

func TestMultiPartialWrite(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{writeErr: errors.New("disk full")}

	err := Multi{first, second}.Write(context.Background(), deal)
	var partial PartialWriteError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 1, partial.Written)
	assert.EqualError(t, err, "deal written to 1 sinks only: disk full")
	assert.Len(t, first.deals, 1)
}

func TestMultiFirstSinkFails(t *testing.T) {
	first := &recordingSink{writeErr: errors.New("disk full")}
	second := &recordingSink{}

	err := Multi{first, second}.Write(context.Background(), deal)
	assert.EqualError(t, err, "disk full")
	assert.False(t, errors.As(err, &PartialWriteError{}))
	assert.Empty(t, second.deals)
}
