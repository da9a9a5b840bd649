package sink

import (
	"context"
	"time"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var logger = logging.Logger("sink")

const DefaultBatchSize = 1000

// Inserter is the part of *mongo.Collection the sink needs.
type Inserter interface {
	InsertMany(ctx context.Context, documents []interface{},
		opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

type Document struct {
	model.RetrievableDeal `bson:",inline"`
	StartedAt             time.Time `bson:"started_at"`
	ExpiresAt             time.Time `bson:"expires_at"`
	RunID                 string    `bson:"run_id"`
	CreatedAt             time.Time `bson:"created_at"`
}

// Mongo inserts deals into a collection in batches.
type Mongo struct {
	collection Inserter
	runID      string
	batchSize  int
	batch      []interface{}
	inserted   int
}

func NewMongo(collection Inserter, runID string, batchSize int) *Mongo {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Mongo{
		collection: collection,
		runID:      runID,
		batchSize:  batchSize,
		batch:      make([]interface{}, 0, batchSize),
	}
}

// ConnectMongo connects to uri and returns a sink writing to
// database.collection, plus a function that disconnects the client.
func ConnectMongo(
	ctx context.Context,
	uri string,
	database string,
	collection string,
	runID string,
	batchSize int) (*Mongo, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to mongo")
	}

	disconnect := func() {
		//nolint:errcheck
		client.Disconnect(context.Background())
	}

	return NewMongo(client.Database(database).Collection(collection), runID, batchSize), disconnect, nil
}

func (m *Mongo) Write(ctx context.Context, deal model.RetrievableDeal) error {
	m.batch = append(m.batch, Document{
		RetrievableDeal: deal,
		StartedAt:       deal.StartedAt(),
		ExpiresAt:       deal.ExpiresAt(),
		RunID:           m.runID,
		CreatedAt:       time.Now().UTC(),
	})
	if len(m.batch) < m.batchSize {
		return nil
	}

	// The deal is buffered now, so the batch is inserted even if ctx is done.
	return m.Flush(context.WithoutCancel(ctx))
}

func (m *Mongo) Flush(ctx context.Context) error {
	if len(m.batch) == 0 {
		return nil
	}

	batch := m.batch
	m.batch = make([]interface{}, 0, m.batchSize)

	// A failed batch is dropped; inserting it again could store the
	// documents that made it in before the failure twice.
	result, err := m.collection.InsertMany(ctx, batch)
	if result != nil {
		m.inserted += len(result.InsertedIDs)
	}
	if err != nil {
		logger.With("count", len(batch), "run_id", m.runID, "err", err).Warn("dropping batch after failed insert")
		return errors.Wrap(err, "failed to insert deals into mongo")
	}

	logger.With("count", len(batch), "total", m.inserted, "run_id", m.runID).
		Debug("inserted deals into mongo")
	return nil
}

// Inserted returns the number of deals stored so far.
func (m *Mongo) Inserted() int {
	return m.inserted
}
