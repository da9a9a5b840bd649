package env

type Key string

const (
	IngesterInput            Key = "INGESTER_INPUT"
	IngesterOutput           Key = "INGESTER_OUTPUT"
	IngesterProgressInterval Key = "INGESTER_PROGRESS_INTERVAL"
	IngesterMinAge           Key = "INGESTER_MIN_AGE"
	IngesterMinRemaining     Key = "INGESTER_MIN_REMAINING"
	IngesterStrictLabel      Key = "INGESTER_STRICT_LABEL"
	IngesterMongoURI         Key = "INGESTER_MONGO_URI"
	IngesterMongoDatabase    Key = "INGESTER_MONGO_DATABASE"
	IngesterMongoCollection  Key = "INGESTER_MONGO_COLLECTION"
	IngesterMongoBatchSize   Key = "INGESTER_MONGO_BATCH_SIZE"

	ExtractInput      Key = "EXTRACT_INPUT"
	ExtractOutput     Key = "EXTRACT_OUTPUT"
	ExtractEnvelope   Key = "EXTRACT_ENVELOPE"
	ExtractActiveOnly Key = "EXTRACT_ACTIVE_ONLY"
)
