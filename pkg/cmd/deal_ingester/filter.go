package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/eligibility"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/env"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/pipeline"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/sink"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/source"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/stats"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:   "filter",
		Usage:  "Write the deals eligible for retrieval checks from a StateMarketDeals NDJSON dump",
		Action: runFilter,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "NDJSON file, URL or - for stdin; .zst is decompressed",
				Value:   env.GetString(env.IngesterInput, "generated/StateMarketDeals.ndjson"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "NDJSON file or - for stdout; .zst is compressed",
				Value:   env.GetString(env.IngesterOutput, "generated/retrievable-deals.ndjson"),
			},
			&cli.Uint64Flag{
				Name:  "progress-interval",
				Usage: "Log progress every this many deals, 0 to disable",
				Value: env.GetUint64(env.IngesterProgressInterval, 1_000_000),
			},
			&cli.DurationFlag{
				Name:  "min-age",
				Usage: "Skip deals that started less than this long ago",
				Value: env.GetDuration(env.IngesterMinAge, eligibility.DefaultMargin),
			},
			&cli.DurationFlag{
				Name:  "min-remaining",
				Usage: "Skip deals that expire sooner than this",
				Value: env.GetDuration(env.IngesterMinRemaining, eligibility.DefaultMargin),
			},
			&cli.BoolFlag{
				Name:  "strict-label",
				Usage: "Also skip deals whose label does not decode as a CID",
				Value: env.GetBool(env.IngesterStrictLabel, false),
			},
			&cli.StringFlag{
				Name:  "mongo-uri",
				Usage: "Also insert eligible deals into MongoDB",
				Value: env.GetString(env.IngesterMongoURI, ""),
			},
			&cli.StringFlag{
				Name:  "mongo-database",
				Value: env.GetString(env.IngesterMongoDatabase, "fil_deal_ingester"),
			},
			&cli.StringFlag{
				Name:  "mongo-collection",
				Value: env.GetString(env.IngesterMongoCollection, "retrievable_deals"),
			},
			&cli.IntFlag{
				Name:  "mongo-batch-size",
				Value: env.GetInt(env.IngesterMongoBatchSize, sink.DefaultBatchSize),
			},
		},
	}
}

func runFilter(c *cli.Context) error {
	ctx := c.Context
	runID := uuid.New().String()
	started := time.Now()

	input, err := source.Open(ctx, c.String("input"))
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer input.Close()

	output, err := sink.Create(c.String("output"))
	if err != nil {
		return err
	}

	sinks := sink.Multi{output}
	var mongoSink *sink.Mongo
	if uri := c.String("mongo-uri"); uri != "" {
		var disconnect func()
		mongoSink, disconnect, err = sink.ConnectMongo(ctx, uri,
			c.String("mongo-database"), c.String("mongo-collection"), runID, c.Int("mongo-batch-size"))
		if err != nil {
			//nolint:errcheck
			output.Close()
			return err
		}

		defer disconnect()
		sinks = append(sinks, mongoSink)
	}

	filter := eligibility.New(
		eligibility.WithMinAge(c.Duration("min-age")),
		eligibility.WithMinRemaining(c.Duration("min-remaining")),
		eligibility.WithStrictLabel(c.Bool("strict-label")))
	st := stats.New()

	logger.With("run_id", runID, "input", c.String("input")).Info("parsing all verified deals")
	err = pipeline.New(input, filter, sinks, st,
		pipeline.WithProgress(c.Uint64("progress-interval"), func(total uint64, at time.Time) {
			logger.With("run_id", runID, "total", total, "at", at.UTC().Format(time.RFC3339)).
				Info("processed deals")
		})).Run(ctx)
	closeErr := output.Close()

	outcome := pipeline.OutcomeOf(err)
	switch outcome {
	case pipeline.Failed:
		logger.With("run_id", runID, "total", st.Total(), "kind", pipeline.FailureKind(err)).
			Error("failed to filter deals")
		return err
	case pipeline.Aborted:
		logger.With("run_id", runID).Info("Aborted.")
	case pipeline.Completed:
	}

	report(runID, st.Snapshot(), time.Since(started), c.String("output"), output.Lines(), mongoSink)
	return errors.Wrap(closeErr, "failed to close output")
}

func report(
	runID string,
	snapshot stats.Snapshot,
	elapsed time.Duration,
	location string,
	lines uint64,
	mongoSink *sink.Mongo) {
	log := logger.With("run_id", runID)
	log.Infof("Finished after %.3f seconds", elapsed.Seconds())
	log.With("total", snapshot.Total, "accepted", snapshot.Accepted, "ratio", formatRatio(snapshot.Ratio)).
		Info("deal statistics")

	reasons := make([]string, 0, len(snapshot.Excluded))
	for reason := range snapshot.Excluded {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		log.With("reason", reason, "count", snapshot.Excluded[reason]).Info("excluded deals")
	}

	log.With("lines", lines).Infof("Retrievable deals were written to %s", location)
	if mongoSink != nil {
		log.With("inserted", mongoSink.Inserted()).Info("Retrievable deals were inserted into mongo")
	}
	if lines != snapshot.Accepted {
		log.With("lines", lines, "accepted", snapshot.Accepted).Warn("output does not match accepted deals")
	}
}

func formatRatio(ratio float64) string {
	if ratio == stats.RatioUndefined {
		return "--"
	}

	return fmt.Sprintf("%.2f%%", ratio)
}
