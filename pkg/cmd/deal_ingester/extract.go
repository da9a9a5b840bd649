package main

import (
	"time"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/env"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/extract"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/pipeline"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/sink"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/source"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:   "extract",
		Usage:  "Convert a StateMarketDeals JSON snapshot into the NDJSON dump read by filter",
		Action: runExtract,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Snapshot file, URL or - for stdin; .zst is decompressed",
				Value:   env.GetString(env.ExtractInput, "https://marketdeals.s3.amazonaws.com/StateMarketDeals.json.zst"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "NDJSON file or - for stdout; .zst is compressed",
				Value:   env.GetString(env.ExtractOutput, "generated/StateMarketDeals.ndjson"),
			},
			&cli.BoolFlag{
				Name:  "envelope",
				Usage: "The snapshot is a JSON-RPC response with the deals under \"result\"",
				Value: env.GetBool(env.ExtractEnvelope, false),
			},
			&cli.BoolFlag{
				Name:  "active-only",
				Usage: "Skip deals that were never sealed or have been slashed",
				Value: env.GetBool(env.ExtractActiveOnly, false),
			},
		},
	}
}

func runExtract(c *cli.Context) error {
	ctx := c.Context
	started := time.Now()

	input, err := source.Open(ctx, c.String("input"))
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer input.Close()

	output, err := sink.OpenFile(c.String("output"))
	if err != nil {
		return err
	}

	result, err := extract.Run(ctx, input, output, extract.Options{
		Envelope:   c.Bool("envelope"),
		ActiveOnly: c.Bool("active-only"),
	})
	closeErr := output.Close()

	switch pipeline.OutcomeOf(err) {
	case pipeline.Failed:
		return errors.Wrap(err, "failed to extract deals")
	case pipeline.Aborted:
		logger.Info("Aborted.")
	case pipeline.Completed:
	}

	logger.With("written", result.Written, "skipped", result.Skipped,
		"seconds", time.Since(started).Seconds(), "output", c.String("output")).
		Info("extract finished")
	return errors.Wrap(closeErr, "failed to close output")
}
