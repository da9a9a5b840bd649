package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

var logger = logging.Logger("fil-deal-ingester")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// A second interrupt kills the process
		<-ctx.Done()
		stop()
	}()

	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		logger.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fil-deal-ingester",
		Usage: "Select Filecoin storage deals eligible for retrieval checks",
		Commands: []*cli.Command{
			filterCommand(),
			extractCommand(),
		},
	}
}
