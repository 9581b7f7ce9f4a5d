// Command rasterpipe streams a grayscale raster between two execution contexts
// over a named channel and filters it in parallel row ranges.
//
//	rasterpipe produce <channel-path> <input-raster-path>
//	rasterpipe consume <channel-path> <output-raster-path> <negative|slice> [low high] [workerCount]
//	rasterpipe run <channel-path> <input-raster-path> <output-raster-path> <negative|slice> [low high] [workerCount]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Swind/go-raster-runner/core"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second signal falls through to the default handler.
		<-ctx.Done()
		stop()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rasterpipe:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rasterpipe",
		Usage: "stream a grayscale raster over a named channel and filter it in parallel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"RASTERPIPE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "console or json",
				EnvVars: []string{"RASTERPIPE_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			produceCommand(),
			consumeCommand(),
			runCommand(),
		},
		ExitErrHandler: func(c *cli.Context, err error) {},
	}
}

// newLogger builds the logger selected by the global flags.
func newLogger(c *cli.Context) (core.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.String("log-level")))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid --log-level: %v", err), 1)
	}
	switch c.String("log-format") {
	case "json":
		return core.NewJSONLogger(os.Stderr, level), nil
	case "console", "":
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return core.NewZerologLogger(zerolog.New(w).Level(level).With().Timestamp().Logger()), nil
	default:
		return nil, cli.Exit(fmt.Sprintf("invalid --log-format %q", c.String("log-format")), 1)
	}
}

// fail converts any error into a cli exit error with status 1.
func fail(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(cli.ExitCoder); ok {
		return err
	}
	return cli.Exit(err.Error(), 1)
}
