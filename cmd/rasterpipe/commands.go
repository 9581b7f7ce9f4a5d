package main

import (
	"github.com/Swind/go-raster-runner/config"
	"github.com/Swind/go-raster-runner/orchestrator"
	"github.com/urfave/cli/v2"
)

func produceCommand() *cli.Command {
	return &cli.Command{
		Name:      "produce",
		Usage:     "read a P5 raster and stream it into the channel",
		ArgsUsage: "<channel-path> <input-raster-path>",
		Action:    produceAction,
	}
}

func produceAction(c *cli.Context) error {
	// 1. Parse positional arguments
	cfg, err := config.ParseProducerArgs(c.Args().Slice())
	if err != nil {
		return fail(err)
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	// 2. Stream
	return fail(orchestrator.Produce(c.Context, cfg, orchestrator.Options{Logger: logger}))
}

func consumeCommand() *cli.Command {
	return &cli.Command{
		Name:      "consume",
		Usage:     "receive a raster from the channel, filter it and write it as P5",
		ArgsUsage: "<channel-path> <output-raster-path> <negative|slice> [thresholdLow thresholdHigh] [workerCount]",
		Flags:     metricsFlags(),
		Action:    consumeAction,
	}
}

func consumeAction(c *cli.Context) error {
	// 1. Parse positional arguments
	cfg, err := config.ParseConsumerArgs(c.Args().Slice())
	if err != nil {
		return fail(err)
	}
	cfg.QueueCapacity = c.Int("queue-capacity")
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	// 2. Observability
	o, opts, err := setupObservability(c.Context, c, logger)
	if err != nil {
		return fail(err)
	}
	defer o.finish()

	// 3. Receive, filter, write
	_, err = orchestrator.Consume(c.Context, cfg, opts)
	return fail(err)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "create the channel, run producer and consumer together and clean up",
		ArgsUsage: "<channel-path> <input-raster-path> <output-raster-path> <negative|slice> [thresholdLow thresholdHigh] [workerCount]",
		Flags:     metricsFlags(),
		Action:    runAction,
	}
}

func runAction(c *cli.Context) error {
	// 1. Parse positional arguments
	args := c.Args().Slice()
	if len(args) < 4 {
		return fail(&config.ArgumentError{Arg: "args", Reason: "want <channel-path> <input-raster-path> <output-raster-path> <negative|slice> [low high] [workerCount]"})
	}
	producer, err := config.ParseProducerArgs(args[:2])
	if err != nil {
		return fail(err)
	}
	consumer, err := config.ParseConsumerArgs(append([]string{args[0]}, args[2:]...))
	if err != nil {
		return fail(err)
	}
	consumer.QueueCapacity = c.Int("queue-capacity")
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	// 2. Observability
	o, opts, err := setupObservability(c.Context, c, logger)
	if err != nil {
		return fail(err)
	}
	defer o.finish()

	// 3. Orchestrate both contexts
	run := orchestrator.New(config.RunConfig{Producer: producer, Consumer: consumer}, opts)
	return fail(run.Run(c.Context))
}
