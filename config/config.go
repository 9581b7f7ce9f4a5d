// Package config holds the explicit run configuration threaded from the CLI
// through the orchestrator into the worker pool and the protocol calls.
package config

import (
	"fmt"

	"github.com/Swind/go-raster-runner/raster"
)

const (
	// DefaultWorkers is the worker count used when none is given.
	DefaultWorkers = 4
	// MinWorkers and MaxWorkers bound the accepted worker count.
	MinWorkers = 1
	MaxWorkers = 32
)

// ProducerConfig configures the context that reads a raster and streams it.
type ProducerConfig struct {
	ChannelPath string
	InputPath   string
}

// Validate checks that both paths are set.
func (c ProducerConfig) Validate() error {
	if c.ChannelPath == "" {
		return &ArgumentError{Arg: "channel-path", Reason: "is required"}
	}
	if c.InputPath == "" {
		return &ArgumentError{Arg: "input-raster-path", Reason: "is required"}
	}
	return nil
}

// ConsumerConfig configures the context that receives, filters and writes a raster.
type ConsumerConfig struct {
	ChannelPath string
	OutputPath  string
	Filter      raster.FilterSpec
	Workers     int

	// QueueCapacity bounds the row task queue; zero sizes it to never stall.
	QueueCapacity int
}

// DefaultConsumerConfig returns a config with the default worker count and a
// negative filter.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Filter:  raster.FilterSpec{Mode: raster.FilterNegative},
		Workers: DefaultWorkers,
	}
}

// Validate checks everything that can be checked without the raster. The
// filter thresholds are validated against the raster's maximum sample value
// once the header has been received.
func (c ConsumerConfig) Validate() error {
	if c.ChannelPath == "" {
		return &ArgumentError{Arg: "channel-path", Reason: "is required"}
	}
	if c.OutputPath == "" {
		return &ArgumentError{Arg: "output-raster-path", Reason: "is required"}
	}
	if c.Workers < MinWorkers || c.Workers > MaxWorkers {
		return &ArgumentError{Arg: "workerCount", Reason: fmt.Sprintf("%d outside [%d, %d]", c.Workers, MinWorkers, MaxWorkers)}
	}
	if c.QueueCapacity < 0 {
		return &ArgumentError{Arg: "queue-capacity", Reason: "must not be negative"}
	}
	if c.Filter.Mode == raster.FilterSlice {
		// Upper bound is checked against the raster's max value later.
		if err := c.Filter.Validate(raster.MaxSampleLimit); err != nil {
			return err
		}
	}
	return nil
}

// RunConfig is the orchestrator's view: one producer and one consumer sharing
// a channel.
type RunConfig struct {
	Producer ProducerConfig
	Consumer ConsumerConfig
}

// Validate checks both halves and that they name the same channel.
func (c RunConfig) Validate() error {
	if err := c.Producer.Validate(); err != nil {
		return err
	}
	if err := c.Consumer.Validate(); err != nil {
		return err
	}
	if c.Producer.ChannelPath != c.Consumer.ChannelPath {
		return &ArgumentError{Arg: "channel-path", Reason: "producer and consumer must share one channel"}
	}
	return nil
}
