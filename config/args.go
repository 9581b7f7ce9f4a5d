package config

import (
	"fmt"
	"strconv"

	"github.com/Swind/go-raster-runner/raster"
)

// ArgumentError reports bad or missing command line input.
type ArgumentError struct {
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

// ParseProducerArgs parses "<channel-path> <input-raster-path>".
func ParseProducerArgs(args []string) (ProducerConfig, error) {
	if len(args) != 2 {
		return ProducerConfig{}, &ArgumentError{Arg: "args", Reason: fmt.Sprintf("want <channel-path> <input-raster-path>, got %d arguments", len(args))}
	}
	cfg := ProducerConfig{ChannelPath: args[0], InputPath: args[1]}
	return cfg, cfg.Validate()
}

// ParseConsumerArgs parses
// "<channel-path> <output-raster-path> <negative|slice> [low high] [workerCount]".
func ParseConsumerArgs(args []string) (ConsumerConfig, error) {
	cfg := DefaultConsumerConfig()
	if len(args) < 3 {
		return cfg, &ArgumentError{Arg: "args", Reason: "want <channel-path> <output-raster-path> <negative|slice> [low high] [workerCount]"}
	}
	cfg.ChannelPath = args[0]
	cfg.OutputPath = args[1]

	filter, err := ParseFilterArgs(args[2:])
	if err != nil {
		return cfg, err
	}
	cfg.Filter = filter.Spec
	if filter.Workers > 0 {
		cfg.Workers = filter.Workers
	}
	return cfg, cfg.Validate()
}

// FilterArgs is the result of ParseFilterArgs.
type FilterArgs struct {
	Spec    raster.FilterSpec
	Workers int // zero when not given
}

// ParseFilterArgs parses "<negative|slice> [low high] [workerCount]". Slice
// requires both thresholds.
func ParseFilterArgs(args []string) (FilterArgs, error) {
	var out FilterArgs
	if len(args) == 0 {
		return out, &ArgumentError{Arg: "mode", Reason: "is required"}
	}
	mode, err := raster.ParseFilterMode(args[0])
	if err != nil {
		return out, &ArgumentError{Arg: "mode", Reason: err.Error()}
	}
	out.Spec.Mode = mode
	rest := args[1:]

	if mode == raster.FilterSlice {
		if len(rest) < 2 {
			return out, &ArgumentError{Arg: "thresholds", Reason: "slice requires thresholdLow and thresholdHigh"}
		}
		if out.Spec.ThresholdLow, err = parseInt("thresholdLow", rest[0]); err != nil {
			return out, err
		}
		if out.Spec.ThresholdHigh, err = parseInt("thresholdHigh", rest[1]); err != nil {
			return out, err
		}
		rest = rest[2:]
	}

	switch len(rest) {
	case 0:
	case 1:
		if out.Workers, err = parseInt("workerCount", rest[0]); err != nil {
			return out, err
		}
		if out.Workers < MinWorkers || out.Workers > MaxWorkers {
			return out, &ArgumentError{Arg: "workerCount", Reason: fmt.Sprintf("%d outside [%d, %d]", out.Workers, MinWorkers, MaxWorkers)}
		}
	default:
		return out, &ArgumentError{Arg: "args", Reason: fmt.Sprintf("unexpected extra arguments %q", rest[1:])}
	}
	return out, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ArgumentError{Arg: name, Reason: fmt.Sprintf("%q is not an integer", s)}
	}
	return v, nil
}
