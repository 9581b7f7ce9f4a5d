package orchestrator

import (
	"context"

	"github.com/Swind/go-raster-runner/config"
	"github.com/Swind/go-raster-runner/core"
	"github.com/Swind/go-raster-runner/protocol"
	"github.com/Swind/go-raster-runner/raster"
)

// Produce is the producer execution context: it loads the input raster and
// streams it through the channel. It blocks until a consumer opens the channel.
func Produce(ctx context.Context, cfg config.ProducerConfig, opts Options) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts = opts.withDefaults()

	img, err := raster.LoadPGM(cfg.InputPath)
	if err != nil {
		return err
	}
	return Stream(ctx, cfg.ChannelPath, img, opts)
}

// Stream sends img through the channel at path. The header's filter fields
// are zeroed; choosing the filter is the consumer's job.
func Stream(ctx context.Context, path string, img *raster.Image, opts Options) error {
	opts = opts.withDefaults()
	if err := img.Validate(); err != nil {
		return err
	}

	h := protocol.Header{
		Width:          int32(img.Width),
		Height:         int32(img.Height),
		MaxSampleValue: int32(img.MaxValue),
	}

	opts.Logger.Info("waiting for consumer", core.F("channel", path),
		core.F("width", img.Width), core.F("height", img.Height))
	if err := protocol.Send(ctx, path, h, img.Pixels); err != nil {
		return err
	}
	opts.Logger.Info("raster sent", core.F("channel", path), core.F("bytes", protocol.HeaderSize+len(img.Pixels)))
	return nil
}
