package rasterrunner

import (
	"context"

	"github.com/Swind/go-raster-runner/core"
	"github.com/Swind/go-raster-runner/raster"
)

// ProcessRaster applies filter to every sample of img using pool and returns
// a new image. The input is only read; each row task writes its own rows of
// the output, so no locking is needed on the pixel data.
//
// The filter is validated before any task is scheduled.
func ProcessRaster(ctx context.Context, pool *GoroutineWorkerPool, img *raster.Image, filter raster.FilterSpec) (*raster.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := filter.Validate(img.MaxValue); err != nil {
		return nil, err
	}

	out, err := raster.New(img.Width, img.Height, img.MaxValue)
	if err != nil {
		return nil, err
	}
	table := filter.Table(img.MaxValue)

	err = pool.Run(ctx, img.Height, func(ctx context.Context, task core.RowTask) error {
		src := img.Rows(task.Start, task.End)
		dst := out.Rows(task.Start, task.End)
		for i, v := range src {
			dst[i] = table[v]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
