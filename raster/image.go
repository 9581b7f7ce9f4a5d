// Package raster holds the grayscale raster container, its P5 file format and
// the per-pixel filters applied by the worker pool.
package raster

import (
	"fmt"
	"math"
)

// MaxSampleLimit is the largest sample value a single-byte raster can hold.
const MaxSampleLimit = 255

// MaxPixels bounds Width*Height; it matches the largest payload the wire
// header can describe.
const MaxPixels = math.MaxInt32

// Image is a row-major grayscale raster with one byte per sample.
//
// An Image is owned by exactly one execution context at a time; it is handed
// off between contexts, never mutated by two at once.
type Image struct {
	Width    int
	Height   int
	MaxValue int
	Pixels   []byte
}

// New allocates a zeroed image.
func New(width, height, maxValue int) (*Image, error) {
	img := &Image{Width: width, Height: height, MaxValue: maxValue}
	if err := img.validateShape(); err != nil {
		return nil, err
	}
	img.Pixels = make([]byte, width*height)
	return img, nil
}

// FromPixels wraps pixels without copying.
func FromPixels(width, height, maxValue int, pixels []byte) (*Image, error) {
	img := &Image{Width: width, Height: height, MaxValue: maxValue, Pixels: pixels}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks the dimensions, the sample range and the pixel count.
func (img *Image) Validate() error {
	if err := img.validateShape(); err != nil {
		return err
	}
	if len(img.Pixels) != img.Width*img.Height {
		return fmt.Errorf("raster: pixel count %d does not match %dx%d", len(img.Pixels), img.Width, img.Height)
	}
	return nil
}

func (img *Image) validateShape() error {
	if img.Width < 0 || img.Height < 0 {
		return fmt.Errorf("raster: invalid dimensions %dx%d", img.Width, img.Height)
	}
	if img.Width > 0 && img.Height > MaxPixels/img.Width {
		return fmt.Errorf("raster: dimensions %dx%d exceed %d pixels", img.Width, img.Height, MaxPixels)
	}
	if img.MaxValue < 1 || img.MaxValue > MaxSampleLimit {
		return fmt.Errorf("raster: max value %d outside [1, %d]", img.MaxValue, MaxSampleLimit)
	}
	return nil
}

// Rows returns the samples of rows [start, end) as one slice sharing the
// image's backing array.
func (img *Image) Rows(start, end int) []byte {
	return img.Pixels[start*img.Width : end*img.Width]
}

// Size returns Width*Height.
func (img *Image) Size() int { return img.Width * img.Height }
