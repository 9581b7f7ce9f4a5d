package raster

import (
	"fmt"
	"strings"
)

// FilterMode selects the per-pixel transform.
type FilterMode int32

const (
	// FilterNegative maps v to max-v.
	FilterNegative FilterMode = iota
	// FilterSlice maps samples outside the open band (low, high) to max and
	// keeps the ones inside.
	FilterSlice
)

func (m FilterMode) String() string {
	switch m {
	case FilterNegative:
		return "negative"
	case FilterSlice:
		return "slice"
	default:
		return fmt.Sprintf("FilterMode(%d)", int32(m))
	}
}

// ParseFilterMode accepts "negative" or "slice", case-insensitively.
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(s) {
	case "negative":
		return FilterNegative, nil
	case "slice":
		return FilterSlice, nil
	default:
		return 0, fmt.Errorf("unknown filter mode %q (want negative or slice)", s)
	}
}

// FilterParamError reports thresholds that are out of range or inverted.
type FilterParamError struct {
	Low, High, Max int
	Reason         string
}

func (e *FilterParamError) Error() string {
	return fmt.Sprintf("filter parameters low=%d high=%d (max %d): %s", e.Low, e.High, e.Max, e.Reason)
}

// FilterSpec describes the transform the consumer applies to every sample.
// Thresholds are ignored by FilterNegative.
type FilterSpec struct {
	Mode          FilterMode
	ThresholdLow  int
	ThresholdHigh int
}

// Validate checks the spec against the raster's maximum sample value.
func (f FilterSpec) Validate(maxValue int) error {
	switch f.Mode {
	case FilterNegative:
		return nil
	case FilterSlice:
		perr := &FilterParamError{Low: f.ThresholdLow, High: f.ThresholdHigh, Max: maxValue}
		switch {
		case f.ThresholdLow < 0:
			perr.Reason = "low threshold is negative"
		case f.ThresholdHigh > maxValue:
			perr.Reason = "high threshold exceeds the maximum sample value"
		case f.ThresholdLow > f.ThresholdHigh:
			perr.Reason = "low threshold is greater than high threshold"
		default:
			return nil
		}
		return perr
	default:
		return fmt.Errorf("unknown filter mode %d", int32(f.Mode))
	}
}

// Table returns the lookup table mapping every input byte to its output byte.
func (f FilterSpec) Table(maxValue int) [256]byte {
	var t [256]byte
	for v := 0; v < len(t); v++ {
		t[v] = f.apply(v, maxValue)
	}
	return t
}

func (f FilterSpec) apply(v, maxValue int) byte {
	switch f.Mode {
	case FilterNegative:
		if v > maxValue {
			return 0
		}
		return byte(maxValue - v)
	case FilterSlice:
		if v <= f.ThresholdLow || v >= f.ThresholdHigh {
			return byte(maxValue)
		}
		return byte(v)
	default:
		return byte(v)
	}
}

// Apply transforms src into dst, which must have the same length.
func (f FilterSpec) Apply(dst, src []byte, maxValue int) {
	t := f.Table(maxValue)
	for i, v := range src {
		dst[i] = t[v]
	}
}
