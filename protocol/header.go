// Package protocol moves a raster across a process boundary as a fixed
// 24-byte header followed by the raw samples, over a named rendezvous channel.
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 24

// Header precedes every payload on the wire: six little-endian int32 values
// in field order.
type Header struct {
	Width          int32
	Height         int32
	MaxSampleValue int32
	FilterMode     int32
	ThresholdLow   int32
	ThresholdHigh  int32
}

// MarshalBinary encodes h in its fixed layout.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.put(buf)
	return buf, nil
}

func (h Header) put(buf []byte) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(h.Width))
	le.PutUint32(buf[4:], uint32(h.Height))
	le.PutUint32(buf[8:], uint32(h.MaxSampleValue))
	le.PutUint32(buf[12:], uint32(h.FilterMode))
	le.PutUint32(buf[16:], uint32(h.ThresholdLow))
	le.PutUint32(buf[20:], uint32(h.ThresholdHigh))
}

// UnmarshalBinary decodes exactly HeaderSize bytes.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return &ProtocolError{Reason: ReasonShortHeader, Detail: fmt.Sprintf("got %d of %d bytes", len(data), HeaderSize)}
	}
	le := binary.LittleEndian
	h.Width = int32(le.Uint32(data[0:]))
	h.Height = int32(le.Uint32(data[4:]))
	h.MaxSampleValue = int32(le.Uint32(data[8:]))
	h.FilterMode = int32(le.Uint32(data[12:]))
	h.ThresholdLow = int32(le.Uint32(data[16:]))
	h.ThresholdHigh = int32(le.Uint32(data[20:]))
	return nil
}

// Validate rejects headers whose payload size cannot be computed.
func (h Header) Validate() error {
	if h.Width < 0 || h.Height < 0 {
		return &ProtocolError{Reason: ReasonInvalidHeader, Detail: fmt.Sprintf("negative dimensions %dx%d", h.Width, h.Height)}
	}
	if int64(h.Width)*int64(h.Height) > math.MaxInt32 {
		return &ProtocolError{Reason: ReasonInvalidHeader, Detail: fmt.Sprintf("dimensions %dx%d too large", h.Width, h.Height)}
	}
	return nil
}

// PayloadSize returns width*height, the exact number of payload bytes.
func (h Header) PayloadSize() int {
	return int(h.Width) * int(h.Height)
}
