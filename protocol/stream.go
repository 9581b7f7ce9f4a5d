package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// initialReserve caps the buffer reserved from an untrusted header; the rest
// grows as payload bytes actually arrive.
const initialReserve = 1 << 20

// WriteFrame writes h followed by pixels. It refuses to write anything if the
// pixel count does not match the header.
func WriteFrame(w io.Writer, h Header, pixels []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if len(pixels) != h.PayloadSize() {
		return fmt.Errorf("protocol: payload is %d bytes, header declares %d", len(pixels), h.PayloadSize())
	}

	var hdr [HeaderSize]byte
	h.put(hdr[:])
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(pixels)
	return err
}

// ReadFrame reads a header and then the whole payload up to end of stream.
// The payload must be exactly PayloadSize bytes; nothing is returned until it
// has been fully buffered.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	var h Header

	var hdr [HeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, nil, &ProtocolError{Reason: ReasonShortHeader, Detail: fmt.Sprintf("got %d of %d bytes", n, HeaderSize)}
		}
		return h, nil, err
	}
	if err := h.UnmarshalBinary(hdr[:]); err != nil {
		return h, nil, err
	}
	if err := h.Validate(); err != nil {
		return h, nil, err
	}

	want := h.PayloadSize()
	var buf bytes.Buffer
	buf.Grow(min(want, initialReserve) + 1)
	// Read one byte past the declared size so trailing data is detected.
	got, err := io.Copy(&buf, io.LimitReader(r, int64(want)+1))
	if err != nil {
		return h, nil, err
	}
	if int(got) != want {
		detail := fmt.Sprintf("got %d of %d bytes", got, want)
		if int(got) > want {
			detail = fmt.Sprintf("more than the %d declared bytes", want)
		}
		return h, nil, &ProtocolError{Reason: ReasonShortPayload, Detail: detail}
	}
	return h, buf.Bytes(), nil
}
