package protocol

import "fmt"

// Reasons carried by ProtocolError.
const (
	ReasonShortHeader   = "short header"
	ReasonShortPayload  = "short payload"
	ReasonInvalidHeader = "invalid header"
)

// ProtocolError reports a malformed frame. It is always returned before any
// raster is constructed from the frame.
type ProtocolError struct {
	Reason string
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return "protocol: " + e.Reason
	}
	return fmt.Sprintf("protocol: %s: %s", e.Reason, e.Detail)
}

// Is matches any *ProtocolError with the same Reason, so callers can test
// errors.Is(err, &ProtocolError{Reason: ReasonShortPayload}).
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Reason == e.Reason
}
