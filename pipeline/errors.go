package pipeline

import (
	"errors"
	"fmt"

	"github.com/verbano/lingua-service/gateway"
)

// Kind classifies a turn failure for the presentation layer.
type Kind int

const (
	// KindInputInvalid rejects a turn before any call is made.
	KindInputInvalid Kind = iota
	// KindGatewayFailure marks a translation/completion/synthesis/
	// transcription failure; the turn aborts at the failing step.
	KindGatewayFailure
	// KindPersistenceFailure marks a rejected store write.
	KindPersistenceFailure
	// KindDeviceFailure marks an audio device that could not be acquired or
	// is not configured.
	KindDeviceFailure
	// KindSessionExpired marks a rejected credential; global, never retried.
	KindSessionExpired
)

func (k Kind) String() string {
	switch k {
	case KindInputInvalid:
		return "input invalid"
	case KindGatewayFailure:
		return "gateway failure"
	case KindPersistenceFailure:
		return "persistence failure"
	case KindDeviceFailure:
		return "device failure"
	case KindSessionExpired:
		return "session expired"
	default:
		return "unknown"
	}
}

// Error is a classified turn failure. Prior durable state is always intact
// when one of these is returned.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func inputInvalid(op string, err error) *Error {
	return &Error{Kind: KindInputInvalid, Op: op, Err: err}
}

// classify wraps a gateway or store error, promoting expired sessions to
// their own kind.
func classify(kind Kind, op string, err error) *Error {
	if errors.Is(err, gateway.ErrSessionExpired) {
		kind = KindSessionExpired
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from an error returned by the pipeline.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
