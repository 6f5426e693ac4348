package tan

import (
	"fmt"
	"time"
)

// Challenge is the server's request for a second factor, captured when an
// order is suspended with the confirmation-required code.
type Challenge struct {
	// TransactionReference identifies the suspended order; it is echoed back
	// when the order is resumed or its decoupled status is polled.
	TransactionReference string
	Text                 string
	MediaType            string
	Media                []byte
	ValidUntil           time.Time
	TanMedium            string
	// TriggeringSegment is the type of the order segment that raised the
	// challenge, e.g. "HKCCS".
	TriggeringSegment string
	// Decoupled marks challenges confirmed on a separate device instead of
	// by entering a TAN.
	Decoupled bool
}

// RequiredError interrupts an operation that needs a second factor. It
// carries the challenge and a snapshot of the suspended dialog state so the
// caller can resume later, possibly in a different process.
type RequiredError struct {
	Challenge Challenge
	// Snapshot is an opaque serialized copy of the dialog state at suspension
	// time, produced by the dialog engine.
	Snapshot []byte
}

func (e *RequiredError) Error() string {
	if e.Challenge.Decoupled {
		return fmt.Sprintf("tan: order %q awaits decoupled confirmation: %s",
			e.Challenge.TransactionReference, e.Challenge.Text)
	}
	return fmt.Sprintf("tan: order %q requires a TAN: %s",
		e.Challenge.TransactionReference, e.Challenge.Text)
}
