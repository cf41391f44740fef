package retimer

import "errors"

// Domain errors for the retimer package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, retimer.ErrExhausted) {
//	    // back off or reject the attach request
//	}
var (
	// ErrExhausted is returned when the allocator cannot issue another
	// identifier. It is only possible when a capacity ceiling is configured.
	ErrExhausted = errors.New("retimer: identifier space exhausted")

	// ErrRegistrationFailed is returned when handle construction fails after
	// an identifier was acquired. The identifier is released before the error
	// is returned, so no identifier leaks on this path.
	ErrRegistrationFailed = errors.New("retimer: registration failed")

	// ErrMalformedName is returned by ParseHandleName when a name does not
	// decode to a valid identifier. During unregistration the condition is
	// absorbed and logged rather than propagated.
	ErrMalformedName = errors.New("retimer: malformed handle name")
)
