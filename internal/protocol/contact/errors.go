package contact

import (
	"errors"
	"fmt"
)

// ErrIncomplete is wrapped by every IncompleteError. ErrEndpointIDTooLong and
// ErrEndpointIDNotUTF8 are also returned by SetEndpointID; the rest come only
// from Decode.
var (
	ErrIncomplete         = errors.New("contact: incomplete header")
	ErrBadMagic           = errors.New("contact: bad magic")
	ErrUnsupportedVersion = errors.New("contact: unsupported version")
	ErrUnknownFlagBits    = errors.New("contact: unknown flag bits")
	ErrEndpointIDNotUTF8  = errors.New("contact: endpoint id not valid UTF-8")
	ErrEndpointIDTooLong  = errors.New("contact: endpoint id too long")
)

// NeedUnknown is the IncompleteError hint when the shortfall is not yet calculable.
const NeedUnknown = -1

// IncompleteError reports that the buffer is a valid prefix of a header but
// does not contain all of it yet. Need is the exact number of missing bytes,
// or NeedUnknown.
type IncompleteError struct {
	Need int
}

func (e *IncompleteError) Error() string {
	if e.Need == NeedUnknown {
		return "contact: incomplete header (need more bytes)"
	}
	return fmt.Sprintf("contact: incomplete header (need %d more bytes)", e.Need)
}

func (e *IncompleteError) Unwrap() error {
	return ErrIncomplete
}

func incomplete(need int) error {
	return &IncompleteError{Need: need}
}

// IsIncomplete reports whether err asks the caller to supply more bytes.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// IsInvalid reports whether err is a permanent format violation.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrUnknownFlagBits) ||
		errors.Is(err, ErrEndpointIDNotUTF8)
}

// NeedOf returns the missing byte hint carried by an incomplete error.
// ok is false when err is not an incomplete error.
func NeedOf(err error) (need int, ok bool) {
	var ie *IncompleteError
	if !errors.As(err, &ie) {
		return 0, false
	}
	return ie.Need, true
}
