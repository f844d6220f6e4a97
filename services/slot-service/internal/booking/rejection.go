package booking

import (
	"errors"
	"fmt"
)

// RejectionKind names an expected business outcome that the caller shows to its user.
type RejectionKind string

const (
	TooFarAhead     RejectionKind = "too_far_ahead"
	PartyTooLarge   RejectionKind = "party_too_large"
	SlotUnavailable RejectionKind = "slot_unavailable"
)

// Rejection is returned as an error so it travels through the usual (value, error) results,
// but it is never a failure of the system itself.
type Rejection struct {
	Kind    RejectionKind
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("booking rejected (%s): %s", r.Kind, r.Message)
}

func reject(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsRejection reports whether err is a rejection of the given kind.
func IsRejection(err error, kind RejectionKind) bool {
	r, ok := AsRejection(err)
	return ok && r.Kind == kind
}
