package domain

import (
	"errors"
	"fmt"
)

// ErrMessageIgnored marks inbound traffic that is not meant for this service:
// malformed JSON, a missing messageType or body, or an unrecognized messageType.
var ErrMessageIgnored = errors.New("message ignored")

// ErrStepsAlreadyAdded is returned when route steps are added to a mission twice.
var ErrStepsAlreadyAdded = errors.New("mission steps already added")

// RejectionError reports a CreateMissionCommand body that failed validation.
type RejectionError struct {
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mission rejected: %s: %v", e.Reason, e.Err)
	}
	return "mission rejected: " + e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}
