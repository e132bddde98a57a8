package services

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map each one to an HTTP status with errors.Is.
var (
	ErrNotFound = errors.New("not found")

	ErrInvalidParticipants = errors.New("requester and partner must be different users")
	ErrRoleMismatch        = errors.New("skill assertions do not match the requested roles")
	ErrLocationRequired    = errors.New("location is required for in-person exchanges")
	ErrScheduleInPast      = errors.New("scheduled time is in the past")
	ErrInvalidDuration     = errors.New("duration is outside the allowed range")
	ErrDuplicateExchange   = errors.New("an open exchange already exists for this pair and skill")

	ErrNotAuthorized     = errors.New("not authorized for this exchange")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrNotParticipant  = errors.New("reviewer is not a participant of this exchange")
	ErrNotCompleted    = errors.New("exchange is not completed")
	ErrDuplicateReview = errors.New("review already submitted for this exchange")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")

	ErrInvalidStatusFilter = errors.New("invalid status filter")
	ErrInvalidSkillName    = errors.New("skill name must contain letters or digits")
	ErrSkillExists         = errors.New("skill already exists")
	ErrInvalidLevel        = errors.New("invalid skill level")
)

// DuplicateExchangeError carries the open exchange the caller should be
// redirected to. ExistingID is empty when the store could not name it.
type DuplicateExchangeError struct {
	ExistingID string
}

func (e *DuplicateExchangeError) Error() string {
	if e.ExistingID == "" {
		return ErrDuplicateExchange.Error()
	}
	return fmt.Sprintf("%s (existing exchange %s)", ErrDuplicateExchange, e.ExistingID)
}

func (e *DuplicateExchangeError) Unwrap() error {
	return ErrDuplicateExchange
}
