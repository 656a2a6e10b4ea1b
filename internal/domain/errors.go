package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrDispatchFailed     = errors.New("event dispatch failed")
	ErrInvalidInput       = errors.New("invalid input")
)

var (
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("message notification %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)

	ErrMissingSender    = fmt.Errorf("%w: message sender has not been set", ErrPreconditionFailed)
	ErrMissingBody      = fmt.Errorf("%w: message body has not been set", ErrPreconditionFailed)
	ErrMissingRecipient = fmt.Errorf("%w: message receiver has not been set", ErrPreconditionFailed)
	ErrNotParticipant   = fmt.Errorf("%w: user not participant", ErrPreconditionFailed)
)

// DispatchError reports a message that was committed but whose events
// could not be handed to the dispatcher. The send itself is not rolled back.
type DispatchError struct {
	MessageID int64
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("message %d sent, dispatch failed: %v", e.MessageID, e.Err)
}

func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchFailed, e.Err}
}
