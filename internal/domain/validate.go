package domain

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var draftFieldErrors = map[string]error{
	"SenderID":       ErrMissingSender,
	"Body":           ErrMissingBody,
	"ConversationID": ErrMissingRecipient,
}

// Validate rejects a draft with no sender, body or recipient. Fields are
// checked in that order so callers get a stable error.
func (d MessageDraft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.StructField()] = true
	}
	for _, field := range []string{"SenderID", "Body", "ConversationID"} {
		if failed[field] {
			return draftFieldErrors[field]
		}
	}
	return ErrInvalidInput
}
