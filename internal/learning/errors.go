package learning

import (
	"errors"

	"github.com/example/spanishbot/internal/api"
)

var (
	// ErrNotRegistered is returned by main-view actions before registration
	ErrNotRegistered = errors.New("no user registered in this session")
	// ErrAlreadyRegistered is returned when registering twice in one session
	ErrAlreadyRegistered = errors.New("user already registered in this session")
	// ErrBusy is returned when the same action is already in flight
	ErrBusy = errors.New("action already in progress")
	// ErrEmptyVocabulary is returned when a quiz is started without words
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	// ErrNoQuestion is returned when answering before a question was shown
	ErrNoQuestion = errors.New("no question to answer")
)

// ValidationError is a local input check that failed before any request was made
type ValidationError struct {
	Action  Action
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a local validation failure
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Message returns the text a front-end should display for err.
// Validation errors show their own text, backend errors the backend detail,
// anything else the generic message of the action.
func Message(action Action, err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	if detail := api.Detail(err); detail != "" {
		return detail
	}
	if msg, ok := failureMessages[action]; ok {
		return msg
	}
	return err.Error()
}
