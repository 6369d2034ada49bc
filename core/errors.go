package core

import "github.com/pkg/errors"

var (
	// ErrStoreUnavailable is matched by every error coming out of a failing user or plant store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDeliveryFailed is matched by every error coming out of a failing EmailService.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// StoreError reports a failed call to a data store.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (err *StoreError) Error() string {
	return err.Op + ": " + ErrStoreUnavailable.Error() + ": " + err.Err.Error()
}

func (err *StoreError) Unwrap() error { return err.Err }

func (err *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// DeliveryError reports a message that could not be handed to the mail provider.
type DeliveryError struct {
	To  string
	Err error
}

func NewDeliveryError(to string, err error) error {
	if err == nil {
		return nil
	}
	return &DeliveryError{To: to, Err: err}
}

func (err *DeliveryError) Error() string {
	return "sending to " + err.To + ": " + ErrDeliveryFailed.Error() + ": " + err.Err.Error()
}

func (err *DeliveryError) Unwrap() error { return err.Err }

func (err *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
