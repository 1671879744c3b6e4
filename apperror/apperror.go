package apperror

import (
	"errors"

	"hermannm.dev/enumnames"
)

type Kind uint8

const (
	KindDataUnavailable Kind = iota + 1
	KindDivisionUndefined
	KindValidationFailure
	KindUpstreamServiceError
)

var kindNames = enumnames.NewMap(map[Kind]string{
	KindDataUnavailable:      "DATA_UNAVAILABLE",
	KindDivisionUndefined:    "DIVISION_UNDEFINED",
	KindValidationFailure:    "VALIDATION_FAILURE",
	KindUpstreamServiceError: "UPSTREAM_SERVICE_ERROR",
})

func (kind Kind) IsValid() bool {
	return kindNames.ContainsEnumValue(kind)
}

func (kind Kind) String() string {
	return kindNames.GetNameOrFallback(kind, "UNKNOWN_ERROR")
}

func (kind Kind) MarshalJSON() ([]byte, error) {
	return kindNames.MarshalToNameJSON(kind)
}

func (kind *Kind) UnmarshalJSON(bytes []byte) error {
	return kindNames.UnmarshalFromNameJSON(bytes, kind)
}

// Error is an error with a user-facing message, classified by kind. The cause (if any) is kept
// for logging, and is not meant to be shown to users.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (err *Error) Error() string {
	if err.Cause == nil || err.Cause.Error() == err.Message {
		return err.Message
	}
	return err.Message + ": " + err.Cause.Error()
}

func (err *Error) Unwrap() error {
	return err.Cause
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(cause error, kind Kind, message string) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func DataUnavailable(cause error, message string) error {
	return Wrap(cause, KindDataUnavailable, message)
}

func Validation(message string) error {
	return New(KindValidationFailure, message)
}

// ErrRateLimited marks validation failures caused by a client sending requests too often.
var ErrRateLimited = errors.New("rate limit exceeded")

func RateLimited(message string) error {
	return Wrap(ErrRateLimited, KindValidationFailure, message)
}

func Upstream(cause error, message string) error {
	return Wrap(cause, KindUpstreamServiceError, message)
}

// KindOf returns the kind of the first apperror.Error in err's chain, or 0 if there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// Message returns the user-facing message of the first apperror.Error in err's chain.
func Message(err error) (message string, ok bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
