// Package errs carries the engine's user-facing error taxonomy. Remote and
// storage failures are translated into a small set of categories at the
// boundary where they occur; raw backend payloads and transport errors never
// cross into the app layer untagged.
package errs

import (
	"errors"
	"fmt"
)

type Category string

const (
	// CategoryNetwork covers transport failures and timeouts. It is the only
	// category the retry primitive treats as retryable.
	CategoryNetwork Category = "NETWORK"

	// CategoryAuthentication covers unauthorized remote responses. Cart reads
	// fall back to guest mode on it; checkout surfaces it.
	CategoryAuthentication Category = "AUTHENTICATION"

	// CategoryValidation covers backend field-level rejections.
	CategoryValidation Category = "VALIDATION"

	// CategoryPayment covers declined or failed payment operations.
	CategoryPayment Category = "PAYMENT"

	// CategoryServer covers remote 5xx and malformed-response failures.
	CategoryServer Category = "SERVER"

	// CategoryStorage covers local persistence failures. These are recovered
	// locally (empty store) and normally never reach the user.
	CategoryStorage Category = "STORAGE"
)

// Error tags an underlying failure with a category and, for validation
// failures, the backend's field-level detail.
type Error struct {
	Category Category
	Message  string
	Fields   map[string]string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(cat Category, message string) *Error {
	return &Error{Category: cat, Message: message}
}

func Wrap(err error, cat Category, message string) *Error {
	return &Error{Category: cat, Message: message, Err: err}
}

// Validation builds a validation error carrying field detail so address
// forms can re-prompt on the offending fields.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Category: CategoryValidation, Message: message, Fields: fields}
}

// Is reports whether err carries the given category anywhere in its chain.
func Is(err error, cat Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == cat
	}
	return false
}

// CategoryOf returns the category of err, or CategoryServer when err carries
// no tag. Untagged errors reaching the user boundary are a bug; mapping them
// to SERVER keeps the message generic rather than leaking internals.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryServer
}

// FieldsOf returns the field-level detail of a validation error, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Retryable reports whether another attempt at err could plausibly
// succeed: transport failures and server-side errors. Every other
// category is deterministic and retrying would only repeat the rejection.
func Retryable(err error) bool {
	switch CategoryOf(err) {
	case CategoryNetwork, CategoryServer:
		return true
	}
	return false
}

// UserMessage translates an error into the short user-facing sentence for
// its category.
func UserMessage(err error) string {
	switch CategoryOf(err) {
	case CategoryNetwork:
		return "Unable to reach the store. Check your connection and try again."
	case CategoryAuthentication:
		return "Your session has expired. Sign in again to continue."
	case CategoryValidation:
		return "Some information is missing or incorrect. Review the details and try again."
	case CategoryPayment:
		return "Payment could not be completed. Check your payment details or use a different method."
	case CategoryStorage:
		return "Could not access saved data on this device."
	default:
		return "The store is having trouble right now. Try again in a moment."
	}
}
