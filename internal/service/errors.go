package service

import "errors"

var (
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrMissingTable           = errors.New("table is required to checkout")
	ErrUnknownTable           = errors.New("table does not exist")
	ErrInvalidTable           = errors.New("table id must not be blank")
	ErrCheckoutInProgress     = errors.New("checkout already in progress")
	ErrSubmissionFailed       = errors.New("order submission failed")
	ErrPersistenceUnavailable = errors.New("cart persistence unavailable")
	ErrInvalidTerminal        = errors.New("invalid terminal id")
	ErrQuantityLimit          = errors.New("line quantity limit exceeded")
	ErrTooManyTerminals       = errors.New("too many open terminals")
)

// SubmissionError carries a message that is safe to show to staff. The
// underlying transport error stays reachable through errors.Is/As only.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	return ErrSubmissionFailed.Error() + ": " + e.Reason
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmissionFailed}
	}
	return []error{ErrSubmissionFailed, e.Err}
}
