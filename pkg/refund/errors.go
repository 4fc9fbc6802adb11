package refund

import (
	"errors"
	"fmt"
)

// ErrorKind classifies settlement failures for callers and HTTP mapping.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindAlreadyCancelled    ErrorKind = "already_cancelled"
	KindInvalidState        ErrorKind = "invalid_state"
	KindNotEligible         ErrorKind = "not_eligible"
	KindNoCompletedPayment  ErrorKind = "no_completed_payment"
	KindGatewayFailure      ErrorKind = "gateway_failure"
	KindGatewayRejected     ErrorKind = "gateway_rejected"
	KindLedgerFailure       ErrorKind = "ledger_failure"
	KindNotificationFailure ErrorKind = "notification_failure"

	KindRequestNotFound         ErrorKind = "request_not_found"
	KindRequestAlreadyProcessed ErrorKind = "request_already_processed"
	KindInvalidAmount           ErrorKind = "invalid_amount"
	KindInternal                ErrorKind = "internal"
)

// SettlementError carries the kind plus whatever context the caller needs to
// render a message: the calculator's reason and, when one was computed, the
// calculation itself.
type SettlementError struct {
	Kind        ErrorKind
	Message     string
	Reason      string
	Calculation *Calculation
	Err         error
}

func (e *SettlementError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so the sentinels below work with errors.Is.
func (e *SettlementError) Is(target error) bool {
	t, ok := target.(*SettlementError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound                = &SettlementError{Kind: KindNotFound}
	ErrAlreadyCancelled        = &SettlementError{Kind: KindAlreadyCancelled}
	ErrInvalidState            = &SettlementError{Kind: KindInvalidState}
	ErrNotEligible             = &SettlementError{Kind: KindNotEligible}
	ErrNoCompletedPayment      = &SettlementError{Kind: KindNoCompletedPayment}
	ErrGatewayFailure          = &SettlementError{Kind: KindGatewayFailure}
	ErrGatewayRejected         = &SettlementError{Kind: KindGatewayRejected}
	ErrLedgerFailure           = &SettlementError{Kind: KindLedgerFailure}
	ErrNotificationFailure     = &SettlementError{Kind: KindNotificationFailure}
	ErrRequestNotFound         = &SettlementError{Kind: KindRequestNotFound}
	ErrRequestAlreadyProcessed = &SettlementError{Kind: KindRequestAlreadyProcessed}
	ErrInvalidAmount           = &SettlementError{Kind: KindInvalidAmount}
)

func NewError(kind ErrorKind, message string) *SettlementError {
	return &SettlementError{Kind: kind, Message: message}
}

// WrapError attaches a cause to a new error of the given kind.
func WrapError(kind ErrorKind, message string, err error) *SettlementError {
	return &SettlementError{Kind: kind, Message: message, Err: err}
}

// NotEligibleError rejects a cancellation with the calculator's reason.
func NotEligibleError(calc Calculation) *SettlementError {
	return &SettlementError{
		Kind:        KindNotEligible,
		Message:     "booking is not eligible for a refund",
		Reason:      calc.Reason,
		Calculation: &calc,
	}
}

// KindOf returns the kind of a settlement error, or KindInternal for any
// other error.
func KindOf(err error) ErrorKind {
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may safely repeat the whole
// operation. Only transient gateway failures qualify.
func IsRetryable(err error) bool {
	return KindOf(err) == KindGatewayFailure
}
