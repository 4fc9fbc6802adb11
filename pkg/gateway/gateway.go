package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RefundRequest asks the provider to return money from a captured payment.
// IdempotencyKey must be stable across retries of the same cancellation.
type RefundRequest struct {
	IdempotencyKey string
	TransactionID  string
	Amount         decimal.Decimal
	Currency       string
	Reason         string
}

type RefundResult struct {
	RefundID      string
	TransactionID string
	// Amount is what the provider refunded under the key. A replayed key
	// answers with the first attempt's amount, which may differ from the
	// request. Zero when the provider did not report it.
	Amount decimal.Decimal
	// Settled is false when the provider accepted the refund but will confirm
	// it later by webhook.
	Settled bool
	Raw     map[string]interface{}
}

type Gateway interface {
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// Error is a provider failure. Permanent errors are definitive rejections;
// anything else may succeed on retry with the same idempotency key.
type Error struct {
	Code      string
	Message   string
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is a definitive provider rejection.
func IsPermanent(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Permanent
}

func Rejected(code, message string) *Error {
	return &Error{Code: code, Message: message, Permanent: true}
}

func Transient(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
