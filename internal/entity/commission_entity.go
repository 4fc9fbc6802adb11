package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionKind string

const (
	CommissionKindCharge   CommissionKind = "charge"
	CommissionKindReversal CommissionKind = "reversal"
)

// CommissionEntry is one line of the platform commission ledger. Reversals
// carry a negative amount and reference the refund that caused them.
type CommissionEntry struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	BookingID uuid.UUID
	RefundID  *uuid.UUID
	Kind      CommissionKind
	Amount    decimal.Decimal
	Currency  string
	CreatedAt time.Time
}
