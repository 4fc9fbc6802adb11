package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReconciliationKind string

const (
	ReconciliationKindLedgerFailure       ReconciliationKind = "ledger_failure"
	ReconciliationKindNotificationFailure ReconciliationKind = "notification_failure"
	ReconciliationKindCommitFailure       ReconciliationKind = "commit_failure"
	// The provider replayed an earlier attempt for the key with a different amount.
	ReconciliationKindAmountMismatch ReconciliationKind = "amount_mismatch"
)

// ReconciliationItem records a side effect that failed after the gateway
// already moved money. These are never rolled back, only resolved by hand.
type ReconciliationItem struct {
	ID        uuid.UUID
	Kind      ReconciliationKind
	BookingID uuid.UUID
	PaymentID *uuid.UUID
	RefundID  *uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	Error     string
	Resolved  bool
	CreatedAt time.Time
}
