package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundStatus represents the provider-confirmed state of a refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// IsFinal reports whether the gateway can no longer move the refund.
func (s RefundStatus) IsFinal() bool {
	return s == RefundStatusCompleted || s == RefundStatusFailed
}

type Refund struct {
	ID             uuid.UUID
	PaymentID      uuid.UUID
	BookingID      uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Status         RefundStatus
	TransactionID  string
	IdempotencyKey string
	Reason         string
	ProcessedBy    uuid.UUID
	ProcessedAt    time.Time
	Metadata       map[string]interface{}
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
