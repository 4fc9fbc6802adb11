package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRequestStatus represents the status of a manual review request
type RefundRequestStatus string

const (
	RefundRequestStatusPending   RefundRequestStatus = "pending"
	RefundRequestStatusApproved  RefundRequestStatus = "approved"
	RefundRequestStatusRejected  RefundRequestStatus = "rejected"
	RefundRequestStatusCompleted RefundRequestStatus = "completed"
)

// RefundRequest is a cancellation parked for operator review. Approved is a
// transient state held while the approved amount is being settled.
type RefundRequest struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	PaymentID       *uuid.UUID
	RequestedBy     uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Reason          string
	Notes           string
	Status          RefundRequestStatus
	Calculation     map[string]interface{}
	ApprovedBy      *uuid.UUID
	ApprovedAmount  *decimal.Decimal
	RejectionReason string
	RefundID        *uuid.UUID
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *RefundRequest) IsPending() bool {
	return r.Status == RefundRequestStatusPending
}
