package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Admin-Side Review Queue ---

type AdminRefundRequestListResponse struct {
	Id          uuid.UUID  `json:"id"`
	BookingId   uuid.UUID  `json:"booking_id"`
	PaymentId   *uuid.UUID `json:"payment_id,omitempty"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AdminRefundRequestDetailResponse struct {
	AdminRefundRequestListResponse
	Notes           string                 `json:"notes,omitempty"`
	Calculation     map[string]interface{} `json:"calculation"`
	ApprovedBy      *uuid.UUID             `json:"approved_by,omitempty"`
	ApprovedAmount  string                 `json:"approved_amount,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	RefundId        *uuid.UUID             `json:"refund_id,omitempty"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty"`
}

type AdminApproveRefundRequest struct {
	// Amount defaults to the requested amount. Decimal string, e.g. "145.50".
	Amount *string `json:"amount" validate:"omitempty,numeric"`
	Notes  string  `json:"notes" validate:"max=2000"`
}

type AdminApproveRefundResponse struct {
	RequestId   uuid.UUID `json:"request_id"`
	RefundId    uuid.UUID `json:"refund_id"`
	Status      string    `json:"status"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	ProcessedAt time.Time `json:"processed_at"`
}

type AdminRejectRefundRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type AdminRejectRefundResponse struct {
	RequestId   uuid.UUID `json:"request_id"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
}

// --- Reconciliation ---

type ReconciliationItemResponse struct {
	Id        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	BookingId uuid.UUID  `json:"booking_id"`
	PaymentId *uuid.UUID `json:"payment_id,omitempty"`
	RefundId  *uuid.UUID `json:"refund_id,omitempty"`
	Amount    string     `json:"amount"`
	Currency  string     `json:"currency"`
	Error     string     `json:"error"`
	Resolved  bool       `json:"resolved"`
	CreatedAt time.Time  `json:"created_at"`
}

// --- Gateway Webhook ---

// MidtransRefundNotificationRequest is the HTTP notification Midtrans sends
// when a refund settles asynchronously.
type MidtransRefundNotificationRequest struct {
	TransactionStatus string                       `json:"transaction_status"`
	TransactionId     string                       `json:"transaction_id"`
	OrderId           string                       `json:"order_id"`
	SignatureKey      string                       `json:"signature_key"`
	StatusCode        string                       `json:"status_code"`
	GrossAmount       string                       `json:"gross_amount"`
	Refunds           []MidtransRefundNotification `json:"refunds"`
}

type MidtransRefundNotification struct {
	RefundChargebackId string `json:"refund_chargeback_id"`
	RefundAmount       string `json:"refund_amount"`
	RefundKey          string `json:"refund_key"`
	Reason             string `json:"reason"`
}

// --- Admin Desk Feed ---

// DeskMessage is pushed to connected admin desk sockets.
type DeskMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}
