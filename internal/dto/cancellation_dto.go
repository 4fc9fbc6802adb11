package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Guest-Side Cancellation ---

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
	Notes  string `json:"notes" validate:"max=2000"`
	// Override is honoured for admins only.
	Override bool `json:"override"`
}

type RefundBreakdown struct {
	Currency          string    `json:"currency"`
	OriginalAmount    string    `json:"original_amount"`
	RefundableAmount  string    `json:"refundable_amount"`
	CancellationFee   string    `json:"cancellation_fee"`
	ProcessingFee     string    `json:"processing_fee"`
	FinalRefundAmount string    `json:"final_refund_amount"`
	IsEligible        bool      `json:"is_eligible"`
	Reason            string    `json:"reason"`
	Tier              string    `json:"tier"`
	HoursUntilCheckIn int64     `json:"hours_until_checkin"`
	Deadline          time.Time `json:"deadline"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

type CancellationResponse struct {
	BookingId     uuid.UUID       `json:"booking_id"`
	Route         string          `json:"route"`
	Status        string          `json:"status"`
	RefundId      *uuid.UUID      `json:"refund_id,omitempty"`
	TransactionId string          `json:"transaction_id,omitempty"`
	RequestId     *uuid.UUID      `json:"request_id,omitempty"`
	RefundAmount  string          `json:"refund_amount"`
	Message       string          `json:"message"`
	Breakdown     RefundBreakdown `json:"breakdown"`
}

type RefundQuoteResponse struct {
	BookingId uuid.UUID       `json:"booking_id"`
	Route     string          `json:"route"`
	Breakdown RefundBreakdown `json:"breakdown"`
}

// --- Guest Notifications ---

const (
	NotificationRefundCompleted     = "refund_completed"
	NotificationRefundPendingReview = "refund_pending_review"
	NotificationRefundRejected      = "refund_rejected"
)

// NotificationMessage is the payload carried on the notification topic.
type NotificationMessage struct {
	Kind               string    `json:"kind"`
	BookingId          uuid.UUID `json:"booking_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	GuestEmail         string    `json:"guest_email"`
	GuestName          string    `json:"guest_name"`
	Amount             string    `json:"amount"`
	Currency           string    `json:"currency"`
	Reason             string    `json:"reason"`
	Reference          string    `json:"reference"`
	CreatedAt          time.Time `json:"created_at"`
}
