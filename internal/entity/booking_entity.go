package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a hotel booking
type BookingStatus string

const (
	BookingStatusPending                BookingStatus = "pending"
	BookingStatusConfirmed              BookingStatus = "confirmed"
	BookingStatusPaymentFailed          BookingStatus = "payment_failed"
	BookingStatusCancelled              BookingStatus = "cancelled"
	BookingStatusCancelledPendingRefund BookingStatus = "canceled-with-pending-refund"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusPaymentFailed,
		BookingStatusCancelled, BookingStatusCancelledPendingRefund:
		return true
	}
	return false
}

type Booking struct {
	ID                   uuid.UUID
	ConfirmationNumber   string
	GuestID              uuid.UUID
	GuestEmail           string
	GuestName            string
	HotelID              uuid.UUID
	Status               BookingStatus
	CheckIn              time.Time
	CheckOut             time.Time
	TotalAmount          decimal.Decimal
	Currency             string
	IsCancellable        bool
	CancellationDeadline *time.Time
	CancellationReason   *string
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}
