package contract

import (
	"context"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	// FindCompletedByBookingID returns the most recent completed payment, or nil.
	FindCompletedByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
}
