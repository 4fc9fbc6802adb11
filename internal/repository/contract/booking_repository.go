package contract

import (
	"context"
	"time"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// MarkCancelled moves a confirmed booking to cancelled. It reports false
	// when the booking was no longer confirmed.
	MarkCancelled(ctx context.Context, id uuid.UUID, reason *string, cancelledAt time.Time) (bool, error)
}
