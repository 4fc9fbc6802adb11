package contract

import (
	"context"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type RefundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Refund, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Refund, error)
	FindAllByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Refund, error)
	// UpdateStatus settles a pending refund. Final refunds are left untouched
	// and false is returned.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RefundStatus, transactionID string) (bool, error)
}
