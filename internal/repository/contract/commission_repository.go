package contract

import (
	"context"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type CommissionRepository interface {
	Create(ctx context.Context, entry *entity.CommissionEntry) error
	FindChargeByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.CommissionEntry, error)
	FindReversalByRefundID(ctx context.Context, refundID uuid.UUID) (*entity.CommissionEntry, error)
}
