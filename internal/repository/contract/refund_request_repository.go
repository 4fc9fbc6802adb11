package contract

import (
	"context"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type RefundRequestFilter struct {
	Status    entity.RefundRequestStatus
	BookingID *uuid.UUID
	Limit     int
	Offset    int
}

type RefundRequestRepository interface {
	Create(ctx context.Context, request *entity.RefundRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RefundRequest, error)
	FindAll(ctx context.Context, filter RefundRequestFilter) ([]*entity.RefundRequest, error)
	// TransitionStatus is a compare-and-swap on status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.RefundRequestStatus) (bool, error)
	Update(ctx context.Context, request *entity.RefundRequest) error
}
