package contract

import (
	"context"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

type ReconciliationFilter struct {
	UnresolvedOnly bool
	Limit          int
	Offset         int
}

type ReconciliationRepository interface {
	Create(ctx context.Context, item *entity.ReconciliationItem) error
	FindAll(ctx context.Context, filter ReconciliationFilter) ([]*entity.ReconciliationItem, error)
	MarkResolved(ctx context.Context, id uuid.UUID) (bool, error)
}
