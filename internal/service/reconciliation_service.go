package service

import (
	"context"
	"errors"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"

	"github.com/google/uuid"
)

var ErrReconciliationItemNotFound = errors.New("reconciliation item not found or already resolved")

// IReconciliationService tracks side effects that failed after money moved.
type IReconciliationService interface {
	Record(ctx context.Context, item *entity.ReconciliationItem)
	List(ctx context.Context, unresolvedOnly bool, page, limit int) ([]*entity.ReconciliationItem, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type reconciliationService struct {
	uowFactory unitofwork.RepositoryFactory
	journal    logger.ILogger
	logger     logger.ILogger
	publisher  adminEvents.Publisher
}

// NewReconciliationService writes every item to journal before anything else,
// so an item survives even when the database is the thing that failed.
func NewReconciliationService(uowFactory unitofwork.RepositoryFactory, journal logger.ILogger, logger logger.ILogger, publisher adminEvents.Publisher) IReconciliationService {
	return &reconciliationService{
		uowFactory: uowFactory,
		journal:    journal,
		logger:     logger,
		publisher:  publisher,
	}
}

func (s *reconciliationService) Record(ctx context.Context, item *entity.ReconciliationItem) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	details := map[string]interface{}{
		"item_id":    item.ID.String(),
		"kind":       string(item.Kind),
		"booking_id": item.BookingID.String(),
		"amount":     item.Amount.String(),
		"currency":   item.Currency,
		"error":      item.Error,
	}
	if item.PaymentID != nil {
		details["payment_id"] = item.PaymentID.String()
	}
	if item.RefundID != nil {
		details["refund_id"] = item.RefundID.String()
	}
	s.journal.Error("RECONCILIATION", "Reconciliation required", details)

	// The caller's context may already be cancelled; the item must still land.
	uow := s.uowFactory.NewUnitOfWork(context.WithoutCancel(ctx))
	if err := uow.ReconciliationRepository().Create(context.WithoutCancel(ctx), item); err != nil {
		s.logger.Error("RECONCILIATION", "Failed to persist reconciliation item", map[string]interface{}{
			"item_id": item.ID.String(),
			"error":   err.Error(),
		})
	}

	s.publisher.PublishReconciliationRequired(ctx, item)
}

func (s *reconciliationService) List(ctx context.Context, unresolvedOnly bool, page, limit int) ([]*entity.ReconciliationItem, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ReconciliationRepository().FindAll(ctx, contract.ReconciliationFilter{
		UnresolvedOnly: unresolvedOnly,
		Limit:          limit,
		Offset:         (page - 1) * limit,
	})
}

func (s *reconciliationService) Resolve(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.ReconciliationRepository().MarkResolved(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReconciliationItemNotFound
	}

	s.logger.Info("RECONCILIATION", "Reconciliation item resolved", map[string]interface{}{"item_id": id.String()})
	return nil
}
