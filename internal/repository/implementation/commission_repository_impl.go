package implementation

import (
	"context"
	"errors"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/model"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type commissionRepositoryImpl struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) contract.CommissionRepository {
	return &commissionRepositoryImpl{db: db}
}

func (r *commissionRepositoryImpl) Create(ctx context.Context, entry *entity.CommissionEntry) error {
	m := &model.CommissionEntry{
		ID:        entry.ID,
		PaymentID: entry.PaymentID,
		BookingID: entry.BookingID,
		RefundID:  entry.RefundID,
		Kind:      string(entry.Kind),
		Amount:    entry.Amount,
		Currency:  entry.Currency,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}

func (r *commissionRepositoryImpl) FindChargeByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.CommissionEntry, error) {
	return r.findOne(ctx,
		specification.ByPaymentID{PaymentID: paymentID},
		specification.Filter("kind", string(entity.CommissionKindCharge)),
	)
}

func (r *commissionRepositoryImpl) FindReversalByRefundID(ctx context.Context, refundID uuid.UUID) (*entity.CommissionEntry, error) {
	return r.findOne(ctx,
		specification.Filter("refund_id", refundID),
		specification.Filter("kind", string(entity.CommissionKindReversal)),
	)
}

func (r *commissionRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.CommissionEntry, error) {
	var m model.CommissionEntry
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.CommissionEntry{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		BookingID: m.BookingID,
		RefundID:  m.RefundID,
		Kind:      entity.CommissionKind(m.Kind),
		Amount:    m.Amount,
		Currency:  m.Currency,
		CreatedAt: m.CreatedAt,
	}, nil
}
