package ledger

import (
	"context"
	"errors"
	"fmt"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionLedger reverses the platform's commission in proportion to what
// was refunded. At most one reversal exists per refund.
type CommissionLedger struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCommissionLedger(uowFactory unitofwork.RepositoryFactory) *CommissionLedger {
	return &CommissionLedger{uowFactory: uowFactory}
}

// ReverseCommission books -round(charge * refunded / paid). It returns the
// existing entry when the refund was already reversed and nil when the
// payment never carried a commission.
func (l *CommissionLedger) ReverseCommission(ctx context.Context, r *entity.Refund, payment *entity.Payment) (*entity.CommissionEntry, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	repo := uow.CommissionRepository()

	existing, err := repo.FindReversalByRefundID(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reversal: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	charge, err := repo.FindChargeByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up commission charge: %w", err)
	}
	if charge == nil || charge.Amount.IsZero() || !payment.Amount.IsPositive() {
		return nil, nil
	}

	share := charge.Amount.Mul(r.Amount).Div(payment.Amount).Round(refund.Exponent(payment.Currency))
	refundID := r.ID
	entry := &entity.CommissionEntry{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		RefundID:  &refundID,
		Kind:      entity.CommissionKindReversal,
		Amount:    share.Neg(),
		Currency:  charge.Currency,
	}

	if err := repo.Create(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repo.FindReversalByRefundID(ctx, r.ID)
		}
		return nil, fmt.Errorf("failed to record commission reversal: %w", err)
	}
	return entry, nil
}
