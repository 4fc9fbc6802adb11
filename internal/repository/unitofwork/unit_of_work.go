package unitofwork

import (
	"context"

	"booking-settlement-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	BookingRepository() contract.BookingRepository
	PaymentRepository() contract.PaymentRepository
	RefundRepository() contract.RefundRepository
	RefundRequestRepository() contract.RefundRequestRepository
	CommissionRepository() contract.CommissionRepository
	ReconciliationRepository() contract.ReconciliationRepository
}
