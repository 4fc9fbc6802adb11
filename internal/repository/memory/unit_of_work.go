package memory

import (
	"context"
	"fmt"

	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/unitofwork"
)

type UnitOfWork struct {
	store *Store
	tx    *journal
}

func NewUnitOfWork(store *Store) unitofwork.UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = &journal{}
	return ctx.Err()
}

func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.tx = nil
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	u.tx.revert()
	u.store.mu.Unlock()
	u.tx = nil
	return nil
}

// journal is read at call time so repositories fetched before Begin still
// join the transaction.
func (u *UnitOfWork) journal() *journal {
	return u.tx
}

func (u *UnitOfWork) BookingRepository() contract.BookingRepository {
	return &bookingRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) PaymentRepository() contract.PaymentRepository {
	return &paymentRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) RefundRepository() contract.RefundRepository {
	return &refundRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) RefundRequestRepository() contract.RefundRequestRepository {
	return &refundRequestRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) CommissionRepository() contract.CommissionRepository {
	return &commissionRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) ReconciliationRepository() contract.ReconciliationRepository {
	return &reconciliationRepository{store: u.store, uow: u}
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return NewUnitOfWork(f.store)
}
