package memory

import (
	"context"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if _, exists := s.bookings[booking.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	booking.CreatedAt = s.now()
	booking.UpdatedAt = booking.CreatedAt
	s.bookings.put(r.uow.journal(), booking.ID, *booking, s.nextSeq())
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	b := rec.value
	return &b, nil
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason *string, cancelledAt time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.bookings[id]
	if !ok || rec.value.Status != entity.BookingStatusConfirmed {
		return false, nil
	}
	b := rec.value
	b.Status = entity.BookingStatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &cancelledAt
	b.UpdatedAt = s.now()
	s.bookings.put(r.uow.journal(), id, b, 0)
	return true, nil
}

type paymentRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = s.now()
	payment.UpdatedAt = payment.CreatedAt
	s.payments.put(r.uow.journal(), payment.ID, *payment, s.nextSeq())
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	p := rec.value
	return &p, nil
}

func (r *paymentRepository) FindCompletedByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.payments.sorted(false, func(p entity.Payment) bool {
		return p.BookingID == bookingID && p.Status == entity.PaymentStatusCompleted
	})
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type refundRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *refundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.refunds {
		if rec.value.IdempotencyKey == refund.IdempotencyKey {
			return gorm.ErrDuplicatedKey
		}
	}
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	refund.CreatedAt = s.now()
	refund.UpdatedAt = refund.CreatedAt
	s.refunds.put(r.uow.journal(), refund.ID, *refund, s.nextSeq())
	return nil
}

func (r *refundRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Refund, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refunds[id]
	if !ok {
		return nil, nil
	}
	refund := rec.value
	return &refund, nil
}

func (r *refundRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Refund, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.refunds {
		if rec.value.IdempotencyKey == key {
			refund := rec.value
			return &refund, nil
		}
	}
	return nil, nil
}

func (r *refundRepository) FindAllByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Refund, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.refunds.sorted(true, func(refund entity.Refund) bool {
		return refund.BookingID == bookingID
	})
	out := make([]*entity.Refund, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r *refundRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RefundStatus, transactionID string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refunds[id]
	if !ok || rec.value.Status != entity.RefundStatusPending {
		return false, nil
	}
	refund := rec.value
	refund.Status = status
	if transactionID != "" {
		refund.TransactionID = transactionID
	}
	refund.UpdatedAt = s.now()
	s.refunds.put(r.uow.journal(), id, refund, 0)
	return true, nil
}

type refundRequestRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *refundRequestRepository) Create(ctx context.Context, request *entity.RefundRequest) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if isOpen(request.Status) {
		for _, rec := range s.requests {
			if rec.value.BookingID == request.BookingID && isOpen(rec.value.Status) {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.CreatedAt = s.now()
	request.UpdatedAt = request.CreatedAt
	s.requests.put(r.uow.journal(), request.ID, *request, s.nextSeq())
	return nil
}

// isOpen mirrors the partial unique index on refund_requests(booking_id).
func isOpen(status entity.RefundRequestStatus) bool {
	return status == entity.RefundRequestStatusPending || status == entity.RefundRequestStatusApproved
}

func (r *refundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RefundRequest, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	req := rec.value
	return &req, nil
}

func (r *refundRequestRepository) FindAll(ctx context.Context, filter contract.RefundRequestFilter) ([]*entity.RefundRequest, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.requests.sorted(false, func(req entity.RefundRequest) bool {
		if filter.Status != "" && req.Status != filter.Status {
			return false
		}
		return filter.BookingID == nil || req.BookingID == *filter.BookingID
	})
	rows = paginate(rows, filter.Limit, filter.Offset)

	out := make([]*entity.RefundRequest, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r *refundRequestRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.RefundRequestStatus) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.requests[id]
	if !ok || rec.value.Status != from {
		return false, nil
	}
	req := rec.value
	req.Status = to
	req.UpdatedAt = s.now()
	s.requests.put(r.uow.journal(), id, req, 0)
	return true, nil
}

func (r *refundRequestRepository) Update(ctx context.Context, request *entity.RefundRequest) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.requests[request.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req := rec.value
	req.Status = request.Status
	req.Notes = request.Notes
	req.ApprovedBy = request.ApprovedBy
	req.ApprovedAmount = request.ApprovedAmount
	req.RejectionReason = request.RejectionReason
	req.RefundID = request.RefundID
	req.ProcessedAt = request.ProcessedAt
	req.UpdatedAt = s.now()
	s.requests.put(r.uow.journal(), req.ID, req, 0)
	return nil
}

type commissionRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *commissionRepository) Create(ctx context.Context, entry *entity.CommissionEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.RefundID != nil {
		for _, rec := range s.commissions {
			if rec.value.RefundID != nil && *rec.value.RefundID == *entry.RefundID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = s.now()
	s.commissions.put(r.uow.journal(), entry.ID, *entry, s.nextSeq())
	return nil
}

func (r *commissionRepository) FindChargeByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.CommissionEntry, error) {
	return r.find(func(e entity.CommissionEntry) bool {
		return e.PaymentID == paymentID && e.Kind == entity.CommissionKindCharge
	})
}

func (r *commissionRepository) FindReversalByRefundID(ctx context.Context, refundID uuid.UUID) (*entity.CommissionEntry, error) {
	return r.find(func(e entity.CommissionEntry) bool {
		return e.RefundID != nil && *e.RefundID == refundID && e.Kind == entity.CommissionKindReversal
	})
}

func (r *commissionRepository) find(keep func(entity.CommissionEntry) bool) (*entity.CommissionEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.commissions.sorted(true, keep)
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type reconciliationRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *reconciliationRepository) Create(ctx context.Context, item *entity.ReconciliationItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = s.now()
	s.reconciliation.put(r.uow.journal(), item.ID, *item, s.nextSeq())
	return nil
}

func (r *reconciliationRepository) FindAll(ctx context.Context, filter contract.ReconciliationFilter) ([]*entity.ReconciliationItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.reconciliation.sorted(false, func(item entity.ReconciliationItem) bool {
		return !filter.UnresolvedOnly || !item.Resolved
	})
	rows = paginate(rows, filter.Limit, filter.Offset)

	out := make([]*entity.ReconciliationItem, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r *reconciliationRepository) MarkResolved(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reconciliation[id]
	if !ok || rec.value.Resolved {
		return false, nil
	}
	item := rec.value
	item.Resolved = true
	s.reconciliation.put(r.uow.journal(), id, item, 0)
	return true, nil
}
