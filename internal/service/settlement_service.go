package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"
	"booking-settlement-be/pkg/gateway"
	"booking-settlement-be/pkg/lock"
	"booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type ISettlementService interface {
	// Cancel runs a guest or operator cancellation to completion, or parks it
	// for manual review.
	Cancel(ctx context.Context, cmd refund.CancelCommand) (refund.SettlementResult, error)
	// Quote computes what Cancel would decide right now without changing anything.
	Quote(ctx context.Context, bookingID uuid.UUID) (refund.Calculation, refund.Route, error)
	// SettleApproved pays out an approved review request. The caller owns the
	// request's status transitions.
	SettleApproved(ctx context.Context, request *entity.RefundRequest, amount decimal.Decimal, approvedBy uuid.UUID) (*refund.AutomaticSettlement, error)
}

// CommissionReverser is the commission ledger as seen by the coordinator.
type CommissionReverser interface {
	ReverseCommission(ctx context.Context, r *entity.Refund, payment *entity.Payment) (*entity.CommissionEntry, error)
}

type SettlementDependencies struct {
	UowFactory     unitofwork.RepositoryFactory
	Locker         lock.Locker
	Calculator     *refund.Calculator
	Policy         refund.Policy
	Gateway        gateway.Gateway
	Ledger         CommissionReverser
	Notifier       Notifier
	Publisher      adminEvents.Publisher
	Reconciler     IReconciliationService
	Logger         logger.ILogger
	GatewayTimeout time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type settlementService struct {
	uowFactory     unitofwork.RepositoryFactory
	locker         lock.Locker
	calculator     *refund.Calculator
	policy         refund.Policy
	gateway        gateway.Gateway
	ledger         CommissionReverser
	notifier       Notifier
	publisher      adminEvents.Publisher
	reconciler     IReconciliationService
	logger         logger.ILogger
	gatewayTimeout time.Duration
	now            func() time.Time
	tracer         trace.Tracer
}

func NewSettlementService(deps SettlementDependencies) ISettlementService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	timeout := deps.GatewayTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &settlementService{
		uowFactory:     deps.UowFactory,
		locker:         deps.Locker,
		calculator:     deps.Calculator,
		policy:         deps.Policy,
		gateway:        deps.Gateway,
		ledger:         deps.Ledger,
		notifier:       deps.Notifier,
		publisher:      deps.Publisher,
		reconciler:     deps.Reconciler,
		logger:         deps.Logger,
		gatewayTimeout: timeout,
		now:            clock,
		tracer:         otel.Tracer("booking-settlement-be/settlement"),
	}
}

// IdempotencyKey is the gateway key for a booking's refund. One booking is
// refunded at most once, so the key never changes across retries.
func IdempotencyKey(bookingID uuid.UUID) string {
	return "bk-" + bookingID.String()
}

func lockKey(bookingID uuid.UUID) string {
	return "booking:" + bookingID.String()
}

func (s *settlementService) Cancel(ctx context.Context, cmd refund.CancelCommand) (refund.SettlementResult, error) {
	ctx, span := s.tracer.Start(ctx, "settlement.Cancel", trace.WithAttributes(
		attribute.String("booking.id", cmd.BookingID.String()),
		attribute.Bool("settlement.override", cmd.Override),
	))
	defer span.End()

	result, err := s.cancel(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(refund.KindOf(err)))
		s.logger.Warn("SETTLEMENT", "Cancellation failed", map[string]interface{}{
			"booking_id": cmd.BookingID.String(),
			"kind":       string(refund.KindOf(err)),
			"error":      err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(attribute.String("settlement.route", string(result.Route())))
	return result, nil
}

func (s *settlementService) cancel(ctx context.Context, cmd refund.CancelCommand) (refund.SettlementResult, error) {
	release, err := s.locker.Acquire(ctx, lockKey(cmd.BookingID))
	if err != nil {
		return nil, refund.WrapError(refund.KindInternal, "failed to lock booking", err)
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	booking, err := s.loadConfirmedBooking(ctx, uow, cmd.BookingID)
	if err != nil {
		return nil, err
	}

	calc := s.calculator.Calculate(*booking, s.now())
	if !calc.IsEligible && !cmd.Override {
		return nil, refund.NotEligibleError(calc)
	}

	route := s.policy.Route(calc)
	if cmd.Override {
		route = refund.RouteManualReview
	}

	s.logger.Info("SETTLEMENT", "Cancellation routed", map[string]interface{}{
		"booking_id":   booking.ID.String(),
		"route":        string(route),
		"tier":         string(calc.Tier),
		"final_refund": calc.Decimal(calc.FinalRefundAmount).String(),
		"override":     cmd.Override,
	})

	payment, err := uow.PaymentRepository().FindCompletedByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, refund.WrapError(refund.KindInternal, "failed to load payment", err)
	}

	if route == refund.RouteManualReview {
		return s.park(ctx, uow, booking, payment, calc, cmd)
	}

	if payment == nil {
		return nil, refund.NewError(refund.KindNoCompletedPayment, "booking has no completed payment")
	}

	metadata := calc.Snapshot()
	metadata["route"] = string(route)

	r, err := s.settle(ctx, settlementJob{
		booking:     booking,
		payment:     payment,
		amount:      calc.Decimal(calc.FinalRefundAmount),
		reason:      cmd.Reason,
		processedBy: cmd.RequestedBy,
		metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	return &refund.AutomaticSettlement{Refund: r, Calc: calc}, nil
}

func (s *settlementService) Quote(ctx context.Context, bookingID uuid.UUID) (refund.Calculation, refund.Route, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	booking, err := uow.BookingRepository().FindByID(ctx, bookingID)
	if err != nil {
		return refund.Calculation{}, "", refund.WrapError(refund.KindInternal, "failed to load booking", err)
	}
	if booking == nil {
		return refund.Calculation{}, "", refund.NewError(refund.KindNotFound, "booking not found")
	}

	calc := s.calculator.Calculate(*booking, s.now())
	return calc, s.policy.Route(calc), nil
}

func (s *settlementService) SettleApproved(ctx context.Context, request *entity.RefundRequest, amount decimal.Decimal, approvedBy uuid.UUID) (*refund.AutomaticSettlement, error) {
	ctx, span := s.tracer.Start(ctx, "settlement.SettleApproved", trace.WithAttributes(
		attribute.String("booking.id", request.BookingID.String()),
		attribute.String("refund_request.id", request.ID.String()),
	))
	defer span.End()

	result, err := s.settleApproved(ctx, request, amount, approvedBy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(refund.KindOf(err)))
		return nil, err
	}
	return result, nil
}

func (s *settlementService) settleApproved(ctx context.Context, request *entity.RefundRequest, amount decimal.Decimal, approvedBy uuid.UUID) (*refund.AutomaticSettlement, error) {
	release, err := s.locker.Acquire(ctx, lockKey(request.BookingID))
	if err != nil {
		return nil, refund.WrapError(refund.KindInternal, "failed to lock booking", err)
	}
	defer release()

	// Re-validate: the booking may have changed since the request was parked.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	booking, err := s.loadConfirmedBooking(ctx, uow, request.BookingID)
	if err != nil {
		return nil, err
	}

	payment, err := s.loadPaymentFor(ctx, uow, request)
	if err != nil {
		return nil, err
	}

	calc := s.calculator.Calculate(*booking, s.now())
	metadata := calc.Snapshot()
	metadata["route"] = string(refund.RouteManualReview)
	metadata["refund_request_id"] = request.ID.String()
	metadata["approved_amount"] = amount.String()

	r, err := s.settle(ctx, settlementJob{
		booking:     booking,
		payment:     payment,
		amount:      amount,
		reason:      request.Reason,
		processedBy: approvedBy,
		metadata:    metadata,
		request:     request,
	})
	if err != nil {
		return nil, err
	}

	return &refund.AutomaticSettlement{Refund: r, Calc: calc}, nil
}

func (s *settlementService) loadConfirmedBooking(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Booking, error) {
	booking, err := uow.BookingRepository().FindByID(ctx, id)
	if err != nil {
		return nil, refund.WrapError(refund.KindInternal, "failed to load booking", err)
	}
	if booking == nil {
		return nil, refund.NewError(refund.KindNotFound, "booking not found")
	}
	if booking.IsCancelled() {
		return nil, refund.NewError(refund.KindAlreadyCancelled, "booking is already cancelled")
	}
	if !booking.IsConfirmed() {
		return nil, refund.NewError(refund.KindInvalidState, fmt.Sprintf("booking is %s, not confirmed", booking.Status))
	}
	return booking, nil
}

func (s *settlementService) loadPaymentFor(ctx context.Context, uow unitofwork.UnitOfWork, request *entity.RefundRequest) (*entity.Payment, error) {
	var (
		payment *entity.Payment
		err     error
	)
	if request.PaymentID != nil {
		payment, err = uow.PaymentRepository().FindByID(ctx, *request.PaymentID)
	} else {
		payment, err = uow.PaymentRepository().FindCompletedByBookingID(ctx, request.BookingID)
	}
	if err != nil {
		return nil, refund.WrapError(refund.KindInternal, "failed to load payment", err)
	}
	if payment == nil || !payment.IsCompleted() {
		return nil, refund.NewError(refund.KindNoCompletedPayment, "booking has no completed payment")
	}
	return payment, nil
}

// park persists the cancellation as a pending review request. A booking that
// already has an open request gets that request back.
func (s *settlementService) park(ctx context.Context, uow unitofwork.UnitOfWork, booking *entity.Booking, payment *entity.Payment, calc refund.Calculation, cmd refund.CancelCommand) (refund.SettlementResult, error) {
	existing, err := s.findOpenRequest(ctx, uow, booking.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &refund.ManualReviewSettlement{RequestID: existing.ID, Calc: calc, Status: refund.StatusPendingReview}, nil
	}

	snapshot := calc.Snapshot()
	snapshot["override"] = cmd.Override

	request := &entity.RefundRequest{
		ID:          uuid.New(),
		BookingID:   booking.ID,
		RequestedBy: cmd.RequestedBy,
		Amount:      calc.Decimal(calc.RefundableAmount),
		Currency:    calc.Currency,
		Reason:      cmd.Reason,
		Notes:       cmd.Notes,
		Status:      entity.RefundRequestStatusPending,
		Calculation: snapshot,
	}
	if payment != nil {
		id := payment.ID
		request.PaymentID = &id
	}

	if err := uow.RefundRequestRepository().Create(ctx, request); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.findOpenRequest(ctx, uow, booking.ID)
			if findErr == nil && existing != nil {
				return &refund.ManualReviewSettlement{RequestID: existing.ID, Calc: calc, Status: refund.StatusPendingReview}, nil
			}
		}
		return nil, refund.WrapError(refund.KindInternal, "failed to create refund request", err)
	}

	s.logger.Info("SETTLEMENT", "Cancellation parked for review", map[string]interface{}{
		"booking_id": booking.ID.String(),
		"request_id": request.ID.String(),
		"amount":     request.Amount.String(),
	})

	if err := s.notifier.NotifyRefundPendingReview(ctx, booking, request); err != nil {
		s.logger.Error("NOTIFY", "Failed to queue review notification", map[string]interface{}{
			"request_id": request.ID.String(),
			"error":      err.Error(),
		})
	}
	s.publisher.PublishRefundPendingReview(ctx, request, booking)

	return &refund.ManualReviewSettlement{RequestID: request.ID, Calc: calc, Status: refund.StatusPendingReview}, nil
}

func (s *settlementService) findOpenRequest(ctx context.Context, uow unitofwork.UnitOfWork, bookingID uuid.UUID) (*entity.RefundRequest, error) {
	for _, status := range []entity.RefundRequestStatus{entity.RefundRequestStatusPending, entity.RefundRequestStatusApproved} {
		found, err := uow.RefundRequestRepository().FindAll(ctx, contract.RefundRequestFilter{
			Status:    status,
			BookingID: &bookingID,
			Limit:     1,
		})
		if err != nil {
			return nil, refund.WrapError(refund.KindInternal, "failed to look up refund requests", err)
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}
	return nil, nil
}

type settlementJob struct {
	booking     *entity.Booking
	payment     *entity.Payment
	amount      decimal.Decimal
	reason      string
	processedBy uuid.UUID
	metadata    map[string]interface{}
	// request is set when settling an approved review.
	request *entity.RefundRequest
}

// settle moves the money, then commits the booking transition and the refund
// record together. Nothing is written when the gateway fails. Anything that
// fails after the gateway succeeded is recorded for reconciliation.
func (s *settlementService) settle(ctx context.Context, st settlementJob) (*entity.Refund, error) {
	key := IdempotencyKey(st.booking.ID)

	result, err := s.callGateway(ctx, gateway.RefundRequest{
		IdempotencyKey: key,
		TransactionID:  st.payment.TransactionID,
		Amount:         st.amount,
		Currency:       st.payment.Currency,
		Reason:         st.reason,
	})
	if err != nil {
		return nil, err
	}

	// The provider's figure is what left the merchant account, so it is the
	// one recorded and reversed against commission.
	amount := st.amount
	mismatch := result.Amount.IsPositive() && !result.Amount.Equal(st.amount)
	if mismatch {
		amount = result.Amount
		st.metadata["requested_amount"] = st.amount.String()
	}

	now := s.now()
	r := &entity.Refund{
		ID:             uuid.New(),
		PaymentID:      st.payment.ID,
		BookingID:      st.booking.ID,
		Amount:         amount,
		Currency:       st.payment.Currency,
		Status:         entity.RefundStatusPending,
		TransactionID:  result.TransactionID,
		IdempotencyKey: key,
		Reason:         st.reason,
		ProcessedBy:    st.processedBy,
		ProcessedAt:    now,
		Metadata:       st.metadata,
	}
	if result.Settled {
		r.Status = entity.RefundStatusCompleted
	}
	r.Metadata["gateway_refund_id"] = result.RefundID

	if err := s.commit(ctx, st, r, now); err != nil {
		return nil, err
	}

	s.logger.Info("SETTLEMENT", "Refund settled", map[string]interface{}{
		"booking_id":     st.booking.ID.String(),
		"refund_id":      r.ID.String(),
		"transaction_id": r.TransactionID,
		"amount":         r.Amount.String(),
		"status":         string(r.Status),
	})

	if mismatch {
		s.logger.Warn("SETTLEMENT", "Provider refunded a different amount than requested", map[string]interface{}{
			"booking_id": st.booking.ID.String(),
			"refund_id":  r.ID.String(),
			"requested":  st.amount.String(),
			"refunded":   r.Amount.String(),
		})
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindAmountMismatch, r,
			fmt.Errorf("requested %s, provider refunded %s under key %s", st.amount, r.Amount, key)))
	}

	s.reverseCommission(ctx, r, st.payment)

	if err := s.notifier.NotifyRefundCompleted(ctx, st.booking, r); err != nil {
		s.logger.Error("NOTIFY", "Failed to queue refund notification", map[string]interface{}{
			"refund_id": r.ID.String(),
			"error":     err.Error(),
		})
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindNotificationFailure, r, err))
	}
	s.publisher.PublishRefundCompleted(ctx, r, st.booking)

	return r, nil
}

func (s *settlementService) callGateway(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	ctx, span := s.tracer.Start(ctx, "settlement.gateway.Refund", trace.WithAttributes(
		attribute.String("gateway.idempotency_key", req.IdempotencyKey),
		attribute.String("gateway.amount", req.Amount.String()),
	))
	defer span.End()

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := s.gateway.Refund(gctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway refund failed")
		if gateway.IsPermanent(err) {
			return nil, refund.WrapError(refund.KindGatewayRejected, "payment provider rejected the refund", err)
		}
		return nil, refund.WrapError(refund.KindGatewayFailure, "payment provider unavailable, retry later", err)
	}
	return result, nil
}

func (s *settlementService) commit(ctx context.Context, st settlementJob, r *entity.Refund, now time.Time) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindCommitFailure, r, err))
		return refund.WrapError(refund.KindInternal, "refund issued but could not be recorded", err)
	}
	defer uow.Rollback()

	var reason *string
	if st.reason != "" {
		reason = &st.reason
	}
	ok, err := uow.BookingRepository().MarkCancelled(ctx, st.booking.ID, reason, now)
	if err != nil {
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindCommitFailure, r, err))
		return refund.WrapError(refund.KindInternal, "refund issued but booking could not be cancelled", err)
	}
	if !ok {
		// The gateway call reused the booking's key, so no second refund left the provider.
		return refund.NewError(refund.KindAlreadyCancelled, "booking was cancelled concurrently")
	}

	if err := uow.RefundRepository().Create(ctx, r); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return refund.NewError(refund.KindAlreadyCancelled, "refund already recorded for booking")
		}
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindCommitFailure, r, err))
		return refund.WrapError(refund.KindInternal, "refund issued but could not be recorded", err)
	}

	if st.request != nil {
		processedAt := now
		refundID := r.ID
		approvedBy := st.processedBy
		amount := r.Amount
		st.request.Status = entity.RefundRequestStatusCompleted
		st.request.RefundID = &refundID
		st.request.ProcessedAt = &processedAt
		st.request.ApprovedBy = &approvedBy
		st.request.ApprovedAmount = &amount
		if err := uow.RefundRequestRepository().Update(ctx, st.request); err != nil {
			s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindCommitFailure, r, err))
			return refund.WrapError(refund.KindInternal, "refund issued but review could not be closed", err)
		}
	}

	if err := uow.Commit(); err != nil {
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindCommitFailure, r, err))
		return refund.WrapError(refund.KindInternal, "refund issued but could not be recorded", err)
	}
	return nil
}

// reverseCommission never fails the settlement: the money already moved.
func (s *settlementService) reverseCommission(ctx context.Context, r *entity.Refund, payment *entity.Payment) {
	entry, err := s.ledger.ReverseCommission(ctx, r, payment)
	if err != nil {
		s.logger.Error("LEDGER", "Commission reversal failed", map[string]interface{}{
			"refund_id": r.ID.String(),
			"error":     err.Error(),
		})
		s.reconciler.Record(ctx, s.reconciliationItem(entity.ReconciliationKindLedgerFailure, r, err))
		return
	}
	if entry != nil {
		s.logger.Info("LEDGER", "Commission reversed", map[string]interface{}{
			"refund_id": r.ID.String(),
			"amount":    entry.Amount.String(),
		})
	}
}

func (s *settlementService) reconciliationItem(kind entity.ReconciliationKind, r *entity.Refund, cause error) *entity.ReconciliationItem {
	paymentID := r.PaymentID
	item := &entity.ReconciliationItem{
		Kind:      kind,
		BookingID: r.BookingID,
		PaymentID: &paymentID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Error:     cause.Error(),
	}
	// A refund that was never committed has no row to point at.
	if kind != entity.ReconciliationKindCommitFailure {
		refundID := r.ID
		item.RefundID = &refundID
	}
	return item
}
