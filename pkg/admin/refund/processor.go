package refund

import (
	"context"
	"fmt"
	"time"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"
	settlement "booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settler pays out an approved request. It re-validates the booking and owns
// the idempotency guard.
type Settler interface {
	SettleApproved(ctx context.Context, request *entity.RefundRequest, amount decimal.Decimal, approvedBy uuid.UUID) (*settlement.AutomaticSettlement, error)
}

// GuestNotifier tells the guest their review was declined.
type GuestNotifier interface {
	NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error
}

// RejectResult contains rejection operation results
type RejectResult struct {
	RequestId   uuid.UUID
	ProcessedAt time.Time
}

// Processor handles the manual review workflow
type Processor struct {
	logger    logger.ILogger
	publisher adminEvents.Publisher
	settler   Settler
	notifier  GuestNotifier
	now       func() time.Time
}

// NewProcessor creates a new review processor
func NewProcessor(logger logger.ILogger, publisher adminEvents.Publisher, settler Settler, notifier GuestNotifier) *Processor {
	return &Processor{
		logger:    logger,
		publisher: publisher,
		settler:   settler,
		notifier:  notifier,
		now:       time.Now,
	}
}

// GetAll retrieves paginated refund requests with optional status filter
func (p *Processor) GetAll(ctx context.Context, uow unitofwork.UnitOfWork, page, limit int, status string) ([]*entity.RefundRequest, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	return uow.RefundRequestRepository().FindAll(ctx, contract.RefundRequestFilter{
		Status: entity.RefundRequestStatus(status),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// Get retrieves a single refund request
func (p *Processor) Get(ctx context.Context, uow unitofwork.UnitOfWork, requestId uuid.UUID) (*entity.RefundRequest, error) {
	request, err := uow.RefundRequestRepository().FindByID(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, settlement.NewError(settlement.KindRequestNotFound, "refund request not found")
	}
	return request, nil
}

// Approve settles a pending request with the stored or the supplied amount.
// The request is held in approved while money moves and goes back to pending
// if settlement fails.
func (p *Processor) Approve(ctx context.Context, uow unitofwork.UnitOfWork, requestId, approvedBy uuid.UUID, req dto.AdminApproveRefundRequest) (*settlement.AutomaticSettlement, error) {
	// 1. Find the request
	request, err := p.Get(ctx, uow, requestId)
	if err != nil {
		return nil, err
	}

	// 2. Check if already processed
	if !request.IsPending() {
		return nil, settlement.NewError(settlement.KindRequestAlreadyProcessed, fmt.Sprintf("refund request is %s", request.Status))
	}

	// 3. Validate the amount against what was actually paid
	amount, err := resolveAmount(request, req.Amount)
	if err != nil {
		return nil, err
	}
	payment, err := findPayment(ctx, uow, request)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(payment.Amount) {
		return nil, settlement.NewError(settlement.KindInvalidAmount,
			fmt.Sprintf("amount %s exceeds paid amount %s", amount.String(), payment.Amount.String()))
	}

	// 4. Claim the request
	ok, err := uow.RefundRequestRepository().TransitionStatus(ctx, requestId, entity.RefundRequestStatusPending, entity.RefundRequestStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, settlement.NewError(settlement.KindRequestAlreadyProcessed, "refund request was processed concurrently")
	}
	request.Status = entity.RefundRequestStatusApproved
	if req.Notes != "" {
		request.Notes = req.Notes
	}

	// 5. Settle
	result, err := p.settler.SettleApproved(ctx, request, amount, approvedBy)
	if err != nil {
		if _, revertErr := uow.RefundRequestRepository().TransitionStatus(ctx, requestId, entity.RefundRequestStatusApproved, entity.RefundRequestStatusPending); revertErr != nil {
			p.logger.Error("REVIEW", "Failed to return refund request to pending", map[string]interface{}{
				"requestId": requestId.String(),
				"error":     revertErr.Error(),
			})
		}
		return nil, err
	}

	// 6. Log the action
	p.logger.Info("REVIEW", "Approved Refund Request", map[string]interface{}{
		"requestId":  requestId.String(),
		"bookingId":  request.BookingID.String(),
		"refundId":   result.Refund.ID.String(),
		"amount":     result.Refund.Amount.String(),
		"approvedBy": approvedBy.String(),
	})

	// 7. Emit REFUND_APPROVED Event with the amount the provider settled
	p.publisher.PublishRefundApproved(ctx, request, result.Refund.ID, result.Refund.Amount)

	return result, nil
}

// Reject declines a pending request. The booking is not touched.
func (p *Processor) Reject(ctx context.Context, uow unitofwork.UnitOfWork, requestId, rejectedBy uuid.UUID, req dto.AdminRejectRefundRequest) (*RejectResult, error) {
	// 1. Find the request
	request, err := p.Get(ctx, uow, requestId)
	if err != nil {
		return nil, err
	}

	// 2. Check if already processed
	if !request.IsPending() {
		return nil, settlement.NewError(settlement.KindRequestAlreadyProcessed, fmt.Sprintf("refund request is %s", request.Status))
	}

	// 3. Start transaction
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// 4. Update request status
	ok, err := uow.RefundRequestRepository().TransitionStatus(ctx, requestId, entity.RefundRequestStatusPending, entity.RefundRequestStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, settlement.NewError(settlement.KindRequestAlreadyProcessed, "refund request was processed concurrently")
	}

	now := p.now()
	request.Status = entity.RefundRequestStatusRejected
	request.RejectionReason = req.Reason
	request.ProcessedAt = &now
	if err := uow.RefundRequestRepository().Update(ctx, request); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// 5. Log the action
	p.logger.Info("REVIEW", "Rejected Refund Request", map[string]interface{}{
		"requestId":  requestId.String(),
		"bookingId":  request.BookingID.String(),
		"rejectedBy": rejectedBy.String(),
		"reason":     req.Reason,
	})

	// 6. Tell the guest and emit REFUND_REJECTED
	p.notifyRejected(ctx, uow, request)
	p.publisher.PublishRefundRejected(ctx, request)

	return &RejectResult{
		RequestId:   requestId,
		ProcessedAt: now,
	}, nil
}

func (p *Processor) notifyRejected(ctx context.Context, uow unitofwork.UnitOfWork, request *entity.RefundRequest) {
	booking, err := uow.BookingRepository().FindByID(ctx, request.BookingID)
	if err != nil || booking == nil {
		p.logger.Warn("REVIEW", "Booking not found for rejection notice", map[string]interface{}{"requestId": request.ID.String()})
		return
	}
	if err := p.notifier.NotifyRefundRejected(ctx, booking, request); err != nil {
		p.logger.Error("NOTIFY", "Failed to queue rejection notification", map[string]interface{}{
			"requestId": request.ID.String(),
			"error":     err.Error(),
		})
	}
}

func resolveAmount(request *entity.RefundRequest, raw *string) (decimal.Decimal, error) {
	amount := request.Amount
	if raw != nil {
		parsed, err := decimal.NewFromString(*raw)
		if err != nil {
			return decimal.Zero, settlement.NewError(settlement.KindInvalidAmount, fmt.Sprintf("invalid amount %q", *raw))
		}
		amount = parsed
	} else if amount.IsZero() {
		return decimal.Zero, settlement.NewError(settlement.KindInvalidAmount, "requested amount is zero, an explicit amount is required")
	}

	if !amount.IsPositive() {
		return decimal.Zero, settlement.NewError(settlement.KindInvalidAmount, "amount must be greater than zero")
	}
	exp := settlement.Exponent(request.Currency)
	if !amount.Equal(amount.Round(exp)) {
		return decimal.Zero, settlement.NewError(settlement.KindInvalidAmount,
			fmt.Sprintf("%s allows at most %d decimal places", request.Currency, exp))
	}
	return amount, nil
}

func findPayment(ctx context.Context, uow unitofwork.UnitOfWork, request *entity.RefundRequest) (*entity.Payment, error) {
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
		return nil, err
	}
	if payment == nil || !payment.IsCompleted() {
		return nil, settlement.NewError(settlement.KindNoCompletedPayment, "booking has no completed payment")
	}
	return payment, nil
}
