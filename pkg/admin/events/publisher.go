package events

import (
	"context"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	pkgEvents "booking-settlement-be/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher announces settlement outcomes to operators and downstream
// consumers. Publishing is best effort: failures are logged, never returned.
type Publisher interface {
	PublishRefundCompleted(ctx context.Context, refund *entity.Refund, booking *entity.Booking)
	PublishRefundPendingReview(ctx context.Context, request *entity.RefundRequest, booking *entity.Booking)
	PublishRefundApproved(ctx context.Context, request *entity.RefundRequest, refundID uuid.UUID, amount decimal.Decimal)
	PublishRefundRejected(ctx context.Context, request *entity.RefundRequest)
	PublishRefundStatusUpdated(ctx context.Context, refund *entity.Refund)
	PublishReconciliationRequired(ctx context.Context, item *entity.ReconciliationItem)
}

type BusPublisher struct {
	bus    pkgEvents.Bus
	logger logger.ILogger
}

// NewBusPublisher accepts a nil bus, in which case every publish is a no-op.
func NewBusPublisher(bus pkgEvents.Bus, logger logger.ILogger) *BusPublisher {
	return &BusPublisher{
		bus:    bus,
		logger: logger,
	}
}

func (p *BusPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.bus == nil {
		return
	}

	now := time.Now()
	data["occurred_at"] = now
	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: now,
	}

	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *BusPublisher) PublishRefundCompleted(ctx context.Context, refund *entity.Refund, booking *entity.Booking) {
	p.publish(ctx, pkgEvents.TypeRefundCompleted, map[string]interface{}{
		"refund_id":           refund.ID.String(),
		"booking_id":          refund.BookingID.String(),
		"payment_id":          refund.PaymentID.String(),
		"confirmation_number": booking.ConfirmationNumber,
		"amount":              refund.Amount.String(),
		"currency":            refund.Currency,
		"status":              string(refund.Status),
		"entity_type":         "refund",
		"entity_id":           refund.ID.String(),
	})
}

func (p *BusPublisher) PublishRefundPendingReview(ctx context.Context, request *entity.RefundRequest, booking *entity.Booking) {
	p.publish(ctx, pkgEvents.TypeRefundPendingReview, map[string]interface{}{
		"request_id":          request.ID.String(),
		"booking_id":          request.BookingID.String(),
		"confirmation_number": booking.ConfirmationNumber,
		"guest_name":          booking.GuestName,
		"amount":              request.Amount.String(),
		"currency":            request.Currency,
		"reason":              request.Reason,
		"entity_type":         "refund_request",
		"entity_id":           request.ID.String(),
	})
}

func (p *BusPublisher) PublishRefundApproved(ctx context.Context, request *entity.RefundRequest, refundID uuid.UUID, amount decimal.Decimal) {
	data := map[string]interface{}{
		"request_id":  request.ID.String(),
		"booking_id":  request.BookingID.String(),
		"refund_id":   refundID.String(),
		"amount":      amount.String(),
		"currency":    request.Currency,
		"entity_type": "refund_request",
		"entity_id":   request.ID.String(),
	}
	if request.ApprovedBy != nil {
		data["approved_by"] = request.ApprovedBy.String()
	}
	p.publish(ctx, pkgEvents.TypeRefundApproved, data)
}

func (p *BusPublisher) PublishRefundRejected(ctx context.Context, request *entity.RefundRequest) {
	p.publish(ctx, pkgEvents.TypeRefundRejected, map[string]interface{}{
		"request_id":  request.ID.String(),
		"booking_id":  request.BookingID.String(),
		"reason":      request.RejectionReason,
		"entity_type": "refund_request",
		"entity_id":   request.ID.String(),
	})
}

func (p *BusPublisher) PublishRefundStatusUpdated(ctx context.Context, refund *entity.Refund) {
	p.publish(ctx, pkgEvents.TypeRefundStatusUpdated, map[string]interface{}{
		"refund_id":   refund.ID.String(),
		"booking_id":  refund.BookingID.String(),
		"status":      string(refund.Status),
		"entity_type": "refund",
		"entity_id":   refund.ID.String(),
	})
}

func (p *BusPublisher) PublishReconciliationRequired(ctx context.Context, item *entity.ReconciliationItem) {
	data := map[string]interface{}{
		"item_id":     item.ID.String(),
		"kind":        string(item.Kind),
		"booking_id":  item.BookingID.String(),
		"amount":      item.Amount.String(),
		"currency":    item.Currency,
		"error":       item.Error,
		"entity_type": "reconciliation_item",
		"entity_id":   item.ID.String(),
	}
	if item.RefundID != nil {
		data["refund_id"] = item.RefundID.String()
	}
	p.publish(ctx, pkgEvents.TypeReconciliationRequired, data)
}
