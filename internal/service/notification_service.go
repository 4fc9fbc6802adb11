package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/mailer"
	"booking-settlement-be/pkg/refund"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"
)

const NotificationTopic = "settlement.notifications"

// Notifier tells the guest what happened to their cancellation.
type Notifier interface {
	NotifyRefundCompleted(ctx context.Context, booking *entity.Booking, r *entity.Refund) error
	NotifyRefundPendingReview(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error
	NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error
}

// NotificationDispatcher queues guest notifications on the in-process topic.
// Delivery happens in NotificationConsumer.
type NotificationDispatcher struct {
	publisher message.Publisher
	topic     string
}

func NewNotificationDispatcher(publisher message.Publisher, topic string) *NotificationDispatcher {
	return &NotificationDispatcher{
		publisher: publisher,
		topic:     topic,
	}
}

func (d *NotificationDispatcher) NotifyRefundCompleted(ctx context.Context, booking *entity.Booking, r *entity.Refund) error {
	return d.dispatch(dto.NotificationMessage{
		Kind:               dto.NotificationRefundCompleted,
		BookingId:          booking.ID,
		ConfirmationNumber: booking.ConfirmationNumber,
		GuestEmail:         booking.GuestEmail,
		GuestName:          booking.GuestName,
		Amount:             r.Amount.StringFixed(refund.Exponent(r.Currency)),
		Currency:           r.Currency,
		Reason:             r.Reason,
		Reference:          r.TransactionID,
	})
}

func (d *NotificationDispatcher) NotifyRefundPendingReview(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return d.dispatch(dto.NotificationMessage{
		Kind:               dto.NotificationRefundPendingReview,
		BookingId:          booking.ID,
		ConfirmationNumber: booking.ConfirmationNumber,
		GuestEmail:         booking.GuestEmail,
		GuestName:          booking.GuestName,
		Amount:             request.Amount.StringFixed(refund.Exponent(request.Currency)),
		Currency:           request.Currency,
		Reason:             request.Reason,
		Reference:          request.ID.String(),
	})
}

func (d *NotificationDispatcher) NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return d.dispatch(dto.NotificationMessage{
		Kind:               dto.NotificationRefundRejected,
		BookingId:          booking.ID,
		ConfirmationNumber: booking.ConfirmationNumber,
		GuestEmail:         booking.GuestEmail,
		GuestName:          booking.GuestName,
		Currency:           request.Currency,
		Reason:             request.RejectionReason,
		Reference:          request.ID.String(),
	})
}

func (d *NotificationDispatcher) dispatch(payload dto.NotificationMessage) error {
	payload.CreatedAt = time.Now()
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := d.publisher.Publish(d.topic, message.NewMessage(watermill.NewUUID(), body)); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

type INotificationConsumer interface {
	Consume(ctx context.Context) error
}

// NotificationConsumer delivers queued guest notifications by email. A failed
// confirmation email becomes a reconciliation item; other failures are logged.
type NotificationConsumer struct {
	subscriber   message.Subscriber
	topic        string
	emailService mailer.IEmailService
	reconciler   IReconciliationService
	logger       logger.ILogger
}

func NewNotificationConsumer(
	subscriber message.Subscriber,
	topic string,
	emailService mailer.IEmailService,
	reconciler IReconciliationService,
	logger logger.ILogger,
) *NotificationConsumer {
	return &NotificationConsumer{
		subscriber:   subscriber,
		topic:        topic,
		emailService: emailService,
		reconciler:   reconciler,
		logger:       logger,
	}
}

func (c *NotificationConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *NotificationConsumer) processMessage(ctx context.Context, msg *message.Message) {
	// Every message is acked: an email send is not safe to replay blindly.
	defer msg.Ack()

	var payload dto.NotificationMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("NOTIFICATION", "Failed to unmarshal notification", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := c.deliver(payload); err != nil {
		c.logger.Error("NOTIFICATION", "Failed to deliver guest notification", map[string]interface{}{
			"kind":       payload.Kind,
			"booking_id": payload.BookingId.String(),
			"error":      err.Error(),
		})
		if payload.Kind == dto.NotificationRefundCompleted {
			c.reconciler.Record(ctx, &entity.ReconciliationItem{
				Kind:      entity.ReconciliationKindNotificationFailure,
				BookingID: payload.BookingId,
				Amount:    parseAmount(payload.Amount),
				Currency:  payload.Currency,
				Error:     err.Error(),
			})
		}
		return
	}

	c.logger.Info("NOTIFICATION", "Guest notification sent", map[string]interface{}{
		"kind":       payload.Kind,
		"booking_id": payload.BookingId.String(),
	})
}

func (c *NotificationConsumer) deliver(p dto.NotificationMessage) error {
	if p.GuestEmail == "" {
		return fmt.Errorf("booking has no guest email")
	}

	data := mailer.RefundEmail{
		GuestName:          p.GuestName,
		ConfirmationNumber: p.ConfirmationNumber,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Reason:             p.Reason,
		Reference:          p.Reference,
	}

	switch p.Kind {
	case dto.NotificationRefundCompleted:
		return c.emailService.SendRefundConfirmation(p.GuestEmail, data)
	case dto.NotificationRefundPendingReview:
		return c.emailService.SendRefundUnderReview(p.GuestEmail, data)
	case dto.NotificationRefundRejected:
		return c.emailService.SendRefundRejected(p.GuestEmail, data)
	default:
		return fmt.Errorf("unknown notification kind %q", p.Kind)
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
