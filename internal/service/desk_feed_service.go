package service

import (
	"context"
	"fmt"
	"strings"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/mailer"
	"booking-settlement-be/pkg/events"
	pktNats "booking-settlement-be/pkg/nats"
)

// DeskDelivery pushes messages to connected operators. Implemented by the
// websocket hub.
type DeskDelivery interface {
	Broadcast(msg dto.DeskMessage)
}

// DeskEventTypes are the events shown on the admin refund desk.
var DeskEventTypes = []string{
	events.TypeRefundCompleted,
	events.TypeRefundPendingReview,
	events.TypeRefundApproved,
	events.TypeRefundRejected,
	events.TypeRefundStatusUpdated,
	events.TypeReconciliationRequired,
}

// DeskFeedService relays settlement events to the admin desk and mails an
// alert for every reconciliation item. It listens on NATS when available,
// otherwise on the in-process bus.
type DeskFeedService struct {
	subscriber   *pktNats.Subscriber
	local        *events.ChannelBus
	delivery     DeskDelivery
	emailService mailer.IEmailService
	adminEmail   string
	logger       logger.ILogger
}

func NewDeskFeedService(sub *pktNats.Subscriber, local *events.ChannelBus, delivery DeskDelivery, emailService mailer.IEmailService, adminEmail string, log logger.ILogger) *DeskFeedService {
	return &DeskFeedService{
		subscriber:   sub,
		local:        local,
		delivery:     delivery,
		emailService: emailService,
		adminEmail:   adminEmail,
		logger:       log,
	}
}

// Start begins listening to the event bus.
func (s *DeskFeedService) Start(ctx context.Context) error {
	for _, eventType := range DeskEventTypes {
		switch {
		case s.subscriber != nil:
			durable := "desk-feed-" + strings.ToLower(strings.ReplaceAll(eventType, "_", "-"))
			if err := s.subscriber.Subscribe(ctx, eventType, durable, s.handleEvent); err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
			}
		case s.local != nil:
			if err := s.local.Subscribe(ctx, eventType, s.handleEvent); err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
			}
		default:
			return fmt.Errorf("desk feed has no event source")
		}
	}

	s.logger.Info("DESK", "Desk feed started", map[string]interface{}{"nats": s.subscriber != nil})
	return nil
}

func (s *DeskFeedService) handleEvent(ctx context.Context, event events.Event) error {
	s.delivery.Broadcast(dto.DeskMessage{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})

	if event.EventType() == events.TypeReconciliationRequired && s.adminEmail != "" {
		if err := s.emailService.SendAdminAlert(s.adminEmail, "Refund reconciliation required", reconciliationAlertBody(event.Payload())); err != nil {
			s.logger.Error("DESK", "Failed to send reconciliation alert", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func reconciliationAlertBody(data map[string]interface{}) string {
	return fmt.Sprintf(
		"<p>A refund side effect failed after the payment provider moved money.</p>"+
			"<p>Kind: %v<br>Booking: %v<br>Refund: %v<br>Amount: %v %v</p><p>Error: %v</p>",
		data["kind"], data["booking_id"], data["refund_id"], data["amount"], data["currency"], data["error"],
	)
}
