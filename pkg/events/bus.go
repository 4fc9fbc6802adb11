package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus publishes events to whoever is listening. The NATS publisher is the
// clustered implementation; ChannelBus serves single-node runs and tests.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

type Handler func(ctx context.Context, event Event) error

// Topic carries every event on the in-process bus. Subscribers filter by type.
const Topic = "settlement.events"

// WildcardType subscribes a handler to every event type.
const WildcardType = "*"

// ChannelBus is an in-process bus on a watermill go channel. Publish returns
// once every subscriber has handled the event, so callers observe handler
// side effects in order.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

func NewChannelBus(logger watermill.LoggerAdapter) *ChannelBus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
		logger: logger,
	}
}

func (b *ChannelBus) Publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	return b.pubSub.Publish(Topic, msg)
}

// Subscribe runs handler for one event type, or every type with WildcardType,
// until ctx is done. Handler errors are logged and the event is acked; a
// redelivery would block the publisher.
func (b *ChannelBus) Subscribe(ctx context.Context, eventType string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			b.dispatch(msg, eventType, handler)
			msg.Ack()
		}
	}()
	return nil
}

func (b *ChannelBus) dispatch(msg *message.Message, eventType string, handler Handler) {
	if eventType != WildcardType && msg.Metadata.Get("event_type") != eventType {
		return
	}

	event, err := Unmarshal(msg.Payload)
	if err != nil {
		b.logger.Error("Dropping undecodable event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return
	}
	if err := handler(msg.Context(), event); err != nil {
		b.logger.Error("Event handler failed", err, watermill.LogFields{
			"message_uuid": msg.UUID,
			"event_type":   event.EventType(),
		})
	}
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}
